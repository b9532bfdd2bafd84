package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	applogger "LottoStats/pkg/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrNotRunning = errors.New("queue not running")
	ErrQueueFull  = errors.New("queue full")
)

type QueueMode int

const (
	ModeProducerConsumer QueueMode = iota
	ModeProducerOnly
	ModeConsumerOnly
)

func (m QueueMode) String() string {
	switch m {
	case ModeProducerOnly:
		return "producer-only"
	case ModeConsumerOnly:
		return "consumer-only"
	default:
		return "producer-consumer"
	}
}

// RedisQueue is a list-backed job queue. Failed messages wait in a sorted set
// until their retry time and end in a dead-letter list after RetryLimit attempts.
type RedisQueue struct {
	l         *applogger.Logger
	config    *QueueConfig
	client    *redis.Client
	mode      QueueMode
	keyPrefix string

	mu      sync.RWMutex
	jobs    map[string]Job
	running bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	pollTimeout   time.Duration
	retryInterval time.Duration
	onDepth       func(pending, retry, dead int64)
}

type RedisQueueOption func(*RedisQueue)

// WithKeyPrefix namespaces the queue's lists ("lottostats:queue:messages").
func WithKeyPrefix(prefix string) RedisQueueOption {
	return func(r *RedisQueue) { r.keyPrefix = prefix }
}

// WithRetryInterval sets how often due retries are moved back to the queue.
func WithRetryInterval(d time.Duration) RedisQueueOption {
	return func(r *RedisQueue) { r.retryInterval = d }
}

// WithDepthObserver reports queue sizes after every retry sweep.
func WithDepthObserver(fn func(pending, retry, dead int64)) RedisQueueOption {
	return func(r *RedisQueue) { r.onDepth = fn }
}

func NewRedisQueue(l *applogger.Logger, config *QueueConfig, client *redis.Client, mode QueueMode, opts ...RedisQueueOption) *RedisQueue {
	if l == nil {
		l = applogger.NewNop()
	}
	if config == nil {
		config = &QueueConfig{}
	}
	if config.Workers <= 0 {
		config.Workers = 1
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = 10 * time.Second
	}

	rq := &RedisQueue{
		l:             l,
		config:        config,
		client:        client,
		mode:          mode,
		keyPrefix:     "lottostats:queue",
		jobs:          make(map[string]Job),
		pollTimeout:   time.Second,
		retryInterval: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(rq)
	}
	return rq
}

// RegisterJob routes messages of job.Type() to job. It is ignored in producer-only mode.
func (r *RedisQueue) RegisterJob(job Job) {
	if r.mode == ModeProducerOnly {
		r.l.Warn("job registration ignored in producer-only mode", applogger.String("job", job.Name()))
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.Type()]; exists {
		r.l.Warn("job already registered", applogger.String("job", job.Name()))
		return
	}
	r.jobs[job.Type()] = job
	r.l.Info("job registered", applogger.String("job", job.Name()), applogger.String("type", job.Type()))
}

// Start pings Redis and, unless producer-only, launches the workers and the retry mover.
func (r *RedisQueue) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("queue already running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	r.ctx, r.cancel = context.WithCancel(context.Background())
	r.running = true

	if r.mode != ModeProducerOnly {
		for i := 0; i < r.config.Workers; i++ {
			r.wg.Add(1)
			go r.worker(i)
		}
		r.wg.Add(1)
		go r.retryLoop()
	}
	r.l.Info("redis queue started",
		applogger.Int("workers", r.config.Workers),
		applogger.String("addr", r.client.Options().Addr),
		applogger.String("mode", r.mode.String()))
	return nil
}

// Stop cancels the workers and waits for in-flight jobs, bounded by ctx.
func (r *RedisQueue) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	r.cancel()
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("waiting for queue workers: %w", ctx.Err())
	case <-done:
		r.l.Info("redis queue stopped")
		return nil
	}
}

// Enqueue pushes a message of msgType. With a registered consumer in this process,
// unknown types are rejected up front.
func (r *RedisQueue) Enqueue(ctx context.Context, msgType string, payload interface{}) error {
	r.mu.RLock()
	running := r.running
	_, known := r.jobs[msgType]
	r.mu.RUnlock()
	if !running {
		return ErrNotRunning
	}
	if r.mode != ModeProducerOnly && !known {
		return fmt.Errorf("no job registered for type: %s", msgType)
	}

	if r.config.QueueSize > 0 {
		n, err := r.client.LLen(ctx, r.queueKey()).Result()
		if err != nil {
			return fmt.Errorf("llen: %w", err)
		}
		if n >= int64(r.config.QueueSize) {
			return ErrQueueFull
		}
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	data, err := json.Marshal(Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   raw,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := r.client.LPush(ctx, r.queueKey(), data).Err(); err != nil {
		return fmt.Errorf("lpush: %w", err)
	}
	return nil
}

// PublishMessage implements Publisher.
func (r *RedisQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	return r.Enqueue(ctx, msgType, payload)
}

// Depth reads the pending, retry and dead-letter sizes in one round trip.
func (r *RedisQueue) Depth(ctx context.Context) (Depth, error) {
	pipe := r.client.Pipeline()
	pending := pipe.LLen(ctx, r.queueKey())
	retry := pipe.ZCard(ctx, r.retryKey())
	dead := pipe.LLen(ctx, r.deadLetterKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return Depth{}, err
	}
	return Depth{Pending: pending.Val(), Retry: retry.Val(), Dead: dead.Val()}, nil
}

func (r *RedisQueue) worker(id int) {
	defer r.wg.Done()
	r.l.Debug("queue worker started", applogger.Int("worker_id", id))
	for {
		select {
		case <-r.ctx.Done():
			return
		default:
			r.processNext()
		}
	}
}

func (r *RedisQueue) processNext() {
	result, err := r.client.BRPop(r.ctx, r.pollTimeout, r.queueKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		r.l.Error("brpop error", applogger.Error(err))
		select {
		case <-time.After(time.Second):
		case <-r.ctx.Done():
		}
		return
	}
	if len(result) < 2 {
		return
	}

	var msg Message
	if err := json.Unmarshal([]byte(result[1]), &msg); err != nil {
		r.l.Error("unmarshal message", applogger.Error(err))
		return
	}
	r.process(msg)
}

func (r *RedisQueue) process(msg Message) {
	r.mu.RLock()
	job, ok := r.jobs[msg.Type]
	r.mu.RUnlock()
	if !ok {
		r.l.Error("no job found", applogger.String("type", msg.Type), applogger.String("id", msg.ID))
		r.deadLetter(msg, fmt.Errorf("no job for type %s", msg.Type))
		return
	}

	start := time.Now()
	err := job.Handle(r.ctx, msg.Payload)
	if err == nil {
		r.l.Debug("job done",
			applogger.String("id", msg.ID),
			applogger.String("job", job.Name()),
			applogger.Duration("took", time.Since(start)))
		return
	}
	if errors.Is(err, context.Canceled) {
		r.l.Warn("job cancelled", applogger.String("id", msg.ID), applogger.String("job", job.Name()))
		return
	}
	r.fail(msg, job, err)
}

func (r *RedisQueue) fail(msg Message, job Job, err error) {
	msg.Attempts++
	msg.LastError = err.Error()
	r.l.Error("job failed",
		applogger.String("id", msg.ID),
		applogger.String("job", job.Name()),
		applogger.Int("attempt", msg.Attempts),
		applogger.Error(err))

	if IsPermanent(err) || msg.Attempts > r.config.RetryLimit {
		r.deadLetter(msg, err)
		return
	}
	at := time.Now().Add(retryDelay(r.config.RetryDelay, msg.Attempts))
	data, mErr := json.Marshal(msg)
	if mErr != nil {
		r.l.Error("marshal retry", applogger.Error(mErr))
		return
	}
	if zErr := r.client.ZAdd(context.WithoutCancel(r.ctx), r.retryKey(), redis.Z{
		Score:  float64(at.Unix()),
		Member: data,
	}).Err(); zErr != nil {
		r.l.Error("schedule retry", applogger.Error(zErr))
	}
}

func (r *RedisQueue) deadLetter(msg Message, err error) {
	if err != nil {
		msg.LastError = err.Error()
	}
	data, mErr := json.Marshal(msg)
	if mErr != nil {
		r.l.Error("marshal dead letter", applogger.Error(mErr))
		return
	}
	if pErr := r.client.LPush(context.WithoutCancel(r.ctx), r.deadLetterKey(), data).Err(); pErr != nil {
		r.l.Error("push dead letter", applogger.Error(pErr))
	}
}

func (r *RedisQueue) retryLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.retryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.promoteDue()
			if r.onDepth != nil {
				if d, err := r.Depth(r.ctx); err == nil {
					r.onDepth(d.Pending, d.Retry, d.Dead)
				}
			}
		}
	}
}

// promoteDue moves due retries back to the queue. ZRem decides ownership, so
// replicas polling the same set never requeue a message twice.
func (r *RedisQueue) promoteDue() {
	due, err := r.client.ZRangeByScore(r.ctx, r.retryKey(), &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			r.l.Error("fetch due retries", applogger.Error(err))
		}
		return
	}
	for _, member := range due {
		removed, err := r.client.ZRem(r.ctx, r.retryKey(), member).Result()
		if err != nil || removed == 0 {
			continue
		}
		if err := r.client.LPush(r.ctx, r.queueKey(), member).Err(); err != nil {
			r.l.Error("requeue retry", applogger.Error(err))
		}
	}
}

func (r *RedisQueue) queueKey() string      { return r.keyPrefix + ":messages" }
func (r *RedisQueue) retryKey() string      { return r.keyPrefix + ":retry" }
func (r *RedisQueue) deadLetterKey() string { return r.keyPrefix + ":dlq" }
