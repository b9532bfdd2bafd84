package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	applogger "LottoStats/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// MessageHandler consumes one topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// Consumer reads every registered topic in its own goroutine and fans the
// messages out to a worker pool. Messages of one partition are handled one
// at a time so per-lottery ordering survives the pool.
type Consumer struct {
	cfg      *ConsumerConfig
	l        *applogger.Logger
	metrics  *kafkaMetrics
	hook     ConsumerHook
	handlers map[string]MessageHandler
	readers  map[string]*kafka.Reader
	dlq      *kafka.Writer

	buf      chan delivery
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	locksMu sync.Mutex
	locks   map[partitionKey]*sync.Mutex
}

type delivery struct {
	topic string
	msg   kafka.Message
}

type partitionKey struct {
	topic     string
	partition int
}

func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := defaultConsumerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errNoBrokers
	}
	l := cfg.Logger
	if l == nil {
		l = applogger.NewNop()
	}

	c := &Consumer{
		cfg:      cfg,
		l:        l,
		metrics:  kafkaMetricsInstance(),
		hook:     NoopHook{},
		handlers: make(map[string]MessageHandler),
		readers:  make(map[string]*kafka.Reader),
		buf:      make(chan delivery, cfg.BufferSize),
		stop:     make(chan struct{}),
		locks:    make(map[partitionKey]*sync.Mutex),
	}
	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.Hash{}}
	}
	return c, nil
}

// WithConsumerHook replaces the hook. Call it before Start.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// RegisterHandler must be called before Start. A second handler for the same topic is ignored.
func (c *Consumer) RegisterHandler(h MessageHandler) {
	if _, dup := c.handlers[h.Topic()]; dup {
		c.l.Warn("kafka consumer: handler already registered", applogger.String("topic", h.Topic()))
		return
	}
	c.handlers[h.Topic()] = h
}

func (c *Consumer) Start() error {
	if len(c.handlers) == 0 {
		return fmt.Errorf("kafka consumer: no handlers registered")
	}
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:     c.cfg.Brokers,
			Topic:       topic,
			GroupID:     c.cfg.GroupID,
			MinBytes:    c.cfg.MinBytes,
			MaxBytes:    c.cfg.MaxBytes,
			StartOffset: startOffset(c.cfg.AutoOffsetReset),
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.work()
	}
	var fetchers sync.WaitGroup
	for topic, r := range c.readers {
		fetchers.Add(1)
		go c.fetch(&fetchers, topic, r)
	}
	// workers drain the buffer once every fetcher has returned
	go func() {
		fetchers.Wait()
		close(c.buf)
	}()

	c.l.Info("kafka consumer started",
		applogger.String("group", c.cfg.GroupID),
		applogger.Int("topics", len(c.readers)),
		applogger.Int("workers", c.cfg.WorkerCount))
	return nil
}

// Stop waits for in-flight messages, bounded by ctx, then closes the readers.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)

		done := make(chan struct{})
		go func() {
			c.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			err = fmt.Errorf("kafka consumer: waiting for workers: %w", ctx.Err())
		}

		for topic, r := range c.readers {
			if cerr := r.Close(); cerr != nil {
				c.l.Warn("kafka consumer: close reader", applogger.String("topic", topic), applogger.Error(cerr))
			}
		}
		if c.dlq != nil {
			if cerr := c.dlq.Close(); cerr != nil {
				c.l.Warn("kafka consumer: close dlq writer", applogger.Error(cerr))
			}
		}
		if err == nil {
			c.l.Info("kafka consumer stopped")
		}
	})
	return err
}

func (c *Consumer) fetch(wg *sync.WaitGroup, topic string, r *kafka.Reader) {
	defer wg.Done()
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := r.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.l.Warn("kafka consumer: fetch", applogger.String("topic", topic), applogger.Error(err))
			}
			continue
		}

		// blocks while the workers are saturated
		select {
		case c.buf <- delivery{topic: topic, msg: msg}:
			c.metrics.observeBuffer(topic, len(c.buf), cap(c.buf))
		case <-c.stop:
			return
		}
	}
}

func (c *Consumer) work() {
	defer c.wg.Done()
	for d := range c.buf {
		c.handle(d)
	}
}

func (c *Consumer) handle(d delivery) {
	h, ok := c.handlers[d.topic]
	if !ok {
		return
	}
	start := time.Now()
	defer func() {
		c.metrics.handleTime.WithLabelValues(d.topic).Observe(time.Since(start).Seconds())
	}()

	lock := c.partitionLock(d.topic, d.msg.Partition)
	lock.Lock()
	defer lock.Unlock()

	attempts, err := c.handleWithRetry(h, d)
	if errors.Is(err, errStopping) {
		// left uncommitted so the next owner of the partition reads it again
		return
	}
	if err != nil {
		c.hook.OnError(context.Background(), d.topic, d.msg, d.msg.Value, err)
		c.l.Error("kafka consumer: handler failed",
			applogger.String("topic", d.topic),
			applogger.Int("partition", d.msg.Partition),
			applogger.Int64("offset", d.msg.Offset),
			applogger.Int("attempts", attempts),
			applogger.Error(err))
		if c.dlq == nil {
			return
		}
		if derr := c.deadLetter(d, err); derr != nil {
			c.l.Error("kafka consumer: dlq write", applogger.String("dlq", c.cfg.DLQTopic), applogger.Error(derr))
			return
		}
	}
	c.commit(d)
}

var errStopping = errors.New("kafka consumer: stopping")

func (c *Consumer) handleWithRetry(h MessageHandler, d delivery) (attempts int, err error) {
	for {
		attempts++
		err = c.invoke(h, d)
		if err == nil || attempts > c.cfg.RetryMax {
			return attempts, err
		}
		var he *HookError
		if errors.As(err, &he) {
			// a hook rejection will not change on retry
			return attempts, err
		}
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)):
		case <-c.stop:
			return attempts, errStopping
		}
	}
}

// invoke runs the hooks and the handler once, turning a handler panic into an error.
func (c *Consumer) invoke(h MessageHandler, d delivery) (err error) {
	ctx, msg, data, err := c.hook.BeforeHandle(context.Background(), d.topic, d.msg, d.msg.Value)
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			err = &HookError{Code: "ERR_PANIC", Err: fmt.Errorf("handler panic: %v", r)}
		}
		c.hook.AfterHandle(ctx, d.topic, msg, data, err)
	}()
	return h.Handle(ctx, data)
}

func (c *Consumer) deadLetter(d delivery, cause error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.dlq.WriteMessages(ctx, kafka.Message{
		Topic: c.cfg.DLQTopic,
		Key:   d.msg.Key,
		Value: d.msg.Value,
		Time:  time.Now(),
		Headers: append(d.msg.Headers,
			kafka.Header{Key: "source_topic", Value: []byte(d.topic)},
			kafka.Header{Key: "error", Value: []byte(cause.Error())},
		),
	})
	if err == nil {
		c.metrics.dlqTotal.WithLabelValues(d.topic).Inc()
	}
	return err
}

func (c *Consumer) commit(d delivery) {
	r := c.readers[d.topic]
	if r == nil {
		return
	}
	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = r.CommitMessages(ctx, d.msg)
		cancel()
		if err == nil {
			return
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.l.Error("kafka consumer: commit failed",
		applogger.String("topic", d.topic),
		applogger.Int64("offset", d.msg.Offset),
		applogger.Error(err))
}

func (c *Consumer) partitionLock(topic string, partition int) *sync.Mutex {
	k := partitionKey{topic: topic, partition: partition}
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	m, ok := c.locks[k]
	if !ok {
		m = &sync.Mutex{}
		c.locks[k] = m
	}
	return m
}

func startOffset(reset string) int64 {
	if reset == "latest" {
		return kafka.LastOffset
	}
	return kafka.FirstOffset
}

// backoffWithJitter doubles min per attempt up to max and subtracts up to half of it at random.
func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	if attempt < 1 {
		attempt = 1
	}
	d := max
	if attempt < 32 {
		if exp := min << uint(attempt-1); exp > 0 && exp < max {
			d = exp
		}
	}
	return d - time.Duration(rand.Int63n(int64(d)/2+1))
}
