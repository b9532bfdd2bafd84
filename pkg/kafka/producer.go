package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

var ErrProducerClosed = errors.New("kafka: producer closed")

// Message is one record of a batch. Value is sent as-is when it is []byte or
// string and JSON-encoded otherwise.
type Message struct {
	Key   []byte
	Value interface{}
}

// Producer is shared by the draw publisher and the log collector, so Close
// may be called more than once.
type Producer struct {
	writer  *kafka.Writer
	codec   string
	metrics *kafkaMetrics

	mu     sync.RWMutex
	closed bool
	err    error
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, errNoBrokers
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		balancer = &kafka.Hash{}
	}
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     balancer,
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  compressionCodec(cfg.Compression),
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			BatchSize:    cfg.BatchSize,
			BatchBytes:   int64(cfg.BatchBytes),
			BatchTimeout: cfg.BatchTimeout,
			Async:        cfg.Async,
		},
		codec:   cfg.Compression,
		metrics: kafkaMetricsInstance(),
	}, nil
}

// Publish writes one record. A trace id stored in ctx with WithTraceID
// travels as the trace_id header.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.PublishBatch(ctx, topic, []Message{{Key: key, Value: value}})
}

func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}

	start := time.Now()
	headers := traceHeaders(ctx)
	records := make([]kafka.Message, 0, len(messages))
	var size int64
	for _, m := range messages {
		value, err := encodeValue(m.Value)
		if err != nil {
			return err
		}
		records = append(records, kafka.Message{
			Topic:   topic,
			Key:     m.Key,
			Value:   value,
			Headers: headers,
			Time:    start,
		})
		size += int64(len(value))
	}

	err := p.writer.WriteMessages(ctx, records...)
	p.metrics.observePublish(topic, p.codec, size, len(records), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka: write %d message(s) to %s: %w", len(records), topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return p.err
	}
	p.closed = true
	p.err = p.writer.Close()
	return p.err
}

func encodeValue(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		return []byte(val), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("kafka: encode value: %w", err)
		}
		return b, nil
	}
}

func traceHeaders(ctx context.Context) []kafka.Header {
	if id, ok := ctx.Value(CtxTraceID).(string); ok && id != "" {
		return []kafka.Header{{Key: "trace_id", Value: []byte(id)}}
	}
	return nil
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}
