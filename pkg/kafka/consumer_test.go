package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
)

type funcHandler struct {
	topic string
	fn    func(context.Context, []byte) error
}

func (h funcHandler) Topic() string                              { return h.topic }
func (h funcHandler) Handle(ctx context.Context, b []byte) error { return h.fn(ctx, b) }

func newTestConsumer(t *testing.T, opts ...ConsumerOption) *Consumer {
	t.Helper()
	opts = append([]ConsumerOption{WithConsumerBrokers([]string{"localhost:9092"})}, opts...)
	c, err := NewConsumer(opts...)
	if err != nil {
		t.Fatalf("new consumer: %v", err)
	}
	return c
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	if _, err := NewConsumer(); !errors.Is(err, errNoBrokers) {
		t.Fatalf("expected errNoBrokers, got %v", err)
	}
	if _, err := NewProducer(); !errors.Is(err, errNoBrokers) {
		t.Fatalf("expected errNoBrokers from producer, got %v", err)
	}
}

func TestConsumerRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t, WithConsumerRetry(3, time.Millisecond, 2*time.Millisecond))
	calls := 0
	h := funcHandler{topic: "draws", fn: func(context.Context, []byte) error {
		calls++
		if calls < 3 {
			return errors.New("clickhouse unavailable")
		}
		return nil
	}}

	attempts, err := c.handleWithRetry(h, delivery{topic: "draws", msg: kafka.Message{Value: []byte("{}")}})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 || calls != 3 {
		t.Fatalf("attempts=%d calls=%d, want 3", attempts, calls)
	}
}

func TestConsumerGivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t, WithConsumerRetry(1, time.Millisecond, time.Millisecond))
	h := funcHandler{topic: "draws", fn: func(context.Context, []byte) error { return errors.New("bad draw") }}

	attempts, err := c.handleWithRetry(h, delivery{topic: "draws"})
	if err == nil || attempts != 2 {
		t.Fatalf("attempts=%d err=%v, want 2 attempts and an error", attempts, err)
	}
}

func TestConsumerHandlerPanicIsNotRetried(t *testing.T) {
	c := newTestConsumer(t, WithConsumerRetry(5, time.Millisecond, time.Millisecond))
	calls := 0
	h := funcHandler{topic: "draws", fn: func(context.Context, []byte) error {
		calls++
		panic("nil result")
	}}

	_, err := c.handleWithRetry(h, delivery{topic: "draws"})
	var he *HookError
	if !errors.As(err, &he) || he.Code != "ERR_PANIC" {
		t.Fatalf("expected ERR_PANIC, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("panicking handler called %d times", calls)
	}
}

func TestConsumerHookSeesHandlerResult(t *testing.T) {
	c := newTestConsumer(t)
	var got error
	c.WithConsumerHook(HookFuncs{
		After: func(_ context.Context, _ string, _ kafka.Message, _ []byte, err error) { got = err },
	})
	want := errors.New("rejected")
	_ = c.invoke(funcHandler{topic: "draws", fn: func(context.Context, []byte) error { return want }}, delivery{topic: "draws"})
	if !errors.Is(got, want) {
		t.Fatalf("after hook saw %v", got)
	}
}

func TestPartitionLockIsPerPartition(t *testing.T) {
	c := newTestConsumer(t)
	if c.partitionLock("draws", 0) != c.partitionLock("draws", 0) {
		t.Fatal("same partition should share a lock")
	}
	if c.partitionLock("draws", 0) == c.partitionLock("draws", 1) {
		t.Fatal("different partitions should not share a lock")
	}
}

func TestStartWithoutHandlers(t *testing.T) {
	if err := newTestConsumer(t).Start(); err == nil {
		t.Fatal("expected an error when no handler is registered")
	}
}

func TestEncodeValueAndTraceHeaders(t *testing.T) {
	b, err := encodeValue(map[string]int{"n": 1})
	if err != nil || string(b) != `{"n":1}` {
		t.Fatalf("encode map: %s %v", b, err)
	}
	if b, _ := encodeValue("raw"); string(b) != "raw" {
		t.Fatalf("encode string: %s", b)
	}
	if _, err := encodeValue(make(chan int)); err == nil {
		t.Fatal("expected an error for an unencodable value")
	}

	if h := traceHeaders(context.Background()); h != nil {
		t.Fatalf("unexpected headers %v", h)
	}
	h := traceHeaders(WithTraceID(context.Background(), "t-1"))
	if len(h) != 1 || h[0].Key != "trace_id" || string(h[0].Value) != "t-1" {
		t.Fatalf("trace header = %v", h)
	}
}

func TestCompressionCodec(t *testing.T) {
	if compressionCodec("zstd") != kafka.Zstd || compressionCodec("nope") != kafka.Gzip {
		t.Fatal("unexpected codec mapping")
	}
}
