package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Publisher enqueues messages for asynchronous jobs.
type Publisher interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

type QueueConfig struct {
	Workers    int
	QueueSize  int
	RetryLimit int
	// RetryDelay is multiplied by the attempt number.
	RetryDelay time.Duration
}

// Message is the envelope stored in Redis.
type Message struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempts  int             `json:"attempts"`
	Timestamp time.Time       `json:"timestamp"`
	LastError string          `json:"lastError,omitempty"`
}

// Depth reports how many messages wait in each list.
type Depth struct {
	Pending int64 `json:"pending"`
	Retry   int64 `json:"retry"`
	Dead    int64 `json:"dead"`
}

// ParsePayload decodes a job payload into T. Jobs receive json.RawMessage from
// Redis and typed values when called directly.
func ParsePayload[T any](payload interface{}) (*T, error) {
	switch p := payload.(type) {
	case *T:
		return p, nil
	case T:
		return &p, nil
	case json.RawMessage:
		return decode[T](p)
	case []byte:
		return decode[T](p)
	default:
		raw, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("invalid payload type %T: %w", payload, err)
		}
		return decode[T](raw)
	}
}

func decode[T any](raw []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return &out, nil
}

func retryDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}
