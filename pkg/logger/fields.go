package logger

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field is one typed key/value. Value is what the collector aggregates on.
type Field struct {
	Key   string
	Value interface{}
	add   func(*zerolog.Event)
}

func String(key, v string) Field {
	return Field{Key: key, Value: v, add: func(e *zerolog.Event) { e.Str(key, v) }}
}

func Strings(key string, v []string) Field {
	joined := strings.Join(v, ",")
	return Field{Key: key, Value: joined, add: func(e *zerolog.Event) { e.Strs(key, v) }}
}

func Int(key string, v int) Field {
	return Field{Key: key, Value: v, add: func(e *zerolog.Event) { e.Int(key, v) }}
}

func Int64(key string, v int64) Field {
	return Field{Key: key, Value: v, add: func(e *zerolog.Event) { e.Int64(key, v) }}
}

func Float64(key string, v float64) Field {
	return Field{Key: key, Value: v, add: func(e *zerolog.Event) { e.Float64(key, v) }}
}

func Bool(key string, v bool) Field {
	return Field{Key: key, Value: v, add: func(e *zerolog.Event) { e.Bool(key, v) }}
}

// Duration is logged in milliseconds.
func Duration(key string, v time.Duration) Field {
	ms := v.Milliseconds()
	return Field{Key: key, Value: ms, add: func(e *zerolog.Event) { e.Int64(key, ms) }}
}

// Time is aggregated as an RFC 3339 string.
func Time(key string, v time.Time) Field {
	return Field{Key: key, Value: v.Format(time.RFC3339), add: func(e *zerolog.Event) { e.Time(key, v) }}
}

func Any(key string, v interface{}) Field {
	return Field{Key: key, Value: v, add: func(e *zerolog.Event) { e.Interface(key, v) }}
}

// Error uses the "error" key. A nil error logs nothing.
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", add: func(*zerolog.Event) {}}
	}
	return Field{Key: "error", Value: err.Error(), add: func(e *zerolog.Event) { e.Err(err) }}
}
