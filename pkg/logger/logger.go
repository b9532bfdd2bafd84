package logger

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Logger is a thin zerolog wrapper. Warnings and errors are also handed to
// the attached LogCollector, which every child made by With shares.
type Logger struct {
	zl   zerolog.Logger
	sink *collectorSlot
}

type collectorSlot struct {
	c atomic.Pointer[LogCollector]
}

type Config struct {
	Level  string // debug, info, warn or error; empty means info
	Format string // json or console
	// Output is stdout, stderr or a file path. Ignored when Writer is set.
	Output     string
	TimeFormat string
	Writer     io.Writer
}

func New(cfg *Config) (*Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		lv, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		level = lv
	}

	out, err := openOutput(cfg)
	if err != nil {
		return nil, err
	}
	timeFormat := cfg.TimeFormat
	if timeFormat == "" {
		timeFormat = time.RFC3339Nano
	}
	zerolog.TimeFieldFormat = timeFormat
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: timeFormat}
	}

	zl := zerolog.New(out).Level(level).With().
		Timestamp().
		CallerWithSkipFrameCount(4).
		Logger()
	return &Logger{zl: zl, sink: &collectorSlot{}}, nil
}

func openOutput(cfg *Config) (io.Writer, error) {
	if cfg.Writer != nil {
		return cfg.Writer, nil
	}
	switch cfg.Output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	f, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop(), sink: &collectorSlot{}}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.emit(l.zl.Info(), msg, fields) }

func (l *Logger) Warn(msg string, fields ...Field) {
	l.emit(l.zl.Warn(), msg, fields)
	l.collect("warn", msg, fields)
}

func (l *Logger) Error(msg string, fields ...Field) {
	l.emit(l.zl.Error(), msg, fields)
	l.collect("error", msg, fields)
}

func (l *Logger) emit(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	for _, f := range fields {
		if f.add != nil {
			f.add(e)
		}
	}
	e.Msg(msg)
}

func (l *Logger) collect(level, msg string, fields []Field) {
	c := l.sink.c.Load()
	if c == nil {
		return
	}
	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		values[f.Key] = f.Value
	}
	c.AddLog(level, msg, values, callerAt(3))
}

// callerAt returns file:line relative to the module root.
func callerAt(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	if i := strings.LastIndex(file, "LottoStats/"); i >= 0 {
		file = file[i+len("LottoStats/"):]
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// AddCollector attaches a collector, closing the previous one.
func (l *Logger) AddCollector(cfg *CollectionConfig) {
	if old := l.sink.c.Swap(NewLogCollector(cfg)); old != nil {
		old.Close()
	}
}

// RemoveCollector detaches and closes the collector after its last flush.
func (l *Logger) RemoveCollector() {
	if old := l.sink.c.Swap(nil); old != nil {
		old.Close()
	}
}

// With returns a child carrying fields on every event.
func (l *Logger) With(fields ...Field) *Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &Logger{zl: ctx.Logger(), sink: l.sink}
}
