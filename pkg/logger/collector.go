package logger

import (
	"context"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"sync"
	"time"
)

// Publisher ships a batch of aggregated entries; the Kafka producer adapter implements it.
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration
	CountThreshold int
	Topic          string
	Publisher      Publisher
	// OnPublishError is called when a batch cannot be shipped. Defaults to a line on stderr.
	OnPublishError func(err error, dropped int)
}

// AggregatedLogEntry counts identical warnings and errors between two flushes.
type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector groups entries by level, message, caller and fields, and
// publishes the groups every TimeInterval or once CountThreshold distinct
// groups are pending. Close flushes what is left and waits for every publish.
type LogCollector struct {
	cfg CollectionConfig

	mu      sync.Mutex
	pending map[uint64]*AggregatedLogEntry

	stop     chan struct{}
	stopOnce sync.Once
	loop     sync.WaitGroup
	inflight sync.WaitGroup
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := CollectionConfig{}
	if config != nil {
		cfg = *config
	}
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = 30 * time.Second
	}
	if cfg.CountThreshold <= 0 {
		cfg.CountThreshold = 100
	}
	if cfg.OnPublishError == nil {
		cfg.OnPublishError = func(err error, dropped int) {
			fmt.Fprintf(os.Stderr, "logger: dropped %d aggregated entries: %v\n", dropped, err)
		}
	}

	c := &LogCollector{
		cfg:     cfg,
		pending: make(map[uint64]*AggregatedLogEntry),
		stop:    make(chan struct{}),
	}
	c.loop.Add(1)
	go c.run()
	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.pending[key]; ok {
		e.Count++
		e.LastSeen = now
		return
	}
	c.pending[key] = &AggregatedLogEntry{
		Level:     level,
		Message:   message,
		Fields:    fields,
		Caller:    caller,
		Count:     1,
		FirstSeen: now,
		LastSeen:  now,
	}
	if len(c.pending) >= c.cfg.CountThreshold {
		c.flushLocked()
	}
}

// Pending reports how many distinct groups wait for the next flush.
func (c *LogCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *LogCollector) run() {
	defer c.loop.Done()
	ticker := time.NewTicker(c.cfg.TimeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.stop:
			c.flush()
			return
		}
	}
}

func (c *LogCollector) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flushLocked()
}

// flushLocked hands the current groups to a publishing goroutine, most frequent first.
func (c *LogCollector) flushLocked() {
	if len(c.pending) == 0 {
		return
	}
	batch := make([]AggregatedLogEntry, 0, len(c.pending))
	for _, e := range c.pending {
		batch = append(batch, *e)
	}
	c.pending = make(map[uint64]*AggregatedLogEntry)
	sort.Slice(batch, func(i, j int) bool {
		if batch[i].Count != batch[j].Count {
			return batch[i].Count > batch[j].Count
		}
		return batch[i].FirstSeen.Before(batch[j].FirstSeen)
	})

	if c.cfg.Publisher == nil {
		return
	}
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.cfg.Publisher.PublishMessage(ctx, c.cfg.Topic, batch); err != nil {
			c.cfg.OnPublishError(err, len(batch))
		}
	}()
}

// Close is safe to call more than once.
func (c *LogCollector) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.loop.Wait()
	c.inflight.Wait()
}

func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s\x00%s", level, message, caller)
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(h, "\x00%s=%v", k, fields[k])
	}
	return h.Sum64()
}
