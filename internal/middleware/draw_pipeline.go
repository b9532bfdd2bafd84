package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, r *models.LotteryResult, source string) error
}

// DrawPipeline sits between the live feed and the processor.
// It validates, drops repeats, and buffers when downstream is unavailable.
// Every valid draw it has not seen is either forwarded or buffered; a draw
// that fits nowhere is forgotten again so a redelivery is not mistaken for a repeat.
type DrawPipeline struct {
	proc    Proc
	metrics domrepo.Metrics
	source  string

	bufSize  int
	seenSize int
	bufCh    chan *models.LotteryResult
	stopCh   chan struct{}
	started  bool

	mu       sync.Mutex
	seen     map[string]struct{}
	seenFIFO []string
	now      func() time.Time
}

type PipelineOption func(*DrawPipeline)

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *DrawPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithDedupeWindow sets how many recent draw ids are remembered.
func WithDedupeWindow(n int) PipelineOption {
	return func(p *DrawPipeline) {
		if n > 0 {
			p.seenSize = n
		}
	}
}

// WithSource sets the source label passed downstream.
func WithSource(source string) PipelineOption {
	return func(p *DrawPipeline) { p.source = source }
}

func NewDrawPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *DrawPipeline {
	p := &DrawPipeline{
		proc:     proc,
		metrics:  metrics,
		source:   "feed",
		bufSize:  256,
		seenSize: 1024,
		stopCh:   make(chan struct{}),
		seen:     make(map[string]struct{}),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.bufCh = make(chan *models.LotteryResult, p.bufSize)
	return p
}

// Start launches background flushing of buffered draws.
func (p *DrawPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 100 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			case r := <-p.bufCh:
				if r == nil {
					continue
				}
				if err := p.proc.Process(ctx, r, p.source); err != nil {
					if backoff < 5*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					select {
					case p.bufCh <- r:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
						p.forget(seenKey(r))
					}
				} else {
					backoff = 100 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *DrawPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Buffered returns the number of draws waiting for a retry.
func (p *DrawPipeline) Buffered() int { return len(p.bufCh) }

// Process validates and dedupes r, then forwards it downstream, buffering on errors.
// A repeat returns nil. A draw that could not be forwarded nor buffered returns
// an error and is not remembered, so the caller may redeliver it.
func (p *DrawPipeline) Process(ctx context.Context, r *models.LotteryResult) error {
	start := p.now()
	if r == nil {
		p.metrics.RecordError("pipeline_validate")
		return fmt.Errorf("draw nil")
	}
	r.Date = models.DateOnly(r.Date)
	if err := models.ValidateResult(*r); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	key := seenKey(r)
	if !p.admit(key) {
		return nil
	}

	if err := p.proc.Process(ctx, r, p.source); err != nil {
		p.metrics.RecordError("pipeline_process")
		select {
		case p.bufCh <- r:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
			p.forget(key)
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func seenKey(r *models.LotteryResult) string {
	return string(r.LotteryType) + ":" + r.ID
}

// admit reports whether key is new and marks it seen.
func (p *DrawPipeline) admit(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, dup := p.seen[key]; dup {
		p.metrics.RecordError("pipeline_duplicate")
		return false
	}
	p.seen[key] = struct{}{}
	p.seenFIFO = append(p.seenFIFO, key)
	if len(p.seenFIFO) > p.seenSize {
		delete(p.seen, p.seenFIFO[0])
		p.seenFIFO = p.seenFIFO[1:]
	}
	return true
}

func (p *DrawPipeline) forget(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.seen, key)
	for i, k := range p.seenFIFO {
		if k == key {
			p.seenFIFO = append(p.seenFIFO[:i], p.seenFIFO[i+1:]...)
			break
		}
	}
}
