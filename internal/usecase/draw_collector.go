package usecase

import (
	"context"

	"LottoStats/internal/domain/models"
	drepo "LottoStats/internal/domain/repository"
	mid "LottoStats/internal/middleware"
	applogger "LottoStats/pkg/logger"
)

// DrawCollector reads draws from the live feed and processes them.
type DrawCollector struct {
	stream  drepo.DrawStream
	proc    *DrawProcessor
	metrics drepo.Metrics
	pipe    *mid.DrawPipeline
	l       *applogger.Logger
}

func NewDrawCollector(stream drepo.DrawStream, proc *DrawProcessor, metrics drepo.Metrics, pipe *mid.DrawPipeline, l *applogger.Logger) *DrawCollector {
	if l == nil {
		l = applogger.NewNop()
	}
	return &DrawCollector{stream: stream, proc: proc, metrics: orNopMetrics(metrics), pipe: pipe, l: l}
}

// IsConnected returns true if the feed is connected.
func (c *DrawCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *DrawCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	rCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, rCh, errCh)
	return nil
}

func (c *DrawCollector) consume(ctx context.Context, rCh <-chan *models.LotteryResult, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
				c.l.Warn("draw feed error, reconnecting", applogger.Error(err))
				if rerr := c.stream.Reconnect(ctx); rerr != nil {
					c.l.Error("draw feed reconnect failed", applogger.Error(rerr))
				}
			}
		case r, ok := <-rCh:
			if !ok {
				return
			}
			if r == nil {
				continue
			}
			var err error
			if c.pipe != nil {
				err = c.pipe.Process(ctx, r)
			} else {
				err = c.proc.Process(ctx, r, SourceFeed)
			}
			if err != nil {
				c.l.Warn("draw from feed not processed",
					applogger.String("lottery", string(r.LotteryType)),
					applogger.String("id", r.ID),
					applogger.Error(err))
			}
		}
	}
}

func (c *DrawCollector) Stop() error { return c.stream.Close() }

// Processor returns the underlying DrawProcessor for lifecycle management.
func (c *DrawCollector) Processor() *DrawProcessor { return c.proc }

// Shutdown stops the pipeline and closes the stream.
func (c *DrawCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
