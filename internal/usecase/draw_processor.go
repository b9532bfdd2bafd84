package usecase

import (
	"context"
	"fmt"
	"time"

	"LottoStats/internal/domain/models"
	drepo "LottoStats/internal/domain/repository"
)

// Backends a DrawProcessor can route to.
const (
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// DrawProcessor routes draws to the configured backend.
// With kafka the draw is published and the consumer ingests it; with clickhouse it is ingested directly.
type DrawProcessor struct {
	pub     drepo.DrawPublisher
	ingest  *Ingestor
	metrics drepo.Metrics
	backend string
}

func NewDrawProcessor(pub drepo.DrawPublisher, ingest *Ingestor, metrics drepo.Metrics, backend string) *DrawProcessor {
	return &DrawProcessor{
		pub:     pub,
		ingest:  ingest,
		metrics: orNopMetrics(metrics),
		backend: backend,
	}
}

func (p *DrawProcessor) Backend() string { return p.backend }

// Process routes a single draw.
func (p *DrawProcessor) Process(ctx context.Context, r *models.LotteryResult, source string) error {
	if r == nil {
		return fmt.Errorf("draw is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka publisher not configured")
			break
		}
		err = p.pub.Publish(ctx, r)
	case BackendClickHouse:
		_, err = p.ingest.Ingest(ctx, *r, source)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process draw: %w", err)
	}

	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// ProcessBatch routes several draws at once.
func (p *DrawProcessor) ProcessBatch(ctx context.Context, rs []*models.LotteryResult, source string) error {
	if len(rs) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case BackendKafka:
		if p.pub == nil {
			err = fmt.Errorf("kafka publisher not configured")
			break
		}
		err = p.pub.PublishBatch(ctx, rs)
	case BackendClickHouse:
		_, err = p.ingest.IngestBatch(ctx, rs, source)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())
	return nil
}

// Close closes the publisher if one is configured.
func (p *DrawProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
}
