package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
	applogger "LottoStats/pkg/logger"
	"LottoStats/pkg/queue"
)

// Draw sources.
const (
	SourceAPI   = "api"
	SourceSync  = "sync"
	SourceFeed  = "feed"
	SourceKafka = "kafka"
)

// EnrichmentScheduler hands a new draw to prediction evaluation.
type EnrichmentScheduler interface {
	Schedule(ctx context.Context, r models.LotteryResult) error
}

// QueueEnrichment enqueues prediction.enrich jobs.
type QueueEnrichment struct {
	q queue.Publisher
}

func NewQueueEnrichment(q queue.Publisher) *QueueEnrichment { return &QueueEnrichment{q: q} }

func (s *QueueEnrichment) Schedule(ctx context.Context, r models.LotteryResult) error {
	return s.q.PublishMessage(ctx, EnrichJobType, r)
}

// DirectEnrichment evaluates predictions inline, for deployments without a queue.
type DirectEnrichment struct {
	perf *PerformanceUseCase
}

func NewDirectEnrichment(perf *PerformanceUseCase) *DirectEnrichment {
	return &DirectEnrichment{perf: perf}
}

func (s *DirectEnrichment) Schedule(ctx context.Context, r models.LotteryResult) error {
	_, err := s.perf.OnDraw(ctx, r)
	return err
}

// Ingestor is the single entry point that persists draws from every source.
// Concurrent ingests of one draw inside a process are serialized, so the feed,
// the sync job and the API cannot both see it missing and fan it out twice.
// Across replicas the table's ReplacingMergeTree engine collapses the rows.
type Ingestor struct {
	store    domrepo.ResultStore
	stats    *StatisticsUseCase
	enrich   EnrichmentScheduler
	notifier domrepo.DrawNotifier
	metrics  domrepo.Metrics
	l        *applogger.Logger

	mu       sync.Mutex
	inflight map[string]chan struct{}
}

func NewIngestor(
	store domrepo.ResultStore,
	stats *StatisticsUseCase,
	enrich EnrichmentScheduler,
	notifier domrepo.DrawNotifier,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *Ingestor {
	if l == nil {
		l = applogger.NewNop()
	}
	return &Ingestor{
		store:    store,
		stats:    stats,
		enrich:   enrich,
		notifier: notifier,
		metrics:  orNopMetrics(metrics),
		l:        l,
		inflight: make(map[string]chan struct{}),
	}
}

// claim waits until no other goroutine is ingesting key and takes it over.
func (in *Ingestor) claim(ctx context.Context, key string) (release func(), err error) {
	for {
		in.mu.Lock()
		busy, ok := in.inflight[key]
		if !ok {
			done := make(chan struct{})
			in.inflight[key] = done
			in.mu.Unlock()
			return func() {
				in.mu.Lock()
				delete(in.inflight, key)
				in.mu.Unlock()
				close(done)
			}, nil
		}
		in.mu.Unlock()
		select {
		case <-busy:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Ingest validates and stores r. created is false when a draw with the same id already exists.
func (in *Ingestor) Ingest(ctx context.Context, r models.LotteryResult, source string) (created bool, err error) {
	start := time.Now()
	r.Date = models.DateOnly(r.Date)
	if err := models.ValidateResult(r); err != nil {
		in.metrics.RecordError("ingest_invalid")
		return false, err
	}

	release, err := in.claim(ctx, string(r.LotteryType)+":"+r.ID)
	if err != nil {
		return false, err
	}
	defer release()

	exists, err := in.store.Exists(ctx, r.LotteryType, r.ID)
	if err != nil {
		in.metrics.RecordError("ingest_exists")
		return false, fmt.Errorf("check result: %w", err)
	}
	if exists {
		in.l.Debug("draw already stored",
			applogger.String("lottery", string(r.LotteryType)),
			applogger.String("id", r.ID),
			applogger.String("source", source))
		return false, nil
	}

	if err := in.store.Save(ctx, &r); err != nil {
		in.metrics.RecordError("ingest_save")
		return false, fmt.Errorf("save result: %w", err)
	}
	in.metrics.RecordDrawIngested(string(r.LotteryType), source)
	in.metrics.RecordLatency("ingest", time.Since(start).Seconds())

	if in.stats != nil {
		if err := in.stats.Invalidate(ctx, r.LotteryType); err != nil {
			in.l.Warn("statistics cache invalidate failed", applogger.Error(err))
		}
	}
	if in.notifier != nil {
		in.notifier.NotifyDraw(ctx, r)
	}
	if in.enrich != nil {
		if err := in.enrich.Schedule(ctx, r); err != nil {
			in.metrics.RecordError("enrich_schedule")
			in.l.Error("schedule enrichment failed",
				applogger.String("lottery", string(r.LotteryType)),
				applogger.String("id", r.ID),
				applogger.Error(err))
		}
	}

	in.l.Info("draw ingested",
		applogger.String("lottery", string(r.LotteryType)),
		applogger.String("id", r.ID),
		applogger.Time("date", r.Date),
		applogger.String("source", source))
	return true, nil
}

// IngestBatch ingests rs in order and returns how many were new.
// Invalid draws are logged and skipped; store errors abort.
func (in *Ingestor) IngestBatch(ctx context.Context, rs []*models.LotteryResult, source string) (int, error) {
	n := 0
	for _, r := range rs {
		if r == nil {
			continue
		}
		created, err := in.Ingest(ctx, *r, source)
		if err != nil {
			if models.IsValidation(err) {
				in.l.Warn("invalid draw skipped", applogger.String("id", r.ID), applogger.Error(err))
				continue
			}
			return n, err
		}
		if created {
			n++
		}
	}
	return n, nil
}
