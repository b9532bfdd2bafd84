package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
	"LottoStats/internal/services/performance"
	"LottoStats/pkg/cache"
	applogger "LottoStats/pkg/logger"
	"LottoStats/pkg/queue"
)

// EnrichJobType is the queue message type carrying a freshly ingested draw.
const EnrichJobType = "prediction.enrich"

// AlgorithmLister exposes the names of the registered strategies.
type AlgorithmLister interface {
	List() []string
}

// PerformanceUseCase evaluates predictions against real draws and serves per-algorithm rollups.
type PerformanceUseCase struct {
	predictions domrepo.PredictionStore
	algorithms  AlgorithmLister
	cache       cache.Service
	ttl         time.Duration
	metrics     domrepo.Metrics
	l           *applogger.Logger
	now         func() time.Time
}

func NewPerformanceUseCase(
	predictions domrepo.PredictionStore,
	algorithms AlgorithmLister,
	c cache.Service,
	ttl time.Duration,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *PerformanceUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &PerformanceUseCase{
		predictions: predictions,
		algorithms:  algorithms,
		cache:       c,
		ttl:         ttl,
		metrics:     orNopMetrics(metrics),
		l:           l,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func perfKey(t models.LotteryType, algorithm string) string {
	return cache.Key("perf", t, algorithm)
}

// OnDraw enriches the pending predictions targeting r's date and refreshes the affected rollups.
// It returns the number of predictions evaluated.
func (uc *PerformanceUseCase) OnDraw(ctx context.Context, r models.LotteryResult) (int, error) {
	cfg, err := models.ConfigFor(r.LotteryType)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	pending, err := uc.predictions.Pending(ctx, cfg.Type, r.Date)
	if err != nil {
		return 0, fmt.Errorf("load pending predictions: %w", err)
	}
	if len(pending) == 0 {
		return 0, nil
	}

	now := uc.now()
	enriched := make([]*models.PredictionRecord, 0, len(pending))
	affected := map[string]struct{}{}
	for i := range pending {
		p := &pending[i]
		if err := p.Enrich(r, cfg, now); err != nil {
			if errors.Is(err, models.ErrAlreadyEnriched) {
				uc.l.Debug("prediction already enriched", applogger.String("prediction_id", p.ID))
				continue
			}
			uc.l.Warn("prediction enrich failed",
				applogger.String("prediction_id", p.ID),
				applogger.String("draw_id", r.ID),
				applogger.Error(err))
			continue
		}
		enriched = append(enriched, p)
		affected[p.Algorithm] = struct{}{}
		uc.metrics.RecordPredictionEvaluated(string(cfg.Type), p.Algorithm, *p.Matches)
	}
	if len(enriched) == 0 {
		return 0, nil
	}
	if err := uc.predictions.SaveBatch(ctx, enriched); err != nil {
		uc.metrics.RecordError("prediction_save")
		return 0, fmt.Errorf("save enriched predictions: %w", err)
	}

	names := make([]string, 0, len(affected))
	for a := range affected {
		names = append(names, a)
	}
	sort.Strings(names)
	for _, a := range names {
		if _, err := uc.refresh(ctx, cfg.Type, a); err != nil {
			uc.l.Warn("performance rollup failed", applogger.String("algorithm", a), applogger.Error(err))
		}
	}

	uc.metrics.RecordLatency("enrich", time.Since(start).Seconds())
	uc.l.Info("predictions evaluated",
		applogger.String("lottery", string(cfg.Type)),
		applogger.String("draw_id", r.ID),
		applogger.Int("count", len(enriched)),
		applogger.Strings("algorithms", names),
	)
	return len(enriched), nil
}

// GetPerformance returns one rollup per registered algorithm, sorted by name.
func (uc *PerformanceUseCase) GetPerformance(ctx context.Context, t models.LotteryType) ([]models.AlgorithmPerformance, error) {
	if _, err := models.ConfigFor(t); err != nil {
		return nil, err
	}
	names := uc.algorithms.List()
	out := make([]models.AlgorithmPerformance, 0, len(names))
	for _, a := range names {
		if uc.cache != nil {
			var cached models.AlgorithmPerformance
			if err := uc.cache.Get(ctx, perfKey(t, a), &cached); err == nil {
				out = append(out, cached)
				continue
			}
		}
		perf, err := uc.refresh(ctx, t, a)
		if err != nil {
			return nil, err
		}
		out = append(out, perf)
	}
	return out, nil
}

func (uc *PerformanceUseCase) refresh(ctx context.Context, t models.LotteryType, algorithm string) (models.AlgorithmPerformance, error) {
	records, err := uc.predictions.ByAlgorithm(ctx, t, algorithm)
	if err != nil {
		return models.AlgorithmPerformance{}, fmt.Errorf("load predictions for %s: %w", algorithm, err)
	}
	perf := performance.Rollup(algorithm, t, records, uc.now())
	if perf.EvaluatedPredictions > 0 {
		uc.metrics.RecordAccuracy(string(t), algorithm, perf.Accuracy)
	}
	if uc.cache != nil {
		if err := uc.cache.Set(ctx, perfKey(t, algorithm), perf, uc.ttl); err != nil {
			uc.l.Warn("performance cache set failed", applogger.String("algorithm", algorithm), applogger.Error(err))
		}
	}
	return perf, nil
}

// EnrichJob runs OnDraw for draws delivered through the job queue.
type EnrichJob struct {
	uc *PerformanceUseCase
}

func NewEnrichJob(uc *PerformanceUseCase) *EnrichJob { return &EnrichJob{uc: uc} }

func (j *EnrichJob) Name() string { return "EnrichPredictions" }
func (j *EnrichJob) Type() string { return EnrichJobType }

func (j *EnrichJob) Handle(ctx context.Context, payload interface{}) error {
	r, err := queue.ParsePayload[models.LotteryResult](payload)
	if err != nil {
		return queue.Permanent(err)
	}
	if r.LotteryType == "" || r.ID == "" {
		return queue.Permanent(fmt.Errorf("enrich payload missing lottery type or draw id"))
	}
	_, err = j.uc.OnDraw(ctx, *r)
	return err
}

var _ queue.Job = (*EnrichJob)(nil)
