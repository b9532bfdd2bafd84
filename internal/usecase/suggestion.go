package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
	domsvc "LottoStats/internal/domain/service"
	"LottoStats/internal/services/suggestion"
	"LottoStats/pkg/cache"
	applogger "LottoStats/pkg/logger"
)

const (
	defaultHistoryLimit    = 200
	defaultStrategyTimeout = 10 * time.Second
)

// SuggestionUseCase runs strategies over recent history and logs every output as a prediction.
type SuggestionUseCase struct {
	registry     *suggestion.Registry
	results      domrepo.HistoryReader
	predictions  domrepo.PredictionStore
	cache        cache.Service
	metrics      domrepo.Metrics
	l            *applogger.Logger
	historyLimit int
	timeout      time.Duration
	now          func() time.Time
	newID        func() string
}

func NewSuggestionUseCase(
	registry *suggestion.Registry,
	results domrepo.HistoryReader,
	predictions domrepo.PredictionStore,
	c cache.Service,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	historyLimit int,
	timeout time.Duration,
) *SuggestionUseCase {
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	if timeout <= 0 {
		timeout = defaultStrategyTimeout
	}
	if l == nil {
		l = applogger.NewNop()
	}
	return &SuggestionUseCase{
		registry:     registry,
		results:      results,
		predictions:  predictions,
		cache:        c,
		metrics:      orNopMetrics(metrics),
		l:            l,
		historyLimit: historyLimit,
		timeout:      timeout,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        uuid.NewString,
	}
}

func (uc *SuggestionUseCase) Algorithms() []domsvc.StrategyInfo {
	return uc.registry.Describe()
}

// Generate runs one strategy. A zero targetDate means the next scheduled draw.
func (uc *SuggestionUseCase) Generate(ctx context.Context, t models.LotteryType, algorithm string, targetDate time.Time) (*models.Suggestion, error) {
	cfg, err := models.ConfigFor(t)
	if err != nil {
		return nil, err
	}
	strategy, err := uc.registry.Get(algorithm)
	if err != nil {
		return nil, err
	}
	history, err := uc.results.Latest(ctx, t, uc.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return uc.run(ctx, strategy, cfg, history, uc.target(cfg, targetDate))
}

// GenerateAll runs every registered strategy concurrently. Failing strategies are
// reported in Errors and do not fail the call.
func (uc *SuggestionUseCase) GenerateAll(ctx context.Context, t models.LotteryType, targetDate time.Time) (*models.SuggestionSet, error) {
	cfg, err := models.ConfigFor(t)
	if err != nil {
		return nil, err
	}
	history, err := uc.results.Latest(ctx, t, uc.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	target := uc.target(cfg, targetDate)

	names := uc.registry.List()
	out := make([]*models.Suggestion, len(names))
	res := &models.SuggestionSet{
		LotteryType: t,
		TargetDate:  target,
		Errors:      map[string]string{},
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			strategy, err := uc.registry.Get(name)
			if err == nil {
				cctx, cancel := context.WithTimeout(gctx, uc.timeout)
				out[i], err = uc.run(cctx, strategy, cfg, history, target)
				cancel()
			}
			if err != nil {
				mu.Lock()
				res.Errors[name] = err.Error()
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	res.Suggestions = make([]models.Suggestion, 0, len(out))
	for _, s := range out {
		if s != nil {
			res.Suggestions = append(res.Suggestions, *s)
		}
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

func (uc *SuggestionUseCase) run(ctx context.Context, s domsvc.SuggestionStrategy, cfg models.LotteryConfig, history []models.LotteryResult, target time.Time) (*models.Suggestion, error) {
	start := time.Now()
	out, err := s.Suggest(ctx, cfg, history)
	if err != nil {
		uc.metrics.RecordError("suggest")
		return nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	if out.Algorithm == "" {
		out.Algorithm = s.Name()
	}
	if out.LotteryType == "" {
		out.LotteryType = cfg.Type
	}
	out.Confidence = models.ClampConfidence(out.Confidence)

	rec := models.NewPredictionRecord(uc.newID(), out, target, uc.now())
	if err := uc.predictions.Save(ctx, &rec); err != nil {
		uc.metrics.RecordError("prediction_save")
		return nil, fmt.Errorf("save prediction: %w", err)
	}
	// the rollup counts pending predictions too
	if uc.cache != nil {
		if err := uc.cache.Delete(ctx, perfKey(cfg.Type, out.Algorithm)); err != nil {
			uc.l.Warn("performance cache invalidate failed",
				applogger.String("algorithm", out.Algorithm), applogger.Error(err))
		}
	}

	uc.metrics.RecordSuggestion(string(cfg.Type), out.Algorithm)
	uc.metrics.RecordLatency("suggest", time.Since(start).Seconds())
	uc.l.Debug("suggestion generated",
		applogger.String("lottery", string(cfg.Type)),
		applogger.String("algorithm", out.Algorithm),
		applogger.String("prediction_id", rec.ID),
		applogger.Float64("confidence", out.Confidence),
	)
	return &models.Suggestion{Suggestion: out, PredictionID: rec.ID}, nil
}

func (uc *SuggestionUseCase) target(cfg models.LotteryConfig, targetDate time.Time) time.Time {
	if targetDate.IsZero() {
		return cfg.NextDrawDate(uc.now())
	}
	return models.DateOnly(targetDate)
}

func (uc *SuggestionUseCase) ListPredictions(ctx context.Context, t models.LotteryType, f domrepo.PredictionFilter) ([]models.PredictionRecord, error) {
	if _, err := models.ConfigFor(t); err != nil {
		return nil, err
	}
	ps, err := uc.predictions.List(ctx, t, f)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	if ps == nil {
		ps = []models.PredictionRecord{}
	}
	return ps, nil
}

func (uc *SuggestionUseCase) GetPrediction(ctx context.Context, id string) (*models.PredictionRecord, error) {
	return uc.predictions.Get(ctx, id)
}
