package usecase

import (
	"context"
	"fmt"
	"time"

	"LottoStats/internal/domain/models"
	domrepo "LottoStats/internal/domain/repository"
	"LottoStats/internal/services/statistics"
	"LottoStats/pkg/cache"
	applogger "LottoStats/pkg/logger"
)

// StatisticsUseCase serves aggregated views over stored results.
type StatisticsUseCase struct {
	store domrepo.ResultStore
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
	now   func() time.Time
}

func NewStatisticsUseCase(store domrepo.ResultStore, c cache.Service, ttl time.Duration, l *applogger.Logger) *StatisticsUseCase {
	if l == nil {
		l = applogger.NewNop()
	}
	return &StatisticsUseCase{
		store: store,
		cache: c,
		ttl:   ttl,
		l:     l,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func statsKey(t models.LotteryType, topN int) string {
	return cache.Key("stats", t, topN)
}

func (uc *StatisticsUseCase) GetStatistics(ctx context.Context, t models.LotteryType, topN int) (*models.LotteryStatistics, error) {
	cfg, err := models.ConfigFor(t)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = statistics.DefaultTopN
	}

	key := statsKey(t, topN)
	st, _, err := cache.GetOrLoad(ctx, uc.cache, key, uc.ttl,
		func(ctx context.Context) (models.LotteryStatistics, error) {
			history, err := uc.store.Latest(ctx, t, 0)
			if err != nil {
				return models.LotteryStatistics{}, fmt.Errorf("load history: %w", err)
			}
			return statistics.Compute(history, cfg, topN, uc.now())
		},
		func(err error) {
			uc.l.Warn("statistics cache error", applogger.String("key", key), applogger.Error(err))
		})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetFrequencies returns the distribution over the trailing days ending at the latest draw.
// days <= 0 means all history.
func (uc *StatisticsUseCase) GetFrequencies(ctx context.Context, t models.LotteryType, days int) (*models.FrequencyReport, error) {
	cfg, err := models.ConfigFor(t)
	if err != nil {
		return nil, err
	}
	history, err := uc.frequencyHistory(ctx, t, days)
	if err != nil {
		return nil, err
	}
	if days < 0 {
		days = 0
	}
	return &models.FrequencyReport{
		LotteryType: t,
		Days:        days,
		TotalDraws:  len(history),
		Numbers:     statistics.Frequencies(history, cfg),
		Power:       statistics.PowerFrequencies(history, cfg),
	}, nil
}

// frequencyHistory loads all history, or only the draws inside the trailing
// window when days > 0.
func (uc *StatisticsUseCase) frequencyHistory(ctx context.Context, t models.LotteryType, days int) ([]models.LotteryResult, error) {
	if days <= 0 {
		history, err := uc.store.Latest(ctx, t, 0)
		if err != nil {
			return nil, fmt.Errorf("load history: %w", err)
		}
		return history, nil
	}
	latest, err := uc.store.Latest(ctx, t, 1)
	if err != nil {
		return nil, fmt.Errorf("load latest draw: %w", err)
	}
	if len(latest) == 0 {
		return nil, nil
	}
	ref := models.DateOnly(latest[0].Date)
	history, err := uc.store.Since(ctx, t, ref.AddDate(0, 0, -days))
	if err != nil {
		return nil, fmt.Errorf("load history since %s: %w", ref.AddDate(0, 0, -days).Format("2006-01-02"), err)
	}
	return statistics.Window(history, ref, days), nil
}

// GetPatterns analyses the most recent limit draws.
func (uc *StatisticsUseCase) GetPatterns(ctx context.Context, t models.LotteryType, limit, recent int) (*models.AdvancedPattern, error) {
	cfg, err := models.ConfigFor(t)
	if err != nil {
		return nil, err
	}
	history, err := uc.store.Latest(ctx, t, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	p, err := statistics.Patterns(history, cfg, recent)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (uc *StatisticsUseCase) GetResults(ctx context.Context, t models.LotteryType, f domrepo.ResultFilter) (*models.ResultPage, error) {
	if _, err := models.ConfigFor(t); err != nil {
		return nil, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return nil, models.NewValidationError("from", "must not be after to")
	}
	items, err := uc.store.List(ctx, t, f)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	total, err := uc.store.Count(ctx, t, f)
	if err != nil {
		return nil, fmt.Errorf("count results: %w", err)
	}
	if items == nil {
		items = []models.LotteryResult{}
	}
	return &models.ResultPage{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset}, nil
}

func (uc *StatisticsUseCase) GetResult(ctx context.Context, t models.LotteryType, id string) (*models.LotteryResult, error) {
	if _, err := models.ConfigFor(t); err != nil {
		return nil, err
	}
	return uc.store.Get(ctx, t, id)
}

// Invalidate drops every cached statistics view of t.
func (uc *StatisticsUseCase) Invalidate(ctx context.Context, t models.LotteryType) error {
	if uc.cache == nil {
		return nil
	}
	return uc.cache.DeleteByPattern(ctx, cache.Pattern("stats", t))
}
