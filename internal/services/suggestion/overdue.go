package suggestion

import (
	"context"
	"fmt"

	"LottoStats/internal/domain/models"
	domsvc "LottoStats/internal/domain/service"
	"LottoStats/internal/services/statistics"
)

// OverdueStrategy picks the numbers with the longest current absence.
type OverdueStrategy struct {
	settings
}

func NewOverdueStrategy(opts ...Option) *OverdueStrategy {
	return &OverdueStrategy{settings: newSettings(opts)}
}

func (s *OverdueStrategy) Name() string { return "overdue" }

func (s *OverdueStrategy) Description() string {
	return "Numbers that have gone the longest without being drawn"
}

func (s *OverdueStrategy) Suggest(ctx context.Context, cfg models.LotteryConfig, history []models.LotteryResult) (models.NumberSuggestionResult, error) {
	if err := requireHistory(s.Name(), cfg, history); err != nil {
		return models.NumberSuggestionResult{}, err
	}
	picked := statistics.MostOverdue(statistics.Gaps(history, cfg), cfg.NumbersCount)
	nums := make([]int, len(picked))
	ratio := 0.0
	for i, g := range picked {
		nums[i] = g.Number
		if g.AverageGap > 0 {
			ratio += float64(g.CurrentGap) / g.AverageGap
		}
	}
	ratio /= float64(len(picked))

	// how far past their usual absence the picks are, capped
	pressure := ratio / 4
	if pressure > 1 {
		pressure = 1
	}
	conf := 0.1 + 0.3*coverage(history) + 0.15*pressure
	reason := fmt.Sprintf("Longest current gaps: %s (max %d draws)", joinInts(nums), picked[0].CurrentGap)
	return finish(cfg, s.Name(), nums, overduePower(history, cfg, nums), conf, reason, s.now())
}

var _ domsvc.SuggestionStrategy = (*OverdueStrategy)(nil)
