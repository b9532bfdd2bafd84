package suggestion

import (
	"context"
	"fmt"

	"LottoStats/internal/domain/models"
	domsvc "LottoStats/internal/domain/service"
	"LottoStats/internal/services/statistics"
)

// FrequencyStrategy picks the hottest numbers of the recent window.
type FrequencyStrategy struct {
	settings
}

func NewFrequencyStrategy(opts ...Option) *FrequencyStrategy {
	return &FrequencyStrategy{settings: newSettings(opts)}
}

func (s *FrequencyStrategy) Name() string { return "frequency" }

func (s *FrequencyStrategy) Description() string {
	return fmt.Sprintf("Most frequently drawn numbers over the last %d draws", s.window)
}

func (s *FrequencyStrategy) Suggest(ctx context.Context, cfg models.LotteryConfig, history []models.LotteryResult) (models.NumberSuggestionResult, error) {
	if err := requireHistory(s.Name(), cfg, history); err != nil {
		return models.NumberSuggestionResult{}, err
	}
	w := recent(history, s.window)
	top := statistics.Top(statistics.Frequencies(w, cfg), cfg.NumbersCount)
	nums := numbersOf(top)

	// share of the window's draws that the picks appeared in, on average
	rate := 0.0
	for _, f := range top {
		rate += f.DrawRate
	}
	rate /= float64(len(top))

	conf := 0.15 + 0.35*coverage(history) + 0.2*rate
	reason := fmt.Sprintf("Hot numbers over the last %d draws: %s", len(w), joinInts(nums))
	return finish(cfg, s.Name(), nums, hotPower(w, cfg, nums), conf, reason, s.now())
}

var _ domsvc.SuggestionStrategy = (*FrequencyStrategy)(nil)
