package statistics

import (
	"fmt"
	"time"

	"LottoStats/internal/domain/models"
)

// DefaultTopN is used when the caller asks for a non-positive top size.
const DefaultTopN = 10

// Compute aggregates history into LotteryStatistics. Every result is validated against cfg first.
func Compute(history []models.LotteryResult, cfg models.LotteryConfig, topN int, now time.Time) (models.LotteryStatistics, error) {
	if len(history) == 0 {
		return models.LotteryStatistics{}, models.NewComputationError("statistics", fmt.Sprintf("no draws for %s", cfg.Type))
	}
	if err := validateAll(history, cfg); err != nil {
		return models.LotteryStatistics{}, err
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	if topN > cfg.MaxNumber {
		topN = cfg.MaxNumber
	}

	dist := Frequencies(history, cfg)
	from, to := Span(history)
	return models.LotteryStatistics{
		LotteryType:        cfg.Type,
		TotalDraws:         len(history),
		From:               from,
		To:                 to,
		MostFrequent:       Top(dist, topN),
		LeastFrequent:      Bottom(dist, topN),
		NumberDistribution: dist,
		PowerDistribution:  PowerFrequencies(history, cfg),
		Trends: models.Trends{
			Last30Days: Snapshot(history, cfg, to, Window30, topN),
			Last60Days: Snapshot(history, cfg, to, Window60, topN),
			Last90Days: Snapshot(history, cfg, to, Window90, topN),
		},
		GeneratedAt: now,
	}, nil
}

func validateAll(history []models.LotteryResult, cfg models.LotteryConfig) error {
	for _, r := range history {
		if err := r.Validate(cfg); err != nil {
			return fmt.Errorf("result %s: %w", r.ID, err)
		}
	}
	return nil
}
