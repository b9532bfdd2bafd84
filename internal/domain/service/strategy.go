package service

import (
	"context"

	"LottoStats/internal/domain/models"
)

// SuggestionStrategy produces a number set for a lottery from its draw history.
// History is ordered newest first.
type SuggestionStrategy interface {
	Name() string
	Description() string
	Suggest(ctx context.Context, cfg models.LotteryConfig, history []models.LotteryResult) (models.NumberSuggestionResult, error)
}

// StrategyInfo is the public descriptor of a registered strategy.
type StrategyInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
