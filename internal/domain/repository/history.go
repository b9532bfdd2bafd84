package repository

import (
	"context"
	"time"

	"LottoStats/internal/domain/models"
)

// HistoryReader provides read-only access to draw history for the statistics and suggestion engines.
type HistoryReader interface {
	// Latest returns up to n most recent results, newest first. n <= 0 means all.
	Latest(ctx context.Context, t models.LotteryType, n int) ([]models.LotteryResult, error)
	// Since returns every result drawn on or after from, newest first.
	Since(ctx context.Context, t models.LotteryType, from time.Time) ([]models.LotteryResult, error)
}

// ResultFilter narrows a paginated result listing. Zero times are open bounds.
type ResultFilter struct {
	From   time.Time
	To     time.Time
	Limit  int
	Offset int
}

// PredictionFilter narrows a prediction listing.
type PredictionFilter struct {
	Algorithm string
	Status    string
	Limit     int
}
