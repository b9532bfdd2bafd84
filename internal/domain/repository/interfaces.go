package repository

import (
	"context"
	"time"

	"LottoStats/internal/domain/models"
)

// DrawStream is a live upstream feed of draws.
type DrawStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.LotteryResult, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// ResultSource pulls published results from an upstream API.
type ResultSource interface {
	Fetch(ctx context.Context, t models.LotteryType, limit int) ([]models.LotteryResult, error)
}

type DrawPublisher interface {
	Publish(ctx context.Context, r *models.LotteryResult) error
	PublishBatch(ctx context.Context, rs []*models.LotteryResult) error
	Close() error
}

type ResultStore interface {
	HistoryReader
	Init(ctx context.Context) error // ensure tables, health checks
	Save(ctx context.Context, r *models.LotteryResult) error
	SaveBatch(ctx context.Context, rs []*models.LotteryResult) error
	Exists(ctx context.Context, t models.LotteryType, id string) (bool, error)
	Get(ctx context.Context, t models.LotteryType, id string) (*models.LotteryResult, error)
	List(ctx context.Context, t models.LotteryType, f ResultFilter) ([]models.LotteryResult, error)
	Count(ctx context.Context, t models.LotteryType, f ResultFilter) (int64, error)
	Health(ctx context.Context) error // ping
	Close() error
}

type PredictionStore interface {
	Save(ctx context.Context, p *models.PredictionRecord) error
	SaveBatch(ctx context.Context, ps []*models.PredictionRecord) error
	Get(ctx context.Context, id string) (*models.PredictionRecord, error)
	List(ctx context.Context, t models.LotteryType, f PredictionFilter) ([]models.PredictionRecord, error)
	Pending(ctx context.Context, t models.LotteryType, date time.Time) ([]models.PredictionRecord, error)
	ByAlgorithm(ctx context.Context, t models.LotteryType, algorithm string) ([]models.PredictionRecord, error)
}

// DrawNotifier fans a freshly ingested draw out to live subscribers.
type DrawNotifier interface {
	NotifyDraw(ctx context.Context, r models.LotteryResult)
}

type Metrics interface {
	RecordDrawIngested(lotteryType, source string)
	RecordSuggestion(lotteryType, algorithm string)
	RecordPredictionEvaluated(lotteryType, algorithm string, matches int)
	RecordAccuracy(lotteryType, algorithm string, accuracy float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
