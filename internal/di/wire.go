//go:build wireinject
// +build wireinject

package di

import (
	"LottoStats/pkg/config"
	"LottoStats/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideCache,
		ProvideLocker,
		ProvideQueue,

		// Repositories
		ProvideResultStore,
		ProvideHistoryReader,
		ProvidePredictionStore,
		ProvideDrawPublisher,

		// Engines and use cases
		ProvideRegistry,
		ProvideStatisticsUseCase,
		ProvideSuggestionUseCase,
		ProvidePerformanceUseCase,
		ProvideEnrichJob,
		ProvideEnrichmentScheduler,
		ProvideHub,
		ProvideIngestor,
		ProvideDrawProcessor,
		ProvideKafkaConsumer,
		ProvideKafkaDrawsHandler,
		ProvideDrawCollector,
		ProvideResultSync,

		// Transport and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
