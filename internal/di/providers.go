package di

import (
	"context"
	"fmt"
	"time"

	"LottoStats/internal/domain/models"
	"LottoStats/internal/domain/repository"
	"LottoStats/internal/handler/api"
	"LottoStats/internal/handler/ws"
	mid "LottoStats/internal/middleware"
	internalrepo "LottoStats/internal/repository"
	"LottoStats/internal/service/drawfeed"
	svcmetrics "LottoStats/internal/service/metrics"
	"LottoStats/internal/service/ratelimit"
	"LottoStats/internal/service/resultsource"
	"LottoStats/internal/services/suggestion"
	"LottoStats/internal/usecase"
	pkgcache "LottoStats/pkg/cache"
	pkgch "LottoStats/pkg/clickhouse"
	"LottoStats/pkg/config"
	pkgkafka "LottoStats/pkg/kafka"
	applogger "LottoStats/pkg/logger"
	"LottoStats/pkg/metrics"
	"LottoStats/pkg/queue"
	"LottoStats/pkg/server"
)

// ProvideLogger builds the application logger. When log collection is enabled,
// aggregated error logs are published to Kafka through the producer.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Logging.Collect.Enabled && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Logging.Collect.Interval,
			CountThreshold: cfg.Logging.Collect.CountThreshold,
			Topic:          cfg.Logging.Collect.Topic,
			Publisher:      internalrepo.NewKafkaLogPublisher(producer),
		})
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(cfg.ClickHouse.MaxOpenConns, cfg.ClickHouse.MaxIdleConns),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithConnectRetry(5, 2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	svcmetrics.Register()
	return metrics.New()
}

func ProvideResultStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.ResultStore {
	s := internalrepo.NewCHResultStore(ch.DB(), cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

func ProvideHistoryReader(store repository.ResultStore) repository.HistoryReader {
	return store
}

func ProvidePredictionStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.PredictionStore {
	s := internalrepo.NewCHPredictionStore(ch.DB(), cfg.ClickHouse.Database)
	s.SetLogger(l)
	return s
}

// ProvideRedisCache connects to Redis when enabled, otherwise returns nil.
func ProvideRedisCache(cfg *config.Config) (*pkgcache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	poolSize := cfg.Redis.PoolSize
	if poolSize <= 0 {
		poolSize = 10
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPool(poolSize, poolSize/4, 4*time.Second),
		pkgcache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache layers an in-memory L1 over Redis, or uses memory alone without Redis.
func ProvideCache(cfg *config.Config, rc *pkgcache.RedisCache) pkgcache.Service {
	if rc == nil {
		return pkgcache.NewMemoryCache(pkgcache.WithMemoryMaxSize(cfg.Cache.MemorySize))
	}
	return pkgcache.NewLayeredCache(rc,
		pkgcache.WithLayeredMemorySize(cfg.Cache.MemorySize),
		pkgcache.WithLayeredL1TTL(cfg.Cache.L1TTL),
	)
}

// ProvideLocker exposes the cache's lock side for jobs that must run on one replica at a time.
func ProvideLocker(c pkgcache.Service) pkgcache.Locker {
	if l, ok := c.(pkgcache.Locker); ok {
		return l
	}
	return nil
}

// ProvideQueue creates the Redis job queue, or nil when the queue is disabled.
func ProvideQueue(cfg *config.Config, l *applogger.Logger, rc *pkgcache.RedisCache, m repository.Metrics) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	mode := queue.ModeProducerConsumer
	switch cfg.Queue.Mode {
	case "producer":
		mode = queue.ModeProducerOnly
	case "consumer":
		mode = queue.ModeConsumerOnly
	}
	opts := []queue.RedisQueueOption{queue.WithKeyPrefix(cfg.Redis.Prefix + ":queue")}
	if rec, ok := m.(*metrics.Recorder); ok {
		opts = append(opts, queue.WithDepthObserver(rec.RecordQueueDepth))
	}
	return queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), mode, opts...)
}

// ProvideRegistry registers the local strategies and, when configured, the remote model.
func ProvideRegistry(cfg *config.Config) *suggestion.Registry {
	r := suggestion.NewDefaultRegistry()
	if cfg.Suggestion.RemoteURL != "" {
		r.Register(suggestion.NewRemoteStrategy(cfg.Suggestion.RemoteURL, cfg.Suggestion.Timeout, cfg.Suggestion.Attempts))
	}
	return r
}

func ProvideStatisticsUseCase(store repository.ResultStore, c pkgcache.Service, cfg *config.Config, l *applogger.Logger) *usecase.StatisticsUseCase {
	return usecase.NewStatisticsUseCase(store, c, cfg.Cache.StatisticsTTL, l)
}

func ProvideSuggestionUseCase(
	registry *suggestion.Registry,
	history repository.HistoryReader,
	predictions repository.PredictionStore,
	c pkgcache.Service,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.SuggestionUseCase {
	return usecase.NewSuggestionUseCase(registry, history, predictions, c, m, l, cfg.Suggestion.HistoryLimit, cfg.Suggestion.Timeout*time.Duration(cfg.Suggestion.Attempts+1))
}

func ProvidePerformanceUseCase(
	predictions repository.PredictionStore,
	registry *suggestion.Registry,
	c pkgcache.Service,
	cfg *config.Config,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PerformanceUseCase {
	return usecase.NewPerformanceUseCase(predictions, registry, c, cfg.Cache.PerformanceTTL, m, l)
}

func ProvideEnrichJob(perf *usecase.PerformanceUseCase) *usecase.EnrichJob {
	return usecase.NewEnrichJob(perf)
}

// ProvideEnrichmentScheduler queues enrichment when a queue exists and runs it inline otherwise.
func ProvideEnrichmentScheduler(q *queue.RedisQueue, perf *usecase.PerformanceUseCase) usecase.EnrichmentScheduler {
	if q != nil {
		return usecase.NewQueueEnrichment(q)
	}
	return usecase.NewDirectEnrichment(perf)
}

func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

func ProvideIngestor(
	store repository.ResultStore,
	stats *usecase.StatisticsUseCase,
	enrich usecase.EnrichmentScheduler,
	hub *ws.Hub,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Ingestor {
	return usecase.NewIngestor(store, stats, enrich, hub, m, l)
}

// ProvideDrawPublisher publishes draws to Kafka when the kafka backend is selected.
func ProvideDrawPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.DrawPublisher {
	if producer == nil || cfg.Backend.Type != usecase.BackendKafka {
		return nil
	}
	return internalrepo.NewKafkaDrawPublisher(producer, cfg.Kafka.Topic)
}

func ProvideDrawProcessor(pub repository.DrawPublisher, ingest *usecase.Ingestor, m repository.Metrics, cfg *config.Config) *usecase.DrawProcessor {
	return usecase.NewDrawProcessor(pub, ingest, m, cfg.Backend.Type)
}

// ProvideKafkaConsumer creates the draws consumer, or nil when consumption is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.DrawLoggingHook(l, cfg.Server.SlowRequest)))
	return consumer, nil
}

func ProvideKafkaDrawsHandler(ingest *usecase.Ingestor, m repository.Metrics, cfg *config.Config) *usecase.KafkaDrawsHandler {
	return usecase.NewKafkaDrawsHandler(cfg.Kafka.Topic, ingest, m)
}

func enabledLotteries(cfg *config.Config) []models.LotteryType {
	out := make([]models.LotteryType, 0, len(cfg.Lotteries))
	for _, s := range cfg.Lotteries {
		if t, err := models.ParseLotteryType(s); err == nil {
			out = append(out, t)
		}
	}
	return out
}

// ProvideDrawCollector wires the live feed through the draw pipeline, or returns nil when the feed is off.
func ProvideDrawCollector(
	cfg *config.Config,
	proc *usecase.DrawProcessor,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.DrawCollector {
	if !cfg.Feed.Enabled {
		return nil
	}
	stream := drawfeed.New(
		cfg.Feed.APIKey,
		cfg.Feed.WebSocketURL,
		enabledLotteries(cfg),
		cfg.Feed.ReconnectDelay,
		cfg.Feed.PingInterval,
		l,
	)
	pipe := mid.NewDrawPipeline(proc, m,
		mid.WithSource(usecase.SourceFeed),
	)
	return usecase.NewDrawCollector(stream, proc, m, pipe, l)
}

// ProvideResultSync builds the scheduled results pull, or nil without a source URL.
func ProvideResultSync(cfg *config.Config, proc *usecase.DrawProcessor, locker pkgcache.Locker, l *applogger.Logger) (*usecase.ResultSync, error) {
	if cfg.Sync.SourceURL == "" {
		return nil, nil
	}
	source := resultsource.New(cfg.Sync.SourceURL, cfg.Feed.APIKey, cfg.Sync.Timeout)
	rs, err := usecase.NewResultSync(
		source,
		proc,
		enabledLotteries(cfg),
		cfg.Sync.Limit,
		cfg.Sync.Schedule,
		cfg.Sync.Timezone,
		cfg.Sync.Timeout,
		l,
	)
	if err != nil {
		return nil, err
	}
	rs.SetLocker(locker)
	return rs, nil
}

// ProvideHTTPHandler assembles the REST and WebSocket routes.
func ProvideHTTPHandler(
	cfg *config.Config,
	l *applogger.Logger,
	stats *usecase.StatisticsUseCase,
	suggest *usecase.SuggestionUseCase,
	perf *usecase.PerformanceUseCase,
	ingest *usecase.Ingestor,
	rs *usecase.ResultSync,
	store repository.ResultStore,
	hub *ws.Hub,
) *api.LotteryEchoHandler {
	var sync api.SyncService
	if rs != nil {
		sync = rs
	}
	return api.NewLotteryEchoHandler(l, stats, suggest, perf, ingest, sync, store, hub.Handle, ratelimit.New(), api.RateLimit{
		Capacity: float64(cfg.Suggestion.RateLimit.Capacity),
		Refill:   cfg.Suggestion.RateLimit.Refill,
	})
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	handler *api.LotteryEchoHandler,
	hub *ws.Hub,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	rc *pkgcache.RedisCache,
	q *queue.RedisQueue,
	job *usecase.EnrichJob,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaDrawsHandler,
	proc *usecase.DrawProcessor,
	collector *usecase.DrawCollector,
	rs *usecase.ResultSync,
) *server.App {
	app := server.New(cfg, l, handler, ch)
	app.SetHub(hub)
	app.SetProcessor(proc)
	if producer != nil {
		app.AddCloser("kafka producer", producer.Close)
	}
	if rc != nil {
		app.AddCloser("redis", rc.Close)
	}
	if q != nil {
		q.RegisterJob(job)
		app.SetQueue(q)
	}
	if consumer != nil {
		app.SetConsumer(consumer, kh)
	}
	if collector != nil {
		app.SetCollector(collector)
	}
	if rs != nil && cfg.Sync.Enabled {
		app.SetSync(rs)
	}
	return app
}
