package di

import (
	"context"
	"fmt"
	"time"

	domrepo "StableBench/internal/domain/repository"
	domsvc "StableBench/internal/domain/service"
	"StableBench/internal/handler/api"
	mid "StableBench/internal/middleware"
	internalrepo "StableBench/internal/repository"
	icache "StableBench/internal/service/cache"
	"StableBench/internal/service/feed"
	"StableBench/internal/services/scoring"
	"StableBench/internal/usecase"
	pkgcache "StableBench/pkg/cache"
	pkgch "StableBench/pkg/clickhouse"
	"StableBench/pkg/config"
	pkghttp "StableBench/pkg/http"
	pkgkafka "StableBench/pkg/kafka"
	applogger "StableBench/pkg/logger"
	"StableBench/pkg/metrics"
	"StableBench/pkg/queue"
	"StableBench/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes
// the benchmark schema. Returns nil when ClickHouse is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSnapshotStore creates the benchmark history store. Nil when
// ClickHouse is disabled; the engine then keeps history in memory only.
func ProvideSnapshotStore(chClient *pkgch.Client, logger *applogger.Logger) (domrepo.SnapshotStore, error) {
	if chClient == nil {
		return nil, nil
	}
	store := internalrepo.NewCHSnapshotStore(chClient)
	store.SetLogger(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideKafkaProducer creates a Kafka producer. Nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
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

// ProvideTickPublisher creates the snapshot topic publisher.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.SnapshotsTopic)
}

// ProvideKafkaConsumer creates the observation intake consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.ObservationsTopic == "" {
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
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisClient creates the shared Redis client. Nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideLatestStore distributes the latest tick through Redis.
func ProvideLatestStore(cfg *config.Config, logger *applogger.Logger) (domrepo.LatestStore, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(cfg.Redis.Host),
		pkgcache.WithRedisPort(cfg.Redis.Port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	layered := pkgcache.NewLayeredCache(rc)
	return internalrepo.NewRedisLatestStore(layered, cfg.Redis.LatestTTL), nil
}

// ProvideJobQueue creates the Redis queue carrying reconstitution jobs.
func ProvideJobQueue(cfg *config.Config, logger *applogger.Logger, rdb *redis.Client) *queue.RedisQueue {
	if rdb == nil {
		return nil
	}
	return queue.NewRedisQueue(logger, &queue.QueueConfig{
		Workers:    cfg.Reconstitute.Workers,
		RetryLimit: cfg.Reconstitute.RetryLimit,
		RetryDelay: cfg.Reconstitute.RetryDelay,
	}, rdb, queue.ModeProducerConsumer)
}

// ProvideFeed selects the observation source from configuration.
func ProvideFeed(cfg *config.Config, logger *applogger.Logger) domrepo.ObservationSource {
	if cfg.Feed.Mode == "synthetic" {
		return feed.NewSyntheticFeed(feed.SyntheticConfig{
			Symbols:  cfg.Engine.Universe,
			Interval: cfg.Feed.Synthetic.Interval,
			Seed:     cfg.Feed.Synthetic.Seed,
		}, logger)
	}
	return feed.NewLiveFeed(feed.LiveConfig{
		WebsocketURL:    cfg.Feed.WebSocketURL,
		APIKey:          cfg.Feed.APIKey,
		Symbols:         cfg.Engine.Universe,
		ReconnectDelay:  cfg.Feed.ReconnectDelay,
		PingInterval:    cfg.Feed.PingInterval,
		MetadataURL:     cfg.Feed.MetadataURL,
		MetadataRefresh: cfg.Feed.MetadataRefresh,
	}, pkghttp.NewClient(), logger)
}

// ProvidePegScorer creates the peg stability scorer.
func ProvidePegScorer(cfg *config.Config) domsvc.PegScorer {
	return scoring.NewPegScorer(scoring.PegConfig{
		DepegThresholdBps:  cfg.Peg.DepegThresholdBps,
		DevScaleBps:        cfg.Peg.DevScaleBps,
		VolScaleBps:        cfg.Peg.VolScaleBps,
		VolWindow:          cfg.Peg.VolWindow,
		QuoteFreshness:     cfg.Peg.QuoteFreshness,
		MinConfidentVenues: cfg.Peg.MinConfidentVenues,
	})
}

// ProvideLiquidityScorer creates the liquidity scorer.
func ProvideLiquidityScorer(cfg *config.Config) domsvc.LiquidityScorer {
	return scoring.NewLiquidityScorer(scoring.LiquidityConfig{
		Capacity:         cfg.Liquidity.Capacity,
		DefaultCapacity:  cfg.Liquidity.DefaultCapacity,
		SpreadCeilingBps: cfg.Liquidity.SpreadCeilingBps,
		VenuesExpected:   cfg.Liquidity.VenuesExpected,
	})
}

// ProvideYieldAdjuster creates the risk-adjusted yield calculator.
func ProvideYieldAdjuster(cfg *config.Config) domsvc.YieldAdjuster {
	return scoring.NewYieldAdjuster(scoring.YieldConfig{
		Alpha: cfg.Yield.Alpha,
		Beta:  cfg.Yield.Beta,
	})
}

// ProvideStressIndexer creates the stress indexer.
func ProvideStressIndexer(cfg *config.Config) domsvc.StressIndexer {
	return scoring.NewStressIndexer(scoring.StressConfig{
		Alpha:     cfg.Stress.Alpha,
		KurtScale: cfg.Stress.KurtScale,
		HighLevel: cfg.Stress.HighLevel,
		LowLevel:  cfg.Stress.LowLevel,
	})
}

// ProvideRegimeClassifier creates the regime state machine.
func ProvideRegimeClassifier(cfg *config.Config) domsvc.RegimeClassifier {
	return scoring.NewRegimeClassifier(scoring.RegimeConfig{
		RiskFreeRate:  cfg.Regime.RiskFreeRate,
		HistoryWindow: cfg.Regime.HistoryWindow,
		SlopePeriods:  cfg.Regime.SlopePeriods,
	})
}

// ProvideEngine creates the benchmark engine.
func ProvideEngine(
	cfg *config.Config,
	pegs domsvc.PegScorer,
	liqs domsvc.LiquidityScorer,
	yields domsvc.YieldAdjuster,
	stress domsvc.StressIndexer,
	regime domsvc.RegimeClassifier,
	store domrepo.SnapshotStore,
	pub domrepo.Publisher,
	latest domrepo.LatestStore,
	m domrepo.Metrics,
	logger *applogger.Logger,
) *usecase.BenchmarkEngine {
	return usecase.NewBenchmarkEngine(usecase.EngineConfig{
		TickInterval:      cfg.Engine.TickInterval,
		TickDeadline:      cfg.Engine.TickDeadline,
		ObservationMaxAge: cfg.Engine.ObservationMaxAge,
		StatsWindow:       cfg.Engine.StatsWindow,
		Universe:          cfg.Engine.Universe,
	}, pegs, liqs, yields, stress, regime, store, pub, latest, m, logger)
}

// ProvideIngestPipeline builds the validation pipeline in front of the engine.
func ProvideIngestPipeline(
	cfg *config.Config,
	engine *usecase.BenchmarkEngine,
	m domrepo.Metrics,
	store domrepo.SnapshotStore,
	logger *applogger.Logger,
) *mid.IngestPipeline {
	opts := []mid.PipelineOption{
		mid.WithMaxRPS(cfg.Ingest.MaxRPS),
		mid.WithBufferSize(cfg.Ingest.BufferSize),
	}
	if store != nil {
		opts = append(opts, mid.WithAuditor(internalrepo.NewStoreRejectionAuditor(store, logger)))
	}
	return mid.NewIngestPipeline(engine, m, opts...)
}

// ProvideCollector creates the feed collector.
func ProvideCollector(
	source domrepo.ObservationSource,
	engine *usecase.BenchmarkEngine,
	m domrepo.Metrics,
	pipe *mid.IngestPipeline,
) *usecase.ObservationCollector {
	return usecase.NewObservationCollector(source, engine, m, pipe)
}

// ProvideObservationsHandler registers the Kafka intake handler.
func ProvideObservationsHandler(cfg *config.Config, pipe *mid.IngestPipeline, m domrepo.Metrics) *usecase.KafkaObservationsHandler {
	return usecase.NewKafkaObservationsHandler(cfg.Kafka.ObservationsTopic, pipe, m)
}

// ProvideHistoryUseCase creates the read-path use case.
func ProvideHistoryUseCase(store domrepo.SnapshotStore, latest domrepo.LatestStore, engine *usecase.BenchmarkEngine) *usecase.HistoryUseCase {
	return usecase.NewHistoryUseCase(store, latest, engine)
}

// ProvideScheduler creates the reconstitution scheduler and registers
// its job on the queue.
func ProvideScheduler(
	cfg *config.Config,
	q *queue.RedisQueue,
	engine *usecase.BenchmarkEngine,
	logger *applogger.Logger,
) *usecase.ReconstituteScheduler {
	if q == nil {
		return nil
	}
	q.RegisterJob(usecase.NewReconstituteJob(usecase.ReconstituteConfig{
		Interval:      cfg.Reconstitute.Interval,
		MarketCapMin:  cfg.Reconstitute.MarketCapMin,
		MaxSize:       cfg.Reconstitute.MaxSize,
		StaticSymbols: nil,
	}, engine, logger))
	return usecase.NewReconstituteScheduler(cfg.Reconstitute.Interval, q, logger)
}

// ProvideHTTPHandler creates the benchmark API handler. With Redis
// enabled the history response cache is shared across API replicas;
// otherwise each process keeps its own TTL cache.
func ProvideHTTPHandler(cfg *config.Config, logger *applogger.Logger, history *usecase.HistoryUseCase, engine *usecase.BenchmarkEngine) *api.BenchmarkHandler {
	h := api.NewBenchmarkHandler(logger, history, engine)
	h.SetCache(provideResponseCache(cfg))
	return h
}

func provideResponseCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	engine *usecase.BenchmarkEngine,
	collector *usecase.ObservationCollector,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaObservationsHandler,
	chClient *pkgch.Client,
	q *queue.RedisQueue,
	scheduler *usecase.ReconstituteScheduler,
	handler *api.BenchmarkHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if producer != nil && cfg.Kafka.LogsTopic != "" {
		logger.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      internalrepo.NewLogPublisher(producer),
		})
	}
	app := server.New(cfg, logger, engine, collector, consumer, kh, chClient, q, scheduler)
	app.SetHTTPHandler(handler)
	return app
}
