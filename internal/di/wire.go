//go:build wireinject
// +build wireinject

package di

import (
	"StableBench/pkg/config"
	"StableBench/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,

		// Repositories
		ProvideSnapshotStore,
		ProvideTickPublisher,
		ProvideLatestStore,
		ProvideJobQueue,
		ProvideFeed,

		// Scoring services
		ProvidePegScorer,
		ProvideLiquidityScorer,
		ProvideYieldAdjuster,
		ProvideStressIndexer,
		ProvideRegimeClassifier,

		// Use cases
		ProvideEngine,
		ProvideIngestPipeline,
		ProvideCollector,
		ProvideObservationsHandler,
		ProvideHistoryUseCase,
		ProvideScheduler,

		// Transport
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
