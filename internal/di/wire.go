//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	drepo "github.com/shams7728/stock-market-project/internal/domain/repository"
	"github.com/shams7728/stock-market-project/pkg/config"
	"github.com/shams7728/stock-market-project/pkg/metrics"
	"github.com/shams7728/stock-market-project/pkg/server"
)

var baseSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	wire.Bind(new(drepo.Metrics), new(*metrics.Recorder)),
	ProvideMongoClient,
	ProvideStockStore,
	ProvideRedisClient,
	ProvideCache,
)

// InitializeApp wires up the API server.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		baseSet,

		// Query side
		ProvideQueryService,
		ProvideStocksHandler,
		ProvideHTTPServer,

		// Event consumption
		ProvideKafkaConsumer,
		ProvideCacheInvalidator,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeIngest wires up the ingestion pipeline and its sinks.
func InitializeIngest(cfg *config.Config) (*IngestRuntime, func(), error) {
	wire.Build(
		baseSet,

		// Upstream
		ProvideUpstreamClient,
		ProvideSeriesSource,
		ProvideFundamentalsSource,

		// Sinks
		ProvideClickHouseClient,
		ProvideBarArchive,
		ProvideKafkaProducer,
		ProvideEventPublisher,

		// Use cases
		ProvideNormalizer,
		ProvideIngestPipeline,

		wire.Struct(new(IngestRuntime), "*"),
	)
	return nil, nil, nil
}
