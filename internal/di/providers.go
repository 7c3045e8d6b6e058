package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	drepo "github.com/shams7728/stock-market-project/internal/domain/repository"
	"github.com/shams7728/stock-market-project/internal/handler/api"
	internalrepo "github.com/shams7728/stock-market-project/internal/repository"
	"github.com/shams7728/stock-market-project/internal/service/csvsource"
	"github.com/shams7728/stock-market-project/internal/service/ratelimit"
	"github.com/shams7728/stock-market-project/internal/service/yahoo"
	"github.com/shams7728/stock-market-project/internal/usecase"
	"github.com/shams7728/stock-market-project/pkg/cache"
	pkgch "github.com/shams7728/stock-market-project/pkg/clickhouse"
	"github.com/shams7728/stock-market-project/pkg/config"
	xhttp "github.com/shams7728/stock-market-project/pkg/http"
	"github.com/shams7728/stock-market-project/pkg/http/middleware"
	pkgkafka "github.com/shams7728/stock-market-project/pkg/kafka"
	"github.com/shams7728/stock-market-project/pkg/logger"
	"github.com/shams7728/stock-market-project/pkg/metrics"
	"github.com/shams7728/stock-market-project/pkg/mongodb"
	"github.com/shams7728/stock-market-project/pkg/server"
)

const healthTimeout = 3 * time.Second

// IngestRuntime bundles what the ingestion command needs.
type IngestRuntime struct {
	Config   *config.Config
	Log      *logger.Logger
	Pipeline *usecase.IngestPipeline
	// Cache backs the scheduler lock.
	Cache cache.Service
	// Redis is nil unless redis.enabled; the job queue needs it.
	Redis *redis.Client
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideMongoClient connects to MongoDB. Nil when the memory store is
// configured.
func ProvideMongoClient(cfg *config.Config) (*mongodb.Client, error) {
	if cfg.Store.Type != "mongo" {
		return nil, nil
	}
	client, err := mongodb.NewClient(context.Background(),
		mongodb.WithURI(cfg.Store.URI),
		mongodb.WithDatabase(cfg.Store.Database),
		mongodb.WithMaxPoolSize(cfg.Store.MaxPoolSize),
		mongodb.WithTimeouts(cfg.Store.ConnTimeout, cfg.Store.QueryTimeout),
		mongodb.WithAppName("stock-market-project"),
	)
	if err != nil {
		return nil, fmt.Errorf("mongodb client: %w", err)
	}
	return client, nil
}

// ProvideStockStore picks the configured store. The cleanup closes it along
// with its client.
func ProvideStockStore(cfg *config.Config, client *mongodb.Client, log *logger.Logger) (drepo.StockStore, func(), error) {
	if client == nil {
		log.Warn("using in-memory stock store")
		return internalrepo.NewMemoryStockStore(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Store.ConnTimeout)
	defer cancel()
	store, err := internalrepo.NewMongoStockStore(ctx, client, cfg.Store.Collection, cfg.Store.QueryTimeout, cfg.Store.WriteTimeout)
	if err != nil {
		cctx, ccancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer ccancel()
		_ = client.Close(cctx)
		return nil, nil, fmt.Errorf("stock store: %w", err)
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Warn("mongodb close error", logger.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideRedisClient connects to Redis. Nil when redis is disabled.
func ProvideRedisClient(cfg *config.Config, log *logger.Logger) (*redis.Client, func(), error) {
	if !cfg.Redis.Enabled {
		return nil, func() {}, nil
	}
	client, err := cache.NewRedisClient(context.Background(),
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis client: %w", err)
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Warn("redis close error", logger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideCache builds the configured cache backend. Without a Redis client
// every backend degrades to process memory.
func ProvideCache(cfg *config.Config, rc *redis.Client) (cache.Service, func()) {
	var c cache.Service
	switch {
	case rc == nil || cfg.Cache.Backend == "memory":
		c = cache.NewMemoryCache()
	case cfg.Cache.Backend == "layered":
		c = cache.NewLayeredCache(cache.NewMemoryCache(), cache.NewRedisCache(rc, ""), cfg.Cache.TTL)
	default:
		c = cache.NewRedisCache(rc, "")
	}
	return c, func() { _ = c.Close() }
}

// ProvideQueryService creates the stock query use case.
func ProvideQueryService(cfg *config.Config, store drepo.StockStore, m drepo.Metrics, log *logger.Logger) *usecase.StockQueryService {
	return usecase.NewStockQueryService(store, m, log, cfg.Store.QueryTimeout)
}

// ProvideStocksHandler creates the query endpoints, with response caching
// when enabled.
func ProvideStocksHandler(cfg *config.Config, log *logger.Logger, svc *usecase.StockQueryService, m drepo.Metrics, c cache.Service) *api.StocksEchoHandler {
	var opts []api.HandlerOption
	if cfg.Cache.Enabled {
		opts = append(opts, api.WithResponseCache(c, cfg.Cache.Prefix, cfg.Cache.TTL))
	}
	return api.NewStocksEchoHandler(log, svc, m, opts...)
}

// ProvideHTTPServer assembles the echo server from config.
func ProvideHTTPServer(cfg *config.Config, log *logger.Logger, stocks *api.StocksEchoHandler, store drepo.StockStore) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithLegacyStatusCodes(cfg.Server.LegacyStatusCodes),
	}
	if cfg.Server.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimiter(ratelimit.New(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)))
	}
	if !cfg.Metrics.Disabled {
		opts = append(opts, xhttp.WithMetrics(
			middleware.NewHTTPMetrics(prometheus.DefaultRegisterer),
			cfg.Metrics.Path,
			prometheus.DefaultGatherer,
		))
	}

	handlers := []xhttp.Handler{
		xhttp.NewHealthHandler(store.Health, healthTimeout),
		stocks,
	}
	return xhttp.NewServer(log, handlers, opts...)
}

// ProvideKafkaConsumer creates the ingestion event consumer. Nil when kafka
// is disabled.
func ProvideKafkaConsumer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.GroupID),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideCacheInvalidator creates the handler that clears cached responses
// after each ingested record.
func ProvideCacheInvalidator(cfg *config.Config, c cache.Service, log *logger.Logger) *usecase.CacheInvalidator {
	return usecase.NewCacheInvalidator(cfg.Kafka.Topic, cfg.Cache.Prefix, c, log)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	inv *usecase.CacheInvalidator,
) *server.App {
	if consumer == nil || !cfg.Cache.Enabled {
		return server.New(cfg, log, srv, nil)
	}
	return server.New(cfg, log, srv, consumer, inv)
}

// ProvideClickHouseClient creates a ClickHouse client and the bar archive
// schema. Nil when clickhouse is disabled.
func ProvideClickHouseClient(cfg *config.Config, log *logger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.BarArchiveSchema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			log.Warn("clickhouse close error", logger.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideBarArchive wraps the ClickHouse client. Nil without a client.
func ProvideBarArchive(cfg *config.Config, ch *pkgch.Client) drepo.BarArchive {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseBarArchive(ch, cfg.ClickHouse.Database)
}

// ProvideKafkaProducer creates a Kafka producer. Nil when kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithMetrics(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher publishes ingestion events. The cleanup closes the
// producer.
func ProvideEventPublisher(cfg *config.Config, producer *pkgkafka.Producer, log *logger.Logger) (drepo.EventPublisher, func()) {
	if producer == nil {
		return nil, func() {}
	}
	pub := internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
	return pub, func() {
		if err := pub.Close(); err != nil {
			log.Warn("kafka producer close error", logger.Error(err))
		}
	}
}

// ProvideUpstreamClient creates the HTTP client used for market data.
func ProvideUpstreamClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(
		xhttp.WithTimeout(cfg.Upstream.Timeout),
		xhttp.WithHeader("User-Agent", cfg.Upstream.UserAgent),
		xhttp.WithHeader("Accept", "application/json"),
	)
}

// ProvideSeriesSource picks the configured daily series provider.
func ProvideSeriesSource(cfg *config.Config, hc *xhttp.Client) drepo.SeriesSource {
	if cfg.Upstream.SeriesSource == "csv" {
		return csvsource.New(cfg.Upstream.CSVDir)
	}
	return yahoo.NewClient(cfg.Upstream.BaseURL, hc)
}

// ProvideFundamentalsSource returns nil when fundamentals are disabled.
func ProvideFundamentalsSource(cfg *config.Config, hc *xhttp.Client) drepo.FundamentalsSource {
	if cfg.Upstream.FundamentalsSource == "none" {
		return nil
	}
	return yahoo.NewClient(cfg.Upstream.BaseURL, hc)
}

// ProvideNormalizer creates the record normalizer.
func ProvideNormalizer(cfg *config.Config) *usecase.Normalizer {
	return usecase.NewNormalizer(cfg.Ingest.Suffixes)
}

// ProvideIngestPipeline creates the ingestion use case with its optional
// sinks.
func ProvideIngestPipeline(
	cfg *config.Config,
	series drepo.SeriesSource,
	fundamentals drepo.FundamentalsSource,
	store drepo.StockStore,
	norm *usecase.Normalizer,
	m drepo.Metrics,
	log *logger.Logger,
	events drepo.EventPublisher,
	archive drepo.BarArchive,
) *usecase.IngestPipeline {
	opts := []usecase.PipelineOption{
		usecase.WithWorkers(cfg.Ingest.Workers),
		usecase.WithSymbolSuffix(cfg.Upstream.Suffix, cfg.Ingest.Suffixes),
		usecase.WithFetchTimeout(cfg.Upstream.Timeout),
	}
	if events != nil {
		opts = append(opts, usecase.WithEventPublisher(events))
	}
	if archive != nil {
		opts = append(opts, usecase.WithBarArchive(archive))
	}
	return usecase.NewIngestPipeline(series, fundamentals, store, norm, m, log, opts...)
}
