package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalrepo "github.com/shams7728/stock-market-project/internal/repository"
	"github.com/shams7728/stock-market-project/internal/service/csvsource"
	"github.com/shams7728/stock-market-project/internal/service/yahoo"
	"github.com/shams7728/stock-market-project/pkg/cache"
	"github.com/shams7728/stock-market-project/pkg/config"
	"github.com/shams7728/stock-market-project/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	return cfg
}

func TestMemoryStoreNeedsNoClient(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Type = "memory"

	client, err := ProvideMongoClient(cfg)
	require.NoError(t, err)
	assert.Nil(t, client)

	store, cleanup, err := ProvideStockStore(cfg, client, logger.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.IsType(t, &internalrepo.MemoryStockStore{}, store)
}

func TestCacheFallsBackToMemoryWithoutRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = "layered"

	c, cleanup := ProvideCache(cfg, nil)
	defer cleanup()
	assert.IsType(t, &cache.MemoryCache{}, c)
}

func TestDisabledSinksAreNil(t *testing.T) {
	cfg := testConfig(t)

	ch, cleanup, err := ProvideClickHouseClient(cfg, logger.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.Nil(t, ch)
	assert.Nil(t, ProvideBarArchive(cfg, ch))

	producer, err := ProvideKafkaProducer(cfg)
	require.NoError(t, err)
	pub, pcleanup := ProvideEventPublisher(cfg, producer, logger.NewNop())
	defer pcleanup()
	assert.Nil(t, pub)

	consumer, err := ProvideKafkaConsumer(cfg, logger.NewNop())
	require.NoError(t, err)
	assert.Nil(t, consumer)
}

func TestUpstreamSelection(t *testing.T) {
	cfg := testConfig(t)
	hc := ProvideUpstreamClient(cfg)

	assert.IsType(t, &yahoo.Client{}, ProvideSeriesSource(cfg, hc))
	assert.NotNil(t, ProvideFundamentalsSource(cfg, hc))

	cfg.Upstream.SeriesSource = "csv"
	cfg.Upstream.FundamentalsSource = "none"
	assert.IsType(t, &csvsource.Source{}, ProvideSeriesSource(cfg, hc))
	assert.Nil(t, ProvideFundamentalsSource(cfg, hc))
}
