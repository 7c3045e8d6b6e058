package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/domain/query"
	"github.com/shams7728/stock-market-project/internal/repository"
	"github.com/shams7728/stock-market-project/internal/usecase"
	"github.com/shams7728/stock-market-project/pkg/cache"
	xhttp "github.com/shams7728/stock-market-project/pkg/http"
	xlogger "github.com/shams7728/stock-market-project/pkg/logger"
)

type brokenStore struct {
	*repository.MemoryStockStore
}

func (brokenStore) Find(context.Context, query.Query) ([]models.StockRecord, error) {
	return nil, errors.New("server selection timeout")
}

type cacheCounter struct {
	hits, misses int
}

func (m *cacheCounter) RecordIngest(string, string)     {}
func (m *cacheCounter) RecordError(string)              {}
func (m *cacheCounter) RecordLatency(string, float64)   {}
func (m *cacheCounter) RecordMarketCap(string, float64) {}
func (m *cacheCounter) RecordCache(hit bool) {
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func seededStore(t *testing.T) *repository.MemoryStockStore {
	t.Helper()
	s := repository.NewMemoryStockStore()
	for _, rec := range []models.StockRecord{
		{
			Ticker:       "RELIANCE",
			MarketCap:    2.5e9,
			Fundamentals: models.Fundamentals{PERatio: models.Float(28)},
			History:      []models.Bar{{Date: "2024-01-02", Close: 2500, Volume: 1e6}},
		},
		{Ticker: "TCS", MarketCap: 3.1e9, Fundamentals: models.Fundamentals{PERatio: models.Float(32)}},
		{Ticker: "INFY", MarketCap: 1.4e9},
	} {
		rec := rec
		require.NoError(t, s.Replace(context.Background(), &rec))
	}
	return s
}

func serve(t *testing.T, h *StocksEchoHandler, path string, opts ...xhttp.ServerOption) *httptest.ResponseRecorder {
	t.Helper()
	srv := xhttp.NewServer(xlogger.NewNop(), []xhttp.Handler{h}, opts...)
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func handlerFor(store *repository.MemoryStockStore, opts ...HandlerOption) *StocksEchoHandler {
	svc := usecase.NewStockQueryService(store, nil, xlogger.NewNop(), time.Second)
	return NewStocksEchoHandler(xlogger.NewNop(), svc, nil, opts...)
}

func decodeStocks(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	var body models.StocksResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	out := make([]string, len(body.Stocks))
	for i, s := range body.Stocks {
		out[i] = s.Ticker
	}
	return out
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) xhttp.ErrorResponse {
	t.Helper()
	var body xhttp.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRootListsEndpoints(t *testing.T) {
	rec := serve(t, handlerFor(seededStore(t)), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/get-historical-data/{ticker}")
}

func TestFetchStocksDefaultsAndPaging(t *testing.T) {
	h := handlerFor(seededStore(t))

	rec := serve(t, h, "/fetch-stocks")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"RELIANCE", "TCS", "INFY"}, decodeStocks(t, rec))

	rec = serve(t, h, "/fetch-stocks?skip=1&limit=1")
	assert.Equal(t, []string{"TCS"}, decodeStocks(t, rec))
}

func TestFetchStocksExplicitZeroLimitReturnsAll(t *testing.T) {
	store := seededStore(t)
	for i := 0; i < 12; i++ {
		require.NoError(t, store.Replace(context.Background(), &models.StockRecord{Ticker: fmt.Sprintf("T%02d", i)}))
	}
	h := handlerFor(store)

	rec := serve(t, h, "/fetch-stocks")
	assert.Len(t, decodeStocks(t, rec), models.DefaultFetchLimit)

	rec = serve(t, h, "/fetch-stocks?limit=0")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeStocks(t, rec), 15)
}

func TestFetchStocksRejectsNegativeSkip(t *testing.T) {
	rec := serve(t, handlerFor(seededStore(t)), "/fetch-stocks?skip=-1&limit=10")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error, "non-negative")
}

func TestSearchStocks(t *testing.T) {
	h := handlerFor(seededStore(t))

	rec := serve(t, h, "/search-stocks?query=rel")
	assert.Equal(t, []string{"RELIANCE"}, decodeStocks(t, rec))

	rec = serve(t, h, "/search-stocks")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "query is required", decodeError(t, rec).Error)
}

func TestFilterStocks(t *testing.T) {
	h := handlerFor(seededStore(t))

	rec := serve(t, h, "/filter-stocks?pe_ratio_max=30")
	assert.Equal(t, []string{"RELIANCE"}, decodeStocks(t, rec))

	rec = serve(t, h, "/filter-stocks?market_cap_min=3e9&market_cap_max=1e9")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeStocks(t, rec))

	rec = serve(t, h, "/filter-stocks?eps_min=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Details, "eps_min")

	for _, v := range []string{"NaN", "Inf", "-Infinity"} {
		rec = serve(t, h, "/filter-stocks?pe_ratio_min="+v)
		assert.Equal(t, http.StatusBadRequest, rec.Code, v)
		assert.Equal(t, "Invalid filter parameters", decodeError(t, rec).Error)
	}
}

func TestSortStocks(t *testing.T) {
	h := handlerFor(seededStore(t))

	rec := serve(t, h, "/sort-stocks?sort_by=market_cap")
	assert.Equal(t, []string{"INFY", "RELIANCE", "TCS"}, decodeStocks(t, rec))

	rec = serve(t, h, "/sort-stocks?sort_by=market_cap&order=desc")
	assert.Equal(t, []string{"TCS", "RELIANCE", "INFY"}, decodeStocks(t, rec))

	// only the literal "asc" sorts ascending
	for _, order := range []string{"", "ASC", "up"} {
		rec = serve(t, h, "/sort-stocks?sort_by=market_cap&order="+order)
		assert.Equal(t, []string{"TCS", "RELIANCE", "INFY"}, decodeStocks(t, rec), "order=%q", order)
	}

	rec = serve(t, h, "/sort-stocks?sort_by=colour")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid sort parameter: colour", decodeError(t, rec).Error)
}

func TestGetStock(t *testing.T) {
	h := handlerFor(seededStore(t))

	rec := serve(t, h, "/stocks/RELIANCE")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "RELIANCE", body["ticker"])
	assert.Equal(t, 2.5e9, body["market_cap"])
	assert.Nil(t, body["eps"])
	assert.Contains(t, body, "eps")
	assert.NotContains(t, body, "_id")

	rec = serve(t, h, "/stocks/NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	body2 := decodeError(t, rec)
	assert.Equal(t, "Stock with ticker NOPE not found", body2.Error)
	assert.Empty(t, body2.Details)
}

func TestLegacyModeAnswers200(t *testing.T) {
	rec := serve(t, handlerFor(seededStore(t)), "/stocks/NOPE", xhttp.WithLegacyStatusCodes(true))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Stock with ticker NOPE not found", decodeError(t, rec).Error)
}

func TestHistoricalData(t *testing.T) {
	h := handlerFor(seededStore(t))

	rec := serve(t, h, "/get-historical-data/RELIANCE")
	require.Equal(t, http.StatusOK, rec.Code)
	var body models.HistoryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.HistoricalData, 1)
	assert.Equal(t, 2500.0, body.HistoricalData[0].Close)

	rec = serve(t, h, "/get-historical-data/NOPE")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Stock not found", decodeError(t, rec).Error)
}

func TestStoreFailureIs503(t *testing.T) {
	svc := usecase.NewStockQueryService(brokenStore{repository.NewMemoryStockStore()}, nil, xlogger.NewNop(), time.Second)
	h := NewStocksEchoHandler(xlogger.NewNop(), svc, nil)

	rec := serve(t, h, "/fetch-stocks")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Failed to fetch stocks", body.Error)
	assert.Equal(t, "server selection timeout", body.Details)
}

func TestResponseCache(t *testing.T) {
	store := seededStore(t)
	mc := cache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })
	counter := &cacheCounter{}
	svc := usecase.NewStockQueryService(store, nil, xlogger.NewNop(), time.Second)
	h := NewStocksEchoHandler(xlogger.NewNop(), svc, counter, WithResponseCache(mc, "stocks:resp:", time.Minute))

	rec := serve(t, h, "/fetch-stocks")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	require.NoError(t, store.Replace(context.Background(), &models.StockRecord{Ticker: "ITC", MarketCap: 1}))

	rec = serve(t, h, "/fetch-stocks")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Len(t, decodeStocks(t, rec), 3)

	rec = serve(t, h, "/fetch-stocks?limit=2")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, counter.hits)
	assert.Equal(t, 2, counter.misses)

	require.NoError(t, mc.DeleteByPattern(context.Background(), cache.BuildPattern("stocks:resp:")))
	rec = serve(t, h, "/fetch-stocks")
	assert.Len(t, decodeStocks(t, rec), 4)
}
