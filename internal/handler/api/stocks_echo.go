package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/domain/query"
	drepo "github.com/shams7728/stock-market-project/internal/domain/repository"
	"github.com/shams7728/stock-market-project/internal/usecase"
	"github.com/shams7728/stock-market-project/pkg/cache"
	xhttp "github.com/shams7728/stock-market-project/pkg/http"
	xlogger "github.com/shams7728/stock-market-project/pkg/logger"
)

// StocksEchoHandler serves the stock query endpoints.
type StocksEchoHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.StockQueryService
	metrics drepo.Metrics

	cache  cache.Service
	ttl    time.Duration
	prefix string
}

// HandlerOption configures StocksEchoHandler.
type HandlerOption func(*StocksEchoHandler)

// WithResponseCache caches successful list responses under prefix for ttl.
func WithResponseCache(c cache.Service, prefix string, ttl time.Duration) HandlerOption {
	return func(h *StocksEchoHandler) {
		h.cache = c
		h.prefix = prefix
		h.ttl = ttl
	}
}

func NewStocksEchoHandler(logger *xlogger.Logger, svc *usecase.StockQueryService, metrics drepo.Metrics, opts ...HandlerOption) *StocksEchoHandler {
	h := &StocksEchoHandler{logger: logger, svc: svc, metrics: metrics}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *StocksEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/search-stocks", h.Search)
	e.GET("/fetch-stocks", h.Fetch)
	e.GET("/filter-stocks", h.Filter)
	e.GET("/sort-stocks", h.Sort)
	e.GET("/stocks/:ticker", h.Get)
	e.GET("/get-historical-data/:ticker", h.History)
}

func (h *StocksEchoHandler) Root(c echo.Context) error {
	return xhttp.DataResponse(c, map[string]any{
		"message": "Welcome to the Stock API",
		"endpoints": map[string]string{
			"/search-stocks":                "Search stocks by ticker",
			"/fetch-stocks":                 "Fetch all stocks",
			"/filter-stocks":                "Filter stocks based on parameters",
			"/sort-stocks":                  "Sort stocks by a parameter",
			"/stocks/{ticker}":              "Get details for a specific stock",
			"/get-historical-data/{ticker}": "Get historical data for a specific stock",
		},
	})
}

func (h *StocksEchoHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return err
	}
	return h.cached(c, func(ctx context.Context) (any, error) {
		stocks, err := h.svc.Search(ctx, req.Query)
		if err != nil {
			return nil, appError(err, "Failed to search stocks", "")
		}
		return models.StocksResponse{Stocks: stocks}, nil
	})
}

func (h *StocksEchoHandler) Fetch(c echo.Context) error {
	req := &models.FetchRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return err
	}
	if !c.QueryParams().Has("limit") {
		req.Limit = models.DefaultFetchLimit
	}
	return h.cached(c, func(ctx context.Context) (any, error) {
		stocks, err := h.svc.List(ctx, req.Skip, req.Limit)
		if err != nil {
			return nil, appError(err, "Failed to fetch stocks", "")
		}
		return models.StocksResponse{Stocks: stocks}, nil
	})
}

func (h *StocksEchoHandler) Filter(c echo.Context) error {
	bounds, err := query.ParseBounds(c.QueryParam)
	if err != nil {
		return xhttp.BadRequestError("Invalid filter parameters").WithDetails(err.Error())
	}
	return h.cached(c, func(ctx context.Context) (any, error) {
		stocks, err := h.svc.Filter(ctx, bounds)
		if err != nil {
			return nil, appError(err, "Failed to filter stocks", "")
		}
		return models.StocksResponse{Stocks: stocks}, nil
	})
}

func (h *StocksEchoHandler) Sort(c echo.Context) error {
	req := &models.SortRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return err
	}
	if !c.QueryParams().Has("order") {
		req.Order = query.Asc.String()
	}
	return h.cached(c, func(ctx context.Context) (any, error) {
		stocks, err := h.svc.Sort(ctx, req.SortBy, req.Order)
		if err != nil {
			return nil, appError(err, fmt.Sprintf("Invalid sort parameter: %s", req.SortBy), "")
		}
		return models.StocksResponse{Stocks: stocks}, nil
	})
}

func (h *StocksEchoHandler) Get(c echo.Context) error {
	ticker := c.Param("ticker")
	rec, err := h.svc.GetByTicker(c.Request().Context(), ticker)
	if err != nil {
		return appError(err, "Failed to fetch stock details", fmt.Sprintf("Stock with ticker %s not found", ticker))
	}
	return xhttp.DataResponse(c, rec)
}

func (h *StocksEchoHandler) History(c echo.Context) error {
	bars, err := h.svc.History(c.Request().Context(), c.Param("ticker"))
	if err != nil {
		return appError(err, "Failed to fetch historical data", "Stock not found")
	}
	return xhttp.DataResponse(c, models.HistoryResponse{HistoricalData: bars})
}

// cached serves a stored response body when present, otherwise computes,
// stores and writes it. Cache failures only cost a recomputation.
func (h *StocksEchoHandler) cached(c echo.Context, compute func(ctx context.Context) (any, error)) error {
	ctx := c.Request().Context()
	if h.cache == nil {
		v, err := compute(ctx)
		if err != nil {
			return err
		}
		return xhttp.DataResponse(c, v)
	}

	key := cache.GenerateKeyWithParams(h.prefix+c.Path(), cache.HashKey(c.QueryParams().Encode()))
	if b, err := h.cache.Get(ctx, key); err == nil {
		h.recordCache(true)
		c.Response().Header().Set("X-Cache", "HIT")
		return c.JSONBlob(http.StatusOK, b)
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		h.logger.Warn("response cache get failed", xlogger.String("key", key), xlogger.Error(err))
	}
	h.recordCache(false)

	v, err := compute(ctx)
	if err != nil {
		return err
	}
	b, err := json.Marshal(v)
	if err != nil {
		return xhttp.UnexpectedError(err)
	}
	if err := h.cache.Set(ctx, key, b, h.ttl); err != nil {
		h.logger.Warn("response cache set failed", xlogger.String("key", key), xlogger.Error(err))
	}
	c.Response().Header().Set("X-Cache", "MISS")
	return c.JSONBlob(http.StatusOK, b)
}

func (h *StocksEchoHandler) recordCache(hit bool) {
	if h.metrics != nil {
		h.metrics.RecordCache(hit)
	}
}

// appError maps domain errors onto HTTP errors. Unclassified errors fall
// through to the catch-all handler.
func appError(err error, failed, notFound string) error {
	var de *models.Error
	if !errors.As(err, &de) {
		return err
	}
	switch de.Kind {
	case models.KindNotFound:
		if notFound == "" {
			notFound = de.Msg
		}
		appErr := xhttp.NotFoundError(notFound)
		appErr.Err = err
		return appErr
	case models.KindInvalidArgument:
		appErr := xhttp.BadRequestError(de.Msg)
		appErr.Err = err
		return appErr
	case models.KindStoreUnavailable:
		return xhttp.ServiceUnavailableError(failed).WithDetails(de.Details()).WithError(err)
	default:
		return xhttp.UnexpectedError(err)
	}
}
