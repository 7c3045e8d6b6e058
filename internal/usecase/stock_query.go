package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/domain/query"
	drepo "github.com/shams7728/stock-market-project/internal/domain/repository"
	"github.com/shams7728/stock-market-project/pkg/logger"
)

// StockQueryService answers read queries over the stock collection.
type StockQueryService struct {
	store   drepo.StockStore
	metrics drepo.Metrics
	log     *logger.Logger
	timeout time.Duration
}

// NewStockQueryService creates the service. timeout bounds each store call;
// zero leaves the caller's deadline in charge.
func NewStockQueryService(store drepo.StockStore, metrics drepo.Metrics, log *logger.Logger, timeout time.Duration) *StockQueryService {
	return &StockQueryService{store: store, metrics: metrics, log: log, timeout: timeout}
}

// GetByTicker returns the record with exactly this ticker.
func (s *StockQueryService) GetByTicker(ctx context.Context, ticker string) (*models.StockRecord, error) {
	defer s.observe("get", time.Now())
	if ticker == "" {
		return nil, models.InvalidArgument("query.get", "ticker is required")
	}

	ctx, cancel := s.bound(ctx)
	defer cancel()
	rec, err := s.store.Get(ctx, ticker)
	if err != nil {
		return nil, s.storeErr("query.get", err)
	}
	return rec, nil
}

// History returns the stored daily bars of ticker.
func (s *StockQueryService) History(ctx context.Context, ticker string) ([]models.Bar, error) {
	rec, err := s.GetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if rec.History == nil {
		return []models.Bar{}, nil
	}
	return rec.History, nil
}

// Search matches text case-insensitively against the ticker, and against
// market_cap rendered as text.
func (s *StockQueryService) Search(ctx context.Context, text string) ([]models.StockRecord, error) {
	defer s.observe("search", time.Now())
	return s.find(ctx, "query.search", query.Query{Predicate: query.Search(text)})
}

// Filter returns every record satisfying all bounds.
func (s *StockQueryService) Filter(ctx context.Context, bounds query.Bounds) ([]models.StockRecord, error) {
	defer s.observe("filter", time.Now())
	return s.find(ctx, "query.filter", query.Query{Predicate: query.Build(bounds)})
}

// Sort returns every record ordered by field. order "asc" sorts ascending,
// anything else descending.
func (s *StockQueryService) Sort(ctx context.Context, field, order string) ([]models.StockRecord, error) {
	defer s.observe("sort", time.Now())
	if !query.SortableFields[field] {
		return nil, models.InvalidArgument("query.sort", fmt.Sprintf("Invalid sort parameter: %s", field))
	}
	return s.find(ctx, "query.sort", query.Query{
		Sort: &query.Sort{Field: field, Direction: query.ParseDirection(order)},
	})
}

// List pages through the collection in store order. limit 0 means no limit.
func (s *StockQueryService) List(ctx context.Context, skip, limit int64) ([]models.StockRecord, error) {
	defer s.observe("list", time.Now())
	if skip < 0 || limit < 0 {
		return nil, models.InvalidArgument("query.list",
			fmt.Sprintf("skip and limit must be non-negative, got skip=%d limit=%d", skip, limit))
	}
	return s.find(ctx, "query.list", query.Query{Skip: skip, Limit: limit})
}

func (s *StockQueryService) find(ctx context.Context, op string, q query.Query) ([]models.StockRecord, error) {
	ctx, cancel := s.bound(ctx)
	defer cancel()
	recs, err := s.store.Find(ctx, q)
	if err != nil {
		return nil, s.storeErr(op, err)
	}
	return recs, nil
}

func (s *StockQueryService) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// storeErr keeps classified errors and wraps everything else as
// StoreUnavailable.
func (s *StockQueryService) storeErr(op string, err error) error {
	kind := models.KindOf(err)
	if kind == models.KindNotFound {
		return err
	}
	if kind == "" {
		err = models.StoreUnavailable(op, err)
		kind = models.KindStoreUnavailable
	}
	if s.metrics != nil {
		s.metrics.RecordError(string(kind))
	}
	if s.log != nil {
		s.log.Warn("store query failed", logger.String("op", op), logger.Error(err))
	}
	return err
}

func (s *StockQueryService) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordLatency("query."+op, time.Since(start).Seconds())
	}
}
