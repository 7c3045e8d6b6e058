package repository

import (
	"context"
	"time"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/domain/query"
)

// StockStore is the document collection keyed by ticker.
// Implementations must be safe for concurrent use.
type StockStore interface {
	// Get returns the record for ticker or models.KindNotFound.
	Get(ctx context.Context, ticker string) (*models.StockRecord, error)
	Find(ctx context.Context, q query.Query) ([]models.StockRecord, error)
	// Replace inserts or fully replaces the document for rec.Ticker.
	Replace(ctx context.Context, rec *models.StockRecord) error
	Health(ctx context.Context) error
	Close() error
}

// SeriesSource downloads daily OHLCV rows. Unknown tickers yield an empty
// slice and no error.
type SeriesSource interface {
	Name() string
	FetchSeries(ctx context.Context, symbol string, from, to time.Time) ([]models.RawBar, error)
}

// FundamentalsSource fetches the current fundamentals snapshot. Unknown
// tickers yield an empty snapshot and no error.
type FundamentalsSource interface {
	Name() string
	FetchFundamentals(ctx context.Context, symbol string) (models.Fundamentals, error)
}

// EventPublisher announces stored records to downstream consumers.
type EventPublisher interface {
	PublishIngested(ctx context.Context, ev models.IngestedEvent) error
	Close() error
}

// BarArchive keeps an append-only copy of ingested bars.
type BarArchive interface {
	ArchiveBars(ctx context.Context, ticker string, bars []models.Bar) error
	Close() error
}

// Metrics records ingestion and query observations.
type Metrics interface {
	RecordIngest(status, reason string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordMarketCap(ticker string, value float64)
	RecordCache(hit bool)
}
