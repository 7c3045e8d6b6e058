package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/domain/repository"
	pkgch "github.com/shams7728/stock-market-project/pkg/clickhouse"
	"github.com/shams7728/stock-market-project/pkg/util"
)

// BarArchiveTable is the default archive table name.
const BarArchiveTable = "daily_bars"

// BarArchiveSchema returns the DDL for the archive table in database db.
// ReplacingMergeTree collapses re-ingested days to the latest copy.
func BarArchiveSchema(db string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
			ticker String,
			date Date,
			open Nullable(Float64),
			high Nullable(Float64),
			low Nullable(Float64),
			close Float64,
			volume Float64,
			ingested_at DateTime
		) ENGINE = ReplacingMergeTree(ingested_at) ORDER BY (ticker, date)`, db, BarArchiveTable),
	}
}

// ClickHouseBarArchive appends ingested bars to ClickHouse.
type ClickHouseBarArchive struct {
	db        sqlExecer
	table     string
	chunkSize int
	now       func() time.Time
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NewClickHouseBarArchive creates an archive writing to <database>.daily_bars.
func NewClickHouseBarArchive(ch *pkgch.Client, database string) *ClickHouseBarArchive {
	return newBarArchive(ch.DB(), database+"."+BarArchiveTable)
}

func newBarArchive(db sqlExecer, table string) *ClickHouseBarArchive {
	return &ClickHouseBarArchive{db: db, table: table, chunkSize: 2000, now: time.Now}
}

var _ repository.BarArchive = (*ClickHouseBarArchive)(nil)

// ArchiveBars inserts bars with multi-row VALUES statements.
func (a *ClickHouseBarArchive) ArchiveBars(ctx context.Context, ticker string, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	ingestedAt := a.now().UTC().Truncate(time.Second)
	for start := 0; start < len(bars); start += a.chunkSize {
		end := min(start+a.chunkSize, len(bars))

		values := make([]string, 0, end-start)
		args := make([]any, 0, (end-start)*8)
		for _, b := range bars[start:end] {
			day, ok := util.ParseTime(b.Date)
			if !ok {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, ticker, day, b.Open, b.High, b.Low, b.Close, b.Volume, ingestedAt)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ticker, date, open, high, low, close, volume, ingested_at) VALUES %s",
			a.table, strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("archive bars %s: %w", ticker, err)
		}
	}
	return nil
}

// Close is a no-op; the connection pool belongs to pkg/clickhouse.
func (a *ClickHouseBarArchive) Close() error { return nil }
