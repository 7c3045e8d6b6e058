// Package csvsource reads daily series from a directory of
// "<SYMBOL>_data.csv" files as written by yfinance.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	drepo "github.com/shams7728/stock-market-project/internal/domain/repository"
	"github.com/shams7728/stock-market-project/pkg/util"
)

// FileSuffix is appended to the upstream symbol to form the file name.
const FileSuffix = "_data.csv"

// Source implements SeriesSource over a local directory.
type Source struct {
	dir string
}

// New creates a Source rooted at dir.
func New(dir string) *Source {
	return &Source{dir: dir}
}

var _ drepo.SeriesSource = (*Source)(nil)

func (s *Source) Name() string { return "csv" }

// FetchSeries reads <dir>/<symbol>_data.csv. A missing file is an empty
// result. Rows whose date parses and falls outside [from, to) are dropped;
// other rows are returned as-is for cleaning.
func (s *Source) FetchSeries(ctx context.Context, symbol string, from, to time.Time) ([]models.RawBar, error) {
	const op = "csv.series"
	if err := ctx.Err(); err != nil {
		return nil, models.UpstreamUnavailable(op, err)
	}

	f, err := os.Open(filepath.Join(s.dir, symbol+FileSuffix))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, models.UpstreamUnavailable(op, err)
	}
	defer f.Close()

	bars, err := parse(f, from, to)
	if err != nil {
		return nil, models.UpstreamDataMissing(op, fmt.Sprintf("%s: %v", symbol, err))
	}
	return bars, nil
}

// Symbols lists the upstream symbols available in the directory.
func (s *Source) Symbols() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", s.dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") {
			continue
		}
		// the symbol is everything before the first underscore
		sym, _, _ := strings.Cut(strings.TrimSuffix(name, ".csv"), "_")
		if sym != "" {
			out = append(out, sym)
		}
	}
	return out, nil
}

func parse(r io.Reader, from, to time.Time) ([]models.RawBar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	// the first column holds the date whatever its header says
	colIdx := map[string]int{"date": 0}
	for i, col := range header[1:] {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i + 1
	}
	for _, col := range []string{"close", "volume"} {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("missing required column: %s", col)
		}
	}

	get := func(rec []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []models.RawBar
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}

		date := get(rec, "date")
		if len(date) > len(util.DateLayout) {
			date = date[:len(util.DateLayout)]
		}
		if day, ok := util.ParseTime(date); ok && !util.InRange(day, from, to) {
			continue
		}
		out = append(out, models.RawBar{
			Date:   date,
			Open:   get(rec, "open"),
			High:   get(rec, "high"),
			Low:    get(rec, "low"),
			Close:  get(rec, "close"),
			Volume: get(rec, "volume"),
		})
	}
	return out, nil
}
