package csvsource

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shams7728/stock-market-project/internal/domain/models"
)

const yfinanceCSV = `Price,Close,High,Low,Open,Volume
Ticker,RELIANCE.NS,RELIANCE.NS,RELIANCE.NS,RELIANCE.NS,RELIANCE.NS
Date,,,,,
2023-12-29,2480.0,2490.0,2470.0,2475.0,900000
2024-01-01,2500.0,2520.0,2490.0,2495.0,1000000
2024-01-02,2510.0,2530.0,2500.0,,1100000
`

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestFetchSeriesYFinanceLayout(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "RELIANCE.NS_data.csv", yfinanceCSV)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars, err := New(dir).FetchSeries(context.Background(), "RELIANCE.NS", from, time.Time{})
	require.NoError(t, err)

	// the two extra header rows survive here and are removed by cleaning
	require.Len(t, bars, 4)
	assert.Equal(t, "RELIANCE.NS", bars[0].Close)
	last := bars[3]
	assert.Equal(t, "2024-01-02", last.Date)
	assert.Equal(t, "2510.0", last.Close)
	assert.Equal(t, "", last.Open)
	assert.Equal(t, "1100000", last.Volume)
}

func TestFetchSeriesMissingFileIsEmpty(t *testing.T) {
	bars, err := New(t.TempDir()).FetchSeries(context.Background(), "NOPE.NS", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, bars)
}

func TestFetchSeriesMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "TCS.NS_data.csv", "Date,Open\n2024-01-01,1\n")

	_, err := New(dir).FetchSeries(context.Background(), "TCS.NS", time.Time{}, time.Time{})
	assert.True(t, models.IsKind(err, models.KindUpstreamDataMissing))
}

func TestParseTrimsTimestampDates(t *testing.T) {
	body := "Date,Open,High,Low,Close,Adj Close,Volume\n2024-01-01 00:00:00+05:30,1,2,0.5,1.5,1.5,100\n"
	bars, err := parse(strings.NewReader(body), time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, "2024-01-01", bars[0].Date)
	assert.Equal(t, "1.5", bars[0].Close)
}

func TestSymbols(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "TCS.NS_data.csv", "")
	writeFile(t, dir, "M&M.NS_data.csv", "")
	writeFile(t, dir, "notes.txt", "")

	syms, err := New(dir).Symbols()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"TCS.NS", "M&M.NS"}, syms)
}
