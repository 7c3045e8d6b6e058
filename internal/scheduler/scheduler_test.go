package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/repository"
	"github.com/shams7728/stock-market-project/internal/usecase"
	"github.com/shams7728/stock-market-project/pkg/cache"
	"github.com/shams7728/stock-market-project/pkg/logger"
)

type staticSeries struct {
	calls int
}

func (s *staticSeries) Name() string { return "static" }

func (s *staticSeries) FetchSeries(context.Context, string, time.Time, time.Time) ([]models.RawBar, error) {
	s.calls++
	return []models.RawBar{
		{Date: "2024-01-01", Close: "100", Volume: "10"},
		{Date: "2024-01-02", Close: "101", Volume: "12"},
	}, nil
}

func newScheduler(t *testing.T, lock cache.Service) (*Scheduler, *staticSeries, *repository.MemoryStockStore) {
	t.Helper()
	series := &staticSeries{}
	store := repository.NewMemoryStockStore()
	p := usecase.NewIngestPipeline(series, nil, store, usecase.NewNormalizer([]string{".NS"}), nil, logger.NewNop(),
		usecase.WithWorkers(1),
		usecase.WithSymbolSuffix(".NS", []string{".NS"}),
	)
	s := NewScheduler(context.Background(), p, lock, logger.NewNop(), []string{"TCS"}, 72*time.Hour)
	s.now = func() time.Time { return time.Date(2024, 1, 3, 18, 0, 0, 0, time.UTC) }
	return s, series, store
}

func TestRunOnceIngestsUniverse(t *testing.T) {
	lock := cache.NewMemoryCache()
	t.Cleanup(func() { _ = lock.Close() })
	s, series, store := newScheduler(t, lock)

	rep, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rep)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, models.StatusStored, rep.Results[0].Status)
	assert.Equal(t, 1, series.calls)
	assert.Equal(t, 1, store.Len())

	// lock released after the run
	ok, err := lock.TryLock(context.Background(), LockKey, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRunOnceSkipsWhenLocked(t *testing.T) {
	lock := cache.NewMemoryCache()
	t.Cleanup(func() { _ = lock.Close() })
	ok, err := lock.TryLock(context.Background(), LockKey, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	s, series, _ := newScheduler(t, lock)
	rep, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rep)
	assert.Zero(t, series.calls)
}

func TestRegisterRejectsBadSchedule(t *testing.T) {
	s, _, _ := newScheduler(t, nil)
	assert.Error(t, s.Register("not a schedule"))
	assert.NoError(t, s.Register("0 18 * * 1-5"))
}
