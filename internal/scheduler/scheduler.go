package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/usecase"
	"github.com/shams7728/stock-market-project/pkg/cache"
	"github.com/shams7728/stock-market-project/pkg/logger"
)

// LockKey guards scheduled runs so only one process ingests at a time.
const LockKey = "stocks:ingest:lock"

// Scheduler runs ingestion batches on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *usecase.IngestPipeline
	lock     cache.Service
	log      *logger.Logger
	tickers  []string
	lookback time.Duration
	lockTTL  time.Duration
	now      func() time.Time
	ctx      context.Context
}

// NewScheduler creates a scheduler for tickers. lock may be nil to run
// without coordination.
func NewScheduler(ctx context.Context, p *usecase.IngestPipeline, lock cache.Service, log *logger.Logger, tickers []string, lookback time.Duration) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		pipeline: p,
		lock:     lock,
		log:      log,
		tickers:  tickers,
		lookback: lookback,
		lockTTL:  time.Hour,
		now:      time.Now,
		ctx:      ctx,
	}
}

// Register adds the batch task on spec (standard five-field cron syntax).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.task); err != nil {
		return fmt.Errorf("register ingest task: %w", err)
	}
	s.log.Info("ingest task registered", logger.String("schedule", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started")
}

// Stop stops the scheduler and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

func (s *Scheduler) task() {
	if _, err := s.RunOnce(s.ctx); err != nil {
		s.log.Error("scheduled ingest failed", logger.Error(err))
	}
}

// RunOnce ingests the whole universe over the lookback window ending now.
// It returns a nil report when another run holds the lock.
func (s *Scheduler) RunOnce(ctx context.Context) (*models.IngestReport, error) {
	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx, LockKey, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire ingest lock: %w", err)
		}
		if !ok {
			s.log.Info("ingest already running elsewhere, skipping")
			return nil, nil
		}
		defer func() {
			if err := s.lock.Unlock(context.Background(), LockKey); err != nil {
				s.log.Warn("release ingest lock", logger.Error(err))
			}
		}()
	}

	to := s.now().UTC()
	rep := s.pipeline.Run(ctx, s.tickers, to.Add(-s.lookback), to)
	s.log.Info("scheduled ingest finished",
		logger.String("run_id", rep.RunID),
		logger.Int("stored", rep.Count(models.StatusStored)),
		logger.Int("skipped", rep.Count(models.StatusSkipped)),
		logger.Int("failed", rep.Count(models.StatusFailed)),
	)
	return rep, nil
}
