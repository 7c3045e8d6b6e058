package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shams7728/stock-market-project/internal/di"
	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/internal/scheduler"
	"github.com/shams7728/stock-market-project/internal/usecase"
	"github.com/shams7728/stock-market-project/pkg/config"
	"github.com/shams7728/stock-market-project/pkg/logger"
	"github.com/shams7728/stock-market-project/pkg/queue"
	"github.com/shams7728/stock-market-project/pkg/util"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	mode := flag.String("mode", "once", "once | cron | worker | enqueue")
	tickers := flag.String("tickers", "", "comma separated tickers (default: configured universe)")
	from := flag.String("from", "", "window start YYYY-MM-DD (default: now - lookback)")
	to := flag.String("to", "", "window end YYYY-MM-DD (default: now)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *tickers != "" {
		cfg.Ingest.Tickers = splitTickers(*tickers)
	}

	rt, cleanup, err := di.InitializeIngest(cfg)
	if err != nil {
		log.Fatalf("ingest initialization failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = run(ctx, rt, *mode, *from, *to)
	stop()
	cleanup()
	if err != nil {
		log.Printf("ingest error: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, rt *di.IngestRuntime, mode, fromArg, toArg string) error {
	cfg := rt.Config
	end := util.ParseTimeDefault(toArg, time.Now().UTC())
	start := util.ParseTimeDefault(fromArg, end.Add(-cfg.Ingest.Lookback))

	switch mode {
	case "once":
		rep := rt.Pipeline.Run(ctx, cfg.Ingest.Tickers, start, end)
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if rep.Count(models.StatusFailed) > 0 {
			return fmt.Errorf("%d of %d tickers failed", rep.Count(models.StatusFailed), len(rep.Results))
		}
		return nil

	case "cron":
		s := scheduler.NewScheduler(ctx, rt.Pipeline, rt.Cache, rt.Log, cfg.Ingest.Tickers, cfg.Ingest.Lookback)
		if err := s.Register(cfg.Ingest.Schedule); err != nil {
			return err
		}
		s.Start()
		<-ctx.Done()
		s.Stop()
		return nil

	case "enqueue":
		if rt.Redis == nil {
			return fmt.Errorf("enqueue mode requires redis.enabled")
		}
		pub := queue.NewRedisPublisher(rt.Log, rt.Redis, queue.WithKeyPrefix("stocks:"+cfg.Ingest.Queue))
		runID, err := usecase.EnqueueTickers(ctx, pub, cfg.Ingest.Tickers, start, end)
		if err != nil {
			return err
		}
		rt.Log.Info("tickers enqueued",
			logger.String("run_id", runID),
			logger.Int("count", len(cfg.Ingest.Tickers)),
		)
		return nil

	case "worker":
		if rt.Redis == nil {
			return fmt.Errorf("worker mode requires redis.enabled")
		}
		job := usecase.NewIngestJob(rt.Pipeline, cfg.Ingest.Lookback)
		consumer := queue.NewRedisConsumer(rt.Log,
			&queue.QueueConfig{Workers: cfg.Ingest.Workers},
			rt.Redis,
			[]queue.Job{job},
			queue.WithKeyPrefix("stocks:"+cfg.Ingest.Queue),
		)
		if err := consumer.Start(); err != nil {
			return fmt.Errorf("start queue worker: %w", err)
		}
		<-ctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return consumer.Stop(sctx)
	}
	return fmt.Errorf("unknown mode %q", mode)
}

func splitTickers(v string) []string {
	var out []string
	for _, t := range strings.Split(v, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
