package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shams7728/stock-market-project/pkg/config"
	xhttp "github.com/shams7728/stock-market-project/pkg/http"
	pkgkafka "github.com/shams7728/stock-market-project/pkg/kafka"
	"github.com/shams7728/stock-market-project/pkg/logger"
)

// App encapsulates the API server lifecycle.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	handlers   []pkgkafka.MessageHandler
}

// New creates an App. consumer may be nil when event consumption is
// disabled; handlers are registered on it at start.
func New(
	cfg *config.Config,
	log *logger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	handlers ...pkgkafka.MessageHandler,
) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		consumer:   consumer,
		handlers:   handlers,
	}
}

// Run starts the application and blocks until interrupted or the HTTP
// listener fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext is Run bound to ctx instead of process signals.
func (a *App) RunContext(ctx context.Context) error {
	if a.consumer != nil && len(a.handlers) > 0 {
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
		}
		if err := a.consumer.Start(ctx); err != nil {
			return fmt.Errorf("start kafka consumer: %w", err)
		}
	}

	errCh := a.httpServer.Start()
	a.log.Info("api started",
		logger.String("env", a.cfg.Environment),
		logger.String("store", a.cfg.Store.Type),
		logger.Bool("cache", a.cfg.Cache.Enabled),
		logger.Bool("kafka", a.consumer != nil),
	)

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err, ok := <-errCh:
		if ok && err != nil {
			a.log.Error("http server error", logger.Error(err))
			runErr = err
		}
	}

	a.shutdown()
	return runErr
}

// shutdown stops the HTTP server and the consumer. Stores and clients are
// released by the injector's cleanup.
func (a *App) shutdown() {
	timeout := a.httpServer.ShutdownTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
}
