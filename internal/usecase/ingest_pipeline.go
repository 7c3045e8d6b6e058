package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	drepo "github.com/shams7728/stock-market-project/internal/domain/repository"
	"github.com/shams7728/stock-market-project/pkg/logger"
	"github.com/shams7728/stock-market-project/pkg/util"
)

// IngestPipeline fetches, normalizes and stores one document per ticker.
// Failures are isolated per ticker and nothing is retried.
type IngestPipeline struct {
	series       drepo.SeriesSource
	fundamentals drepo.FundamentalsSource
	store        drepo.StockStore
	norm         *Normalizer
	metrics      drepo.Metrics
	log          *logger.Logger

	events  drepo.EventPublisher
	archive drepo.BarArchive

	workers      int
	suffix       string
	known        []string
	fetchTimeout time.Duration
	sinkTimeout  time.Duration
	now          func() time.Time
}

// PipelineOption configures IngestPipeline.
type PipelineOption func(*IngestPipeline)

// WithWorkers bounds the number of tickers processed concurrently.
func WithWorkers(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithSymbolSuffix sets the exchange suffix appended to bare tickers and the
// suffixes recognized as already present.
func WithSymbolSuffix(suffix string, known []string) PipelineOption {
	return func(p *IngestPipeline) {
		p.suffix = suffix
		p.known = known
	}
}

// WithFetchTimeout bounds each upstream call.
func WithFetchTimeout(d time.Duration) PipelineOption {
	return func(p *IngestPipeline) {
		p.fetchTimeout = d
	}
}

// WithEventPublisher announces stored records.
func WithEventPublisher(ev drepo.EventPublisher) PipelineOption {
	return func(p *IngestPipeline) {
		p.events = ev
	}
}

// WithBarArchive copies stored bars into an archive.
func WithBarArchive(a drepo.BarArchive) PipelineOption {
	return func(p *IngestPipeline) {
		p.archive = a
	}
}

// NewIngestPipeline creates a pipeline. fundamentals may be nil.
func NewIngestPipeline(
	series drepo.SeriesSource,
	fundamentals drepo.FundamentalsSource,
	store drepo.StockStore,
	norm *Normalizer,
	metrics drepo.Metrics,
	log *logger.Logger,
	opts ...PipelineOption,
) *IngestPipeline {
	p := &IngestPipeline{
		series:       series,
		fundamentals: fundamentals,
		store:        store,
		norm:         norm,
		metrics:      metrics,
		log:          log,
		workers:      4,
		fetchTimeout: 15 * time.Second,
		sinkTimeout:  10 * time.Second,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.NewNop()
	}
	return p
}

// Run ingests tickers over [from, to) and reports one result per ticker in
// input order.
func (p *IngestPipeline) Run(ctx context.Context, tickers []string, from, to time.Time) *models.IngestReport {
	report := &models.IngestReport{
		RunID:     uuid.NewString(),
		StartedAt: p.now().UTC(),
		Results:   make([]models.TickerResult, len(tickers)),
	}
	log := p.log.With(logger.String("run_id", report.RunID))
	log.Info("ingest run started",
		logger.Int("tickers", len(tickers)),
		logger.String("from", util.FormatDate(from)),
		logger.String("to", util.FormatDate(to)),
		logger.Int("workers", p.workers),
	)

	g := new(errgroup.Group)
	g.SetLimit(p.workers)
	for i, t := range tickers {
		i, t := i, t
		g.Go(func() error {
			report.Results[i] = p.ingest(ctx, log, report.RunID, t, from, to)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = p.now().UTC()
	log.Info("ingest run finished",
		logger.Int("stored", report.Count(models.StatusStored)),
		logger.Int("skipped", report.Count(models.StatusSkipped)),
		logger.Int("failed", report.Count(models.StatusFailed)),
		logger.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report
}

// IngestTicker runs the pipeline for a single ticker.
func (p *IngestPipeline) IngestTicker(ctx context.Context, runID, ticker string, from, to time.Time) models.TickerResult {
	return p.ingest(ctx, p.log.With(logger.String("run_id", runID)), runID, ticker, from, to)
}

func (p *IngestPipeline) ingest(ctx context.Context, log *logger.Logger, runID, ticker string, from, to time.Time) (res models.TickerResult) {
	start := time.Now()
	symbol := models.UpstreamSymbol(ticker, p.suffix, p.known)
	res = models.TickerResult{
		Ticker: models.CanonicalTicker(symbol, p.norm.suffixes),
		Symbol: symbol,
	}
	log = log.With(logger.String("ticker", res.Ticker), logger.String("symbol", symbol))

	defer func() {
		res.Duration = time.Since(start)
		if p.metrics != nil {
			p.metrics.RecordIngest(string(res.Status), string(res.Reason))
			p.metrics.RecordLatency("ingest.ticker", res.Duration.Seconds())
		}
	}()

	fetchCtx, cancel := p.bound(ctx, p.fetchTimeout)
	raw, err := p.series.FetchSeries(fetchCtx, symbol, from, to)
	cancel()
	if err != nil {
		p.skip(log, &res, err)
		return res
	}
	if len(raw) == 0 {
		p.skip(log, &res, models.UpstreamDataMissing("ingest.fetch", "no series data returned"))
		return res
	}

	bars, _ := p.norm.Clean(raw)
	if err := p.norm.Validate(bars); err != nil {
		p.skip(log, &res, err)
		return res
	}

	fundamentals := p.fetchFundamentals(ctx, log, symbol)

	rec, err := p.norm.Normalize(symbol, bars, fundamentals)
	if err != nil {
		p.skip(log, &res, err)
		return res
	}
	res.Ticker = rec.Ticker
	res.Bars = len(rec.History)
	res.Dropped = len(raw) - len(rec.History)

	if err := p.store.Replace(ctx, rec); err != nil {
		if models.KindOf(err) == "" {
			err = models.StoreUnavailable("ingest.store", err)
		}
		res.Status = models.StatusFailed
		res.Reason = models.KindStoreUnavailable
		res.Message = err.Error()
		res.Retriable = retriable(err)
		log.Error("store record failed", logger.Error(err))
		return res
	}

	res.Status = models.StatusStored
	if p.metrics != nil {
		p.metrics.RecordMarketCap(rec.Ticker, rec.MarketCap)
	}
	log.Info("record stored",
		logger.Int("bars", res.Bars),
		logger.Int("dropped", res.Dropped),
		logger.Float64("market_cap", rec.MarketCap),
	)

	p.sink(ctx, log, runID, rec)
	return res
}

func (p *IngestPipeline) fetchFundamentals(ctx context.Context, log *logger.Logger, symbol string) models.Fundamentals {
	if p.fundamentals == nil {
		return models.Fundamentals{}
	}
	fctx, cancel := p.bound(ctx, p.fetchTimeout)
	defer cancel()
	f, err := p.fundamentals.FetchFundamentals(fctx, symbol)
	if err != nil {
		log.Warn("fundamentals unavailable, storing without them", logger.Error(err))
		if p.metrics != nil {
			p.metrics.RecordError("fundamentals")
		}
		return models.Fundamentals{}
	}
	return f
}

// sink offers a stored record to the optional archive and event stream.
// Errors never change the ticker outcome.
func (p *IngestPipeline) sink(ctx context.Context, log *logger.Logger, runID string, rec *models.StockRecord) {
	if p.archive != nil {
		sctx, cancel := p.bound(ctx, p.sinkTimeout)
		err := p.archive.ArchiveBars(sctx, rec.Ticker, rec.History)
		cancel()
		if err != nil {
			log.Warn("archive bars failed", logger.Error(err))
			if p.metrics != nil {
				p.metrics.RecordError("sink_archive")
			}
		}
	}
	if p.events != nil {
		ev := models.IngestedEvent{
			RunID:     runID,
			Ticker:    rec.Ticker,
			MarketCap: rec.MarketCap,
			Bars:      len(rec.History),
			StoredAt:  rec.UpdatedAt,
		}
		if n := len(rec.History); n > 0 {
			ev.LastDate = rec.History[n-1].Date
		}
		sctx, cancel := p.bound(ctx, p.sinkTimeout)
		err := p.events.PublishIngested(sctx, ev)
		cancel()
		if err != nil {
			log.Warn("publish ingested event failed", logger.Error(err))
			if p.metrics != nil {
				p.metrics.RecordError("sink_events")
			}
		}
	}
}

func (p *IngestPipeline) skip(log *logger.Logger, res *models.TickerResult, err error) {
	kind := models.KindOf(err)
	if kind == "" {
		kind = models.KindUpstreamUnavailable
	}
	res.Status = models.StatusSkipped
	res.Reason = kind
	res.Message = err.Error()
	res.Retriable = retriable(err)
	log.Warn("ticker skipped",
		logger.String("reason", string(kind)),
		logger.Bool("retriable", res.Retriable),
		logger.Error(err),
	)
}

func (p *IngestPipeline) bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func retriable(err error) bool {
	var de *models.Error
	if errors.As(err, &de) {
		return de.Retriable()
	}
	return models.IsTransient(err)
}
