package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shams7728/stock-market-project/internal/domain/models"
	"github.com/shams7728/stock-market-project/pkg/queue"
	"github.com/shams7728/stock-market-project/pkg/util"
)

// IngestTickerMessage is the queue message type handled by IngestJob.
const IngestTickerMessage = "ingest_ticker"

// IngestRequest asks a worker to ingest one ticker. Dates are YYYY-MM-DD;
// empty dates fall back to the job's lookback window.
type IngestRequest struct {
	RunID  string `json:"run_id,omitempty"`
	Ticker string `json:"ticker"`
	From   string `json:"from,omitempty"`
	To     string `json:"to,omitempty"`
}

// IngestJob runs the pipeline for queued tickers.
type IngestJob struct {
	pipeline *IngestPipeline
	lookback time.Duration
	now      func() time.Time
}

// NewIngestJob creates the queue job.
func NewIngestJob(p *IngestPipeline, lookback time.Duration) *IngestJob {
	return &IngestJob{pipeline: p, lookback: lookback, now: time.Now}
}

var _ queue.Job = (*IngestJob)(nil)

func (j *IngestJob) Name() string { return "ingest-ticker" }

func (j *IngestJob) Type() string { return IngestTickerMessage }

// Handle ingests the requested ticker. Failed tickers and retriable skips
// return an error so the message is kept on the dead letter list; data
// problems are final and acknowledged.
func (j *IngestJob) Handle(ctx context.Context, payload json.RawMessage) error {
	req, err := queue.Decode[IngestRequest](payload)
	if err != nil {
		return err
	}
	if req.Ticker == "" {
		return fmt.Errorf("ingest request without ticker")
	}

	to := util.ParseTimeDefault(req.To, j.now().UTC())
	from := util.ParseTimeDefault(req.From, to.Add(-j.lookback))
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	res := j.pipeline.IngestTicker(ctx, runID, req.Ticker, from, to)
	switch {
	case res.Status == models.StatusFailed:
		return fmt.Errorf("ingest %s failed: %s", res.Ticker, res.Message)
	case res.Status == models.StatusSkipped && res.Retriable:
		return fmt.Errorf("ingest %s skipped: %s", res.Ticker, res.Message)
	}
	return nil
}

// EnqueueTickers publishes one IngestRequest per ticker under a shared run ID.
func EnqueueTickers(ctx context.Context, q queue.QueueService, tickers []string, from, to time.Time) (string, error) {
	runID := uuid.NewString()
	for _, t := range tickers {
		req := IngestRequest{RunID: runID, Ticker: t}
		if !from.IsZero() {
			req.From = util.FormatDate(from)
		}
		if !to.IsZero() {
			req.To = util.FormatDate(to)
		}
		if err := q.PublishMessage(ctx, IngestTickerMessage, req); err != nil {
			return runID, fmt.Errorf("enqueue %s: %w", t, err)
		}
	}
	return runID, nil
}
