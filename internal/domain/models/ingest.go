package models

import "time"

// IngestStatus is the terminal state of one ticker in a pipeline run.
type IngestStatus string

const (
	StatusStored  IngestStatus = "stored"
	StatusSkipped IngestStatus = "skipped"
	StatusFailed  IngestStatus = "failed"
)

// TickerResult is the outcome of ingesting one ticker.
type TickerResult struct {
	Ticker    string        `json:"ticker"`
	Symbol    string        `json:"symbol"`
	Status    IngestStatus  `json:"status"`
	Reason    ErrorKind     `json:"reason,omitempty"`
	Message   string        `json:"message,omitempty"`
	Retriable bool          `json:"retriable,omitempty"`
	Bars      int           `json:"bars,omitempty"`
	Dropped   int           `json:"dropped,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// IngestReport summarizes a pipeline run, one result per requested ticker.
type IngestReport struct {
	RunID      string         `json:"run_id"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Results    []TickerResult `json:"results"`
}

// Count returns the number of results with the given status.
func (r *IngestReport) Count(s IngestStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// IngestedEvent is published after a record is stored.
type IngestedEvent struct {
	RunID     string    `json:"run_id"`
	Ticker    string    `json:"ticker"`
	MarketCap float64   `json:"market_cap"`
	Bars      int       `json:"bars"`
	LastDate  string    `json:"last_date"`
	StoredAt  time.Time `json:"stored_at"`
}
