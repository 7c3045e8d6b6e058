package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ingestTotal *prometheus.CounterVec
	errorsTotal *prometheus.CounterVec
	marketCap   *prometheus.GaugeVec
	latency     *prometheus.HistogramVec
	cacheTotal  *prometheus.CounterVec
}

// New creates a recorder registered on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		ingestTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocks_ingest_tickers_total",
				Help: "Tickers processed by the ingestion pipeline by outcome",
			},
			[]string{"status", "reason"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocks_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		marketCap: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "stocks_market_cap_proxy",
				Help: "Last stored market cap proxy (close x volume) per ticker",
			},
			[]string{"ticker"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stocks_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stocks_response_cache_total",
				Help: "Response cache lookups by result",
			},
			[]string{"result"},
		),
	}
}

// RecordIngest records one ticker reaching a terminal state.
func (r *Recorder) RecordIngest(status, reason string) {
	r.ingestTotal.WithLabelValues(status, reason).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordMarketCap records the stored market cap proxy for a ticker.
func (r *Recorder) RecordMarketCap(ticker string, value float64) {
	r.marketCap.WithLabelValues(ticker).Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// RecordCache records a response cache hit or miss.
func (r *Recorder) RecordCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheTotal.WithLabelValues(result).Inc()
}
