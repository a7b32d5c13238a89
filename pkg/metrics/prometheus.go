package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	modelCount   prometheus.Gauge
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantforge_fetches_total",
				Help: "Total number of upstream market data fetches",
			},
			[]string{"symbol", "period"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quantforge_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		modelCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "quantforge_registry_models",
				Help: "Number of models currently in the registry",
			},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quantforge_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one upstream candle or quote fetch.
func (r *Recorder) RecordFetch(symbol, period string) {
	r.fetchesTotal.WithLabelValues(symbol, period).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordModelCount records the current registry size.
func (r *Recorder) RecordModelCount(n int) {
	r.modelCount.Set(float64(n))
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
