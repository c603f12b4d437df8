package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports engine metrics through a prometheus
// registry, for deployments that already scrape one.
type PrometheusMetricsRecorder struct {
	ops       *prometheus.CounterVec
	durations *prometheus.HistogramVec
	counters  *prometheus.CounterVec
}

// NewPrometheusMetricsRecorder constructs a recorder and registers its
// collectors on reg (prometheus.DefaultRegisterer when nil).
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PrometheusMetricsRecorder{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kincore",
			Name:      "operations_total",
			Help:      "Engine operations by name and outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kincore",
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		counters: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kincore",
			Name:      "events_total",
			Help:      "Engine event counters (derived edges, skips, repairs, fallbacks).",
		}, []string{"event"}),
	}
	for _, c := range []prometheus.Collector{r.ops, r.durations, r.counters} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records an engine operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.ops.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Add increments a named event counter.
func (r *PrometheusMetricsRecorder) Add(_ context.Context, counter string, delta int64) {
	if counter == "" || delta <= 0 {
		return
	}
	r.counters.WithLabelValues(counter).Add(float64(delta))
}
