package core

import (
	"context"
	"expvar"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Counter names recorded by the engine.
const (
	CounterEdgesParent      = "edges_parent"
	CounterEdgesSpouse      = "edges_spouse"
	CounterEdgesLineOnly    = "edges_line_only"
	CounterEdgesSkipped     = "edges_skipped"
	CounterIntegrityRepairs = "integrity_repairs"
	CounterQuotaFallbacks   = "quota_fallbacks"
	CounterCorruptLoads     = "corrupt_loads"
	CounterRejectedLoads    = "rejected_loads"
	CounterRecoveryPasses   = "recovery_passes"
	CounterSaveFailures     = "save_failures"
)

// MetricsRecorder receives aggregate outcomes from engine operations. Edge
// skips, integrity repairs, and quota fallbacks are internal conditions:
// they are counted here and never bubble up as errors.
type MetricsRecorder interface {
	// Observe records one engine operation outcome.
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	// Add increments a named counter.
	Add(ctx context.Context, counter string, delta int64)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
func (noopMetrics) Add(context.Context, string, int64)                   {}

func orNoopMetrics(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}

var expvarSeq uint64

// ExpvarMetricsRecorder publishes aggregate timing and result counters via
// expvar, for deployments that prefer process-local metrics without external
// dependencies. Totals are kept in milliseconds per operation plus
// success/error counts and named counters.
type ExpvarMetricsRecorder struct {
	name      string
	mu        sync.Mutex
	durations map[string]float64
	results   map[string]map[string]int64
	counters  map[string]int64
}

// ExpvarMetricsSnapshot captures a read-only view of the recorded metrics.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
	Counters    map[string]int64            `json:"counters_total"`
	RecordedAt  time.Time                   `json:"recorded_at"`
}

// NewExpvarMetricsRecorder constructs an expvar-backed recorder and
// publishes it under the supplied name. When name is empty, a unique
// identifier is generated.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" {
		id := atomic.AddUint64(&expvarSeq, 1)
		name = fmt.Sprintf("engine_metrics_%d", id)
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: make(map[string]float64),
		results:   make(map[string]map[string]int64),
		counters:  make(map[string]int64),
	}
	expvar.Publish(name, expvar.Func(func() any {
		return rec.Snapshot()
	}))
	return rec
}

// Name returns the expvar export name associated with the recorder.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Snapshot returns an immutable copy of the aggregated metrics.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	durations := make(map[string]float64, len(r.durations))
	for op, total := range r.durations {
		durations[op] = total
	}

	results := make(map[string]map[string]int64, len(r.results))
	for op, statusCounts := range r.results {
		cpy := make(map[string]int64, len(statusCounts))
		for status, count := range statusCounts {
			cpy[status] = count
		}
		results[op] = cpy
	}

	counters := make(map[string]int64, len(r.counters))
	for name, v := range r.counters {
		counters[name] = v
	}

	return ExpvarMetricsSnapshot{
		DurationsMS: durations,
		Results:     results,
		Counters:    counters,
		RecordedAt:  time.Now().UTC(),
	}
}

// Observe records an engine operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	ms := float64(duration) / float64(time.Millisecond)
	status := "error"
	if success {
		status = "success"
	}

	r.mu.Lock()
	r.durations[operation] += ms
	if _, ok := r.results[operation]; !ok {
		r.results[operation] = make(map[string]int64, 2)
	}
	r.results[operation][status]++
	r.mu.Unlock()
}

// Add increments a named counter.
func (r *ExpvarMetricsRecorder) Add(_ context.Context, counter string, delta int64) {
	if counter == "" || delta == 0 {
		return
	}
	r.mu.Lock()
	r.counters[counter] += delta
	r.mu.Unlock()
}
