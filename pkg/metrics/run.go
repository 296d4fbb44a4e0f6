package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RunMetrics records metadata for attribution analysis runs.
type RunMetrics struct {
	duration  *prometheus.HistogramVec
	processed *prometheus.CounterVec
	skipped   *prometheus.CounterVec
	failure   *prometheus.CounterVec
	cacheHits *prometheus.CounterVec
}

// NewRunMetrics registers the attribution run metrics on the provided registerer.
func NewRunMetrics(reg prometheus.Registerer) *RunMetrics {
	if reg == nil {
		return &RunMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "attribution_run_duration_seconds",
		Help:    "Duration of attribution runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_orders_processed",
		Help: "Orders successfully attributed.",
	}, []string{"operation"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_orders_skipped",
		Help: "Orders skipped due to per-order faults.",
	}, []string{"operation"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_run_failure",
		Help: "Attribution runs that failed outright.",
	}, []string{"operation"})
	cacheHits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "attribution_cache_hits",
		Help: "Runs served from the result cache.",
	}, []string{"operation"})
	reg.MustRegister(duration, processed, skipped, failure, cacheHits)
	return &RunMetrics{
		duration:  duration,
		processed: processed,
		skipped:   skipped,
		failure:   failure,
		cacheHits: cacheHits,
	}
}

// ObserveDuration records the duration for the named operation.
func (r *RunMetrics) ObserveDuration(operation string, duration time.Duration) {
	if r == nil || r.duration == nil {
		return
	}
	r.duration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// AddProcessed adds to the processed-order counter for the named operation.
func (r *RunMetrics) AddProcessed(operation string, n int) {
	if r == nil || r.processed == nil || n <= 0 {
		return
	}
	r.processed.WithLabelValues(normalizeLabel(operation)).Add(float64(n))
}

// AddSkipped adds to the skipped-order counter for the named operation.
func (r *RunMetrics) AddSkipped(operation string, n int) {
	if r == nil || r.skipped == nil || n <= 0 {
		return
	}
	r.skipped.WithLabelValues(normalizeLabel(operation)).Add(float64(n))
}

// IncFailure increments the run failure counter for the named operation.
func (r *RunMetrics) IncFailure(operation string) {
	if r == nil || r.failure == nil {
		return
	}
	r.failure.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncCacheHit increments the cache-hit counter for the named operation.
func (r *RunMetrics) IncCacheHit(operation string) {
	if r == nil || r.cacheHits == nil {
		return
	}
	r.cacheHits.WithLabelValues(normalizeLabel(operation)).Inc()
}

func normalizeLabel(operation string) string {
	if operation == "" {
		return "unknown"
	}
	return operation
}
