package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters/histograms the orchestrator updates per
// Compute run and the DAL updates per call. A Metrics built by
// NewMetrics is safe to pass through goroutines since prometheus
// collectors are internally synchronized; a zero-value Metrics has nil
// collectors and must not be used.
type Metrics struct {
	ComputeRuns     *prometheus.CounterVec
	ComputeDuration prometheus.Histogram
	DALCalls        *prometheus.CounterVec
	DALCacheHits    prometheus.Counter
}

// NewMetrics registers the module's collectors against reg and
// returns the handles the orchestrator/DAL use to record them.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ComputeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mrpcalc_compute_runs_total",
			Help: "Number of Compute invocations, partitioned by outcome.",
		}, []string{"outcome"}),
		ComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mrpcalc_compute_duration_seconds",
			Help:    "Wall-clock duration of Compute invocations.",
			Buckets: prometheus.DefBuckets,
		}),
		DALCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mrpcalc_dal_calls_total",
			Help: "Number of DAL operations issued, partitioned by operation.",
		}, []string{"operation"}),
		DALCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mrpcalc_dal_cache_hits_total",
			Help: "Number of DAL reads served from the per-run memo map.",
		}),
	}
	reg.MustRegister(m.ComputeRuns, m.ComputeDuration, m.DALCalls, m.DALCacheHits)
	return m
}
