// Package graph provides the core graph execution engine.
package graph

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics provides Prometheus-compatible metrics for a workflow
// run, namespaced "acp":
//
//   - phase_duration_ms (histogram): wall-clock time a phase agent spent
//     before its governance node ran. Labels: phase.
//   - governance_result_total (counter): governance pass/fail outcomes.
//     Labels: phase, result (pass/fail).
//   - retries_total (counter): retry attempts per node and reason. Labels:
//     run_id, node_id, reason.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	metrics := NewPrometheusMetrics(registry)
//	engine := New[MyState](reducer, store, emitter, Options{Metrics: metrics})
//	http.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
type PrometheusMetrics struct {
	phaseDuration     *prometheus.HistogramVec
	governanceResult  *prometheus.CounterVec
	retries           *prometheus.CounterVec

	registry prometheus.Registerer

	mu      sync.RWMutex
	enabled bool
}

// NewPrometheusMetrics creates and registers the workflow engine's metrics
// with registry. Pass prometheus.DefaultRegisterer for the global registry,
// or a fresh prometheus.NewRegistry() for isolation (recommended in tests).
func NewPrometheusMetrics(registry prometheus.Registerer) *PrometheusMetrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	pm := &PrometheusMetrics{
		registry: registry,
		enabled:  true,
	}

	pm.phaseDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "acp",
		Name:      "phase_duration_ms",
		Help:      "Duration in milliseconds a phase agent ran before its governance check",
		Buckets:   []float64{100, 500, 1000, 5000, 10000, 30000, 60000, 300000},
	}, []string{"phase"})

	pm.governanceResult = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acp",
		Name:      "governance_result_total",
		Help:      "Governance check outcomes per phase",
	}, []string{"phase", "result"}) // result: pass, fail

	pm.retries = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acp",
		Name:      "retries_total",
		Help:      "Cumulative count of node retry attempts across all executions",
	}, []string{"run_id", "node_id", "reason"})

	return pm
}

// RecordPhaseDuration records how long a phase agent ran before its
// governance node observed the result.
func (pm *PrometheusMetrics) RecordPhaseDuration(phase string, d time.Duration) {
	if !pm.enabled {
		return
	}
	pm.phaseDuration.WithLabelValues(phase).Observe(float64(d.Milliseconds()))
}

// RecordGovernanceResult increments the pass/fail counter for phase.
func (pm *PrometheusMetrics) RecordGovernanceResult(phase string, passed bool) {
	if !pm.enabled {
		return
	}
	result := "fail"
	if passed {
		result = "pass"
	}
	pm.governanceResult.WithLabelValues(phase, result).Inc()
}

// IncrementRetries increments the retry counter for a specific node and reason.
func (pm *PrometheusMetrics) IncrementRetries(runID, nodeID, reason string) {
	if !pm.enabled {
		return
	}
	pm.retries.WithLabelValues(runID, nodeID, reason).Inc()
}

// Disable temporarily disables metric recording (useful for testing).
func (pm *PrometheusMetrics) Disable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = false
}

// Enable re-enables metric recording after Disable().
func (pm *PrometheusMetrics) Enable() {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.enabled = true
}
