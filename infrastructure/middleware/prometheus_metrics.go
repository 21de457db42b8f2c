// Package middleware provides cross-cutting concerns for the grading engine.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ahrav/go-grader/internal/ports"
)

// PrometheusMetrics implements the MetricsCollector interface using Prometheus.
// It exposes outcome counts per status, unit latencies, hook failures,
// internal errors and synthesized scores.
type PrometheusMetrics struct {
	outcomes         *prometheus.CounterVec
	hookFailures     *prometheus.CounterVec
	internalErrors   *prometheus.CounterVec
	executionLatency *prometheus.HistogramVec
	scores           prometheus.Histogram
	operationCounter *prometheus.CounterVec
	systemGauges     *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a new PrometheusMetrics instance and registers
// all required metrics with reg. A nil reg selects the global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		outcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grading_outcomes_total",
				Help: "Outcome records collected, by phase and pass status.",
			},
			[]string{"phase", "status"},
		),
		hookFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grading_hook_failures_total",
				Help: "Hooks whose body failed, by phase.",
			},
			[]string{"phase", "unit"},
		),
		internalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grading_internal_errors_total",
				Help: "Grading runs aborted by an internal defect, by phase.",
			},
			[]string{"phase"},
		),
		executionLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grading_execution_duration_seconds",
				Help:    "Execution time of grading runs and individual units.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "unit"},
		),
		scores: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "grading_score",
				Help:    "Distribution of synthesized grades.",
				Buckets: prometheus.LinearBuckets(0, 10, 11),
			},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grading_operations_total",
				Help: "Other counted grading events.",
			},
			[]string{"operation", "unit"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "grading_state",
				Help: "Current state values of the grading engine.",
			},
			[]string{"metric"},
		),
	}
}

// unitLabel returns labels["unit"], or "unknown" when absent or empty.
func unitLabel(labels map[string]string) string {
	if unit := labels["unit"]; unit != "" {
		return unit
	}
	return "unknown"
}

// RecordLatency implements the MetricsCollector interface by recording
// execution latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.executionLatency.WithLabelValues(operation, unitLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "grading_outcomes_total":
		pm.outcomes.WithLabelValues(labels["phase"], labels["status"]).Add(value)
	case "grading_hook_failures_total":
		pm.hookFailures.WithLabelValues(labels["phase"], unitLabel(labels)).Add(value)
	case "grading_internal_errors_total":
		pm.internalErrors.WithLabelValues(labels["phase"]).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, unitLabel(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, _ map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric).Set(value)
}

// RecordHistogram implements the MetricsCollector interface. Scores go to
// the score histogram; anything else is observed as a latency in seconds.
func (pm *PrometheusMetrics) RecordHistogram(
	metric string, value float64, labels map[string]string,
) {
	if metric == "grading_score" {
		pm.scores.Observe(value)
		return
	}
	pm.executionLatency.WithLabelValues(metric, unitLabel(labels)).Observe(value)
}

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)
