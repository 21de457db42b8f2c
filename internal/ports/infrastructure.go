package ports

import (
	"context"
	"time"
)

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	// This is useful for tracking events like outcomes per status or
	// internal errors per rule.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	// This is useful for tracking values like the last synthesized score.
	RecordGauge(metric string, value float64, labels map[string]string)

	// RecordHistogram records a value in a histogram.
	// This is useful for tracking distributions like scores.
	RecordHistogram(metric string, value float64, labels map[string]string)
}

// ProgressObserver receives the intermediate notifications a streaming
// hook yields while it runs.
type ProgressObserver interface {
	// Progress is called once per notification, in the order the hook
	// yields them, before the hook returns.
	Progress(ctx context.Context, hook string, message string)
}

// NopMetrics is a MetricsCollector that discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordLatency(string, time.Duration, map[string]string) {}
func (NopMetrics) RecordCounter(string, float64, map[string]string)       {}
func (NopMetrics) RecordGauge(string, float64, map[string]string)         {}
func (NopMetrics) RecordHistogram(string, float64, map[string]string)     {}

var _ MetricsCollector = NopMetrics{}
