// Package metrics defines the Prometheus instruments used by the application
// services. Every interface has a no-op implementation for tests.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "social_golf"

// OperationMetrics is recorded by every service operation wrapper.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, d time.Duration)
}

// HandicapMetrics adds recalculation specific instruments.
type HandicapMetrics interface {
	OperationMetrics
	RecordHandicapComputed(ctx context.Context, value float64, windowSize int)
	RecordDisposition(ctx context.Context, disposition string)
}

// ScoreMetrics adds instruments for score recording and event publishing.
type ScoreMetrics interface {
	OperationMetrics
	RecordPublishAttempt(ctx context.Context, topic string)
	RecordPublishFailure(ctx context.Context, topic string)
	RecordHandicapStatus(ctx context.Context, status string)
}

type operationMetrics struct {
	attempts  *prometheus.CounterVec
	successes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func newOperationMetrics(f promauto.Factory, subsystem string) operationMetrics {
	labels := []string{"service", "operation"}
	return operationMetrics{
		attempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "operation_attempts_total", Help: "Service operations started.",
		}, labels),
		successes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "operation_success_total", Help: "Service operations completed without infrastructure error.",
		}, labels),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "operation_failures_total", Help: "Service operations that returned an infrastructure error or panicked.",
		}, labels),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem,
			Name: "operation_duration_seconds", Help: "Service operation latency.",
			Buckets: prometheus.DefBuckets,
		}, labels),
	}
}

func (m operationMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(service, operation).Inc()
}

func (m operationMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(service, operation).Inc()
}

func (m operationMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(service, operation).Inc()
}

func (m operationMetrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.duration.WithLabelValues(service, operation).Observe(d.Seconds())
}

type handicapMetrics struct {
	operationMetrics
	computed     prometheus.Histogram
	windowSize   prometheus.Histogram
	dispositions *prometheus.CounterVec
}

// NewHandicapMetrics registers the handicap instruments on reg.
func NewHandicapMetrics(reg prometheus.Registerer) HandicapMetrics {
	f := promauto.With(reg)
	return &handicapMetrics{
		operationMetrics: newOperationMetrics(f, "handicap"),
		computed: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "handicap",
			Name: "computed_value", Help: "Distribution of computed handicap values.",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		}),
		windowSize: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "handicap",
			Name: "window_size", Help: "Number of scores examined per recalculation.",
			Buckets: prometheus.LinearBuckets(0, 4, 6),
		}),
		dispositions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "handicap",
			Name: "event_dispositions_total", Help: "Recalculation events by delivery outcome.",
		}, []string{"disposition"}),
	}
}

func (m *handicapMetrics) RecordHandicapComputed(_ context.Context, value float64, windowSize int) {
	m.computed.Observe(value)
	m.windowSize.Observe(float64(windowSize))
}

func (m *handicapMetrics) RecordDisposition(_ context.Context, disposition string) {
	m.dispositions.WithLabelValues(disposition).Inc()
}

type scoreMetrics struct {
	operationMetrics
	publishAttempts *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	statuses        *prometheus.CounterVec
}

// NewScoreMetrics registers the score instruments on reg.
func NewScoreMetrics(reg prometheus.Registerer) ScoreMetrics {
	f := promauto.With(reg)
	return &scoreMetrics{
		operationMetrics: newOperationMetrics(f, "score"),
		publishAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "score",
			Name: "publish_attempts_total", Help: "Event publish attempts including retries.",
		}, []string{"topic"}),
		publishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "score",
			Name: "publish_failures_total", Help: "Events that could not be published after all retries.",
		}, []string{"topic"}),
		statuses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "score",
			Name: "handicap_status_total", Help: "Handicap status reported to clients after a score write.",
		}, []string{"status"}),
	}
}

func (m *scoreMetrics) RecordPublishAttempt(_ context.Context, topic string) {
	m.publishAttempts.WithLabelValues(topic).Inc()
}

func (m *scoreMetrics) RecordPublishFailure(_ context.Context, topic string) {
	m.publishFailures.WithLabelValues(topic).Inc()
}

func (m *scoreMetrics) RecordHandicapStatus(_ context.Context, status string) {
	m.statuses.WithLabelValues(status).Inc()
}

// NewOperationMetrics registers a plain set of operation instruments under
// subsystem. Each subsystem may be registered once per registry.
func NewOperationMetrics(reg prometheus.Registerer, subsystem string) OperationMetrics {
	return newOperationMetrics(promauto.With(reg), subsystem)
}
