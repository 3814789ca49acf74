package gamemetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GameMetrics records game module measurements.
type GameMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, duration time.Duration)
	// RecordSubmission counts an answer or vote admission by kind and outcome.
	RecordSubmission(ctx context.Context, kind, status string)
	// RecordPhaseTransition counts a room phase change.
	RecordPhaseTransition(ctx context.Context, from, to string)
	// RecordSchedulerUnavailable counts deadlines that could not be armed.
	RecordSchedulerUnavailable(ctx context.Context, phase string)
}

type prometheusMetrics struct {
	attempts    *prometheus.CounterVec
	successes   *prometheus.CounterVec
	failures    *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	submissions *prometheus.CounterVec
	transitions *prometheus.CounterVec
	unscheduled *prometheus.CounterVec
}

// NewPrometheus registers the game collectors on registerer and returns a
// GameMetrics backed by them.
func NewPrometheus(registerer prometheus.Registerer, namespace string) (GameMetrics, error) {
	m := &prometheusMetrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "operation_attempts_total",
			Help:      "Service operations started.",
		}, []string{"operation", "service"}),
		successes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "operation_success_total",
			Help:      "Service operations that completed without an infrastructure error.",
		}, []string{"operation", "service"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "operation_failures_total",
			Help:      "Service operations that failed with an infrastructure error or panic.",
		}, []string{"operation", "service"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "service"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "submissions_total",
			Help:      "Answer and vote admissions by kind and status.",
		}, []string{"kind", "status"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "phase_transitions_total",
			Help:      "Room phase transitions.",
		}, []string{"from", "to"}),
		unscheduled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "scheduler_unavailable_total",
			Help:      "Phase deadlines that could not be scheduled.",
		}, []string{"phase"}),
	}

	for _, c := range []prometheus.Collector{
		m.attempts, m.successes, m.failures, m.durations,
		m.submissions, m.transitions, m.unscheduled,
	} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *prometheusMetrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.attempts.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.successes.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.failures.WithLabelValues(operation, service).Inc()
}

func (m *prometheusMetrics) RecordOperationDuration(_ context.Context, operation, service string, duration time.Duration) {
	m.durations.WithLabelValues(operation, service).Observe(duration.Seconds())
}

func (m *prometheusMetrics) RecordSubmission(_ context.Context, kind, status string) {
	m.submissions.WithLabelValues(kind, status).Inc()
}

func (m *prometheusMetrics) RecordPhaseTransition(_ context.Context, from, to string) {
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *prometheusMetrics) RecordSchedulerUnavailable(_ context.Context, phase string) {
	m.unscheduled.WithLabelValues(phase).Inc()
}

type noop struct{}

// NewNoop returns a GameMetrics that discards everything.
func NewNoop() GameMetrics { return noop{} }

func (noop) RecordOperationAttempt(context.Context, string, string) {}
func (noop) RecordOperationSuccess(context.Context, string, string) {}
func (noop) RecordOperationFailure(context.Context, string, string) {}
func (noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noop) RecordSubmission(context.Context, string, string) {}
func (noop) RecordPhaseTransition(context.Context, string, string) {}
func (noop) RecordSchedulerUnavailable(context.Context, string) {}
