package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MovementMetrics records outcomes of movement executions.
type MovementMetrics struct {
	duration     *prometheus.HistogramVec
	outcomes     *prometheus.CounterVec
	insufficient prometheus.Counter
	retries      prometheus.Counter
}

// NewMovementMetrics registers the movement engine metrics on the provided registerer.
func NewMovementMetrics(reg prometheus.Registerer) *MovementMetrics {
	if reg == nil {
		return &MovementMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "movement_duration_seconds",
		Help:    "Duration of movement transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "movement_total",
		Help: "Movements executed by kind and outcome.",
	}, []string{"kind", "outcome"})
	insufficient := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "movement_insufficient_stock_total",
		Help: "Movements rejected because the source cell lacked quantity.",
	})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "movement_transient_retries_total",
		Help: "Transaction retries triggered by serialization conflicts.",
	})
	reg.MustRegister(duration, outcomes, insufficient, retries)
	return &MovementMetrics{
		duration:     duration,
		outcomes:     outcomes,
		insufficient: insufficient,
		retries:      retries,
	}
}

// ObserveDuration records the wall time for a movement of the given kind.
func (m *MovementMetrics) ObserveDuration(kind string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

// IncOutcome increments the counter for a movement kind/outcome pair.
func (m *MovementMetrics) IncOutcome(kind, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

// IncInsufficientStock counts rejections caused by the non-negative stock guard.
func (m *MovementMetrics) IncInsufficientStock() {
	if m == nil || m.insufficient == nil {
		return
	}
	m.insufficient.Inc()
}

// IncTransientRetry counts retried transactions.
func (m *MovementMetrics) IncTransientRetry() {
	if m == nil || m.retries == nil {
		return
	}
	m.retries.Inc()
}
