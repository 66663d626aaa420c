package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit module.
type Metrics struct {
	// Events written to the primary store, by event type
	EventsWritten *prometheus.CounterVec

	// Primary-store write failures
	WriteFailures prometheus.Counter

	// Secondary-sink write failures, by sink name
	SinkFailures *prometheus.CounterVec

	// Top-level payload keys dropped by the redaction allowlist
	KeysDropped prometheus.Counter

	// Write latency including redaction and primary insert
	WriteLatency prometheus.Histogram

	// Query latency for the read path
	QueryLatency prometheus.Histogram
}

// New creates a Metrics instance with all audit module metrics registered.
func New() *Metrics {
	return &Metrics{
		EventsWritten: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "miecredit_audit_events_written_total",
			Help: "Total audit events durably written, by event type",
		}, []string{"event_type"}),

		WriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "miecredit_audit_write_failures_total",
			Help: "Total primary-store audit write failures",
		}),

		SinkFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "miecredit_audit_sink_failures_total",
			Help: "Total secondary-sink write failures, by sink",
		}, []string{"sink"}),

		KeysDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "miecredit_audit_payload_keys_dropped_total",
			Help: "Total top-level payload keys removed by redaction",
		}),

		WriteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "miecredit_audit_write_duration_seconds",
			Help:    "Duration of audit writes including redaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		QueryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "miecredit_audit_query_duration_seconds",
			Help:    "Duration of audit event queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementWritten records a successful durable write.
func (m *Metrics) IncrementWritten(eventType string) {
	if m != nil {
		m.EventsWritten.WithLabelValues(eventType).Inc()
	}
}

// IncrementWriteFailure records a failed primary write.
func (m *Metrics) IncrementWriteFailure() {
	if m != nil {
		m.WriteFailures.Inc()
	}
}

// IncrementSinkFailure records a failed secondary-sink write.
func (m *Metrics) IncrementSinkFailure(sink string) {
	if m != nil {
		m.SinkFailures.WithLabelValues(sink).Inc()
	}
}

// AddKeysDropped records payload keys removed by redaction.
func (m *Metrics) AddKeysDropped(n int) {
	if m != nil && n > 0 {
		m.KeysDropped.Add(float64(n))
	}
}

// ObserveWriteLatency records the duration of a full write.
func (m *Metrics) ObserveWriteLatency(d time.Duration) {
	if m != nil {
		m.WriteLatency.Observe(d.Seconds())
	}
}

// ObserveQueryLatency records the duration of a query.
func (m *Metrics) ObserveQueryLatency(d time.Duration) {
	if m != nil {
		m.QueryLatency.Observe(d.Seconds())
	}
}
