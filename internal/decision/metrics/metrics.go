// Package metrics exposes Prometheus instrumentation for the decision
// service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the decision-path collectors. A nil *Metrics is safe to call;
// every method no-ops, which keeps tests free of registry wiring.
type Metrics struct {
	Scores          *prometheus.CounterVec
	Explanations    prometheus.Counter
	FairnessReports prometheus.Counter
	Rejections      *prometheus.CounterVec
	ScoreLatency    prometheus.Histogram
}

// New registers the decision collectors on the default registry.
func New() *Metrics {
	return &Metrics{
		Scores: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "miecredit_decision_scores_total",
			Help: "Scoring operations served, by decision label.",
		}, []string{"decision"}),
		Explanations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "miecredit_decision_explanations_total",
			Help: "Explanation operations served.",
		}),
		FairnessReports: promauto.NewCounter(prometheus.CounterOpts{
			Name: "miecredit_decision_fairness_reports_total",
			Help: "Fairness reports computed.",
		}),
		Rejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "miecredit_decision_rejections_total",
			Help: "Requests rejected before scoring, by reason.",
		}, []string{"reason"}),
		ScoreLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "miecredit_decision_score_duration_seconds",
			Help:    "End-to-end scoring latency including the audit write.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncrementScore(decision string) {
	if m == nil {
		return
	}
	m.Scores.WithLabelValues(decision).Inc()
}

func (m *Metrics) IncrementExplanation() {
	if m == nil {
		return
	}
	m.Explanations.Inc()
}

func (m *Metrics) IncrementFairnessReport() {
	if m == nil {
		return
	}
	m.FairnessReports.Inc()
}

func (m *Metrics) IncrementRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

func (m *Metrics) ObserveScoreLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.ScoreLatency.Observe(d.Seconds())
}
