package metrics

import (
	"time"

	"mercator-hq/procurement/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// DecisionMetrics tracks purchase decisions.
//
// Metrics:
//   - procurement_engine_decisions_total: decisions by outcome and strategy
//   - procurement_engine_decision_duration_seconds: decision latency by outcome
//   - procurement_engine_offers_considered: usable offers reaching selection
type DecisionMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
	offersConsidered prometheus.Histogram
}

// NewDecisionMetrics creates and registers decision metrics.
func NewDecisionMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *DecisionMetrics {
	dm := &DecisionMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decisions_total",
				Help:      "Total number of purchase decisions by outcome",
			},
			[]string{"outcome", "strategy"},
		),

		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "decision_duration_seconds",
				Help:      "Duration of purchase decisions in seconds",
				Buckets:   cfg.DecisionDurationBuckets,
			},
			[]string{"outcome"},
		),

		offersConsidered: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "offers_considered",
				Help:      "Number of usable offers considered per decision",
				Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
			},
		),
	}

	registry.MustRegister(
		dm.decisionsTotal,
		dm.decisionDuration,
		dm.offersConsidered,
	)

	return dm
}

// Record records a single decision.
func (dm *DecisionMetrics) Record(outcome, strategy string, duration time.Duration) {
	dm.decisionsTotal.WithLabelValues(outcome, strategy).Inc()
	dm.decisionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// RecordOffers records the number of offers considered.
func (dm *DecisionMetrics) RecordOffers(count int) {
	dm.offersConsidered.Observe(float64(count))
}
