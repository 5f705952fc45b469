package metrics

import (
	"mercator-hq/procurement/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// BudgetMetrics tracks department budgets.
//
// Metrics:
//   - procurement_engine_budget_commits_total: commit attempts by department and result
//   - procurement_engine_budget_spent: spend in the current period
//   - procurement_engine_budget_remaining: headroom in the current period
type BudgetMetrics struct {
	commitsTotal *prometheus.CounterVec
	spent        *prometheus.GaugeVec
	remaining    *prometheus.GaugeVec
}

// NewBudgetMetrics creates and registers budget metrics.
func NewBudgetMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *BudgetMetrics {
	bm := &BudgetMetrics{
		commitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_commits_total",
				Help:      "Total number of budget commit attempts",
			},
			[]string{"department", "result"},
		),

		spent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_spent",
				Help:      "Department spend in the current budget period",
			},
			[]string{"department"},
		),

		remaining: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "budget_remaining",
				Help:      "Department budget remaining in the current period",
			},
			[]string{"department"},
		),
	}

	registry.MustRegister(bm.commitsTotal, bm.spent, bm.remaining)

	return bm
}

// RecordCommit records a commit attempt.
func (bm *BudgetMetrics) RecordCommit(department, result string) {
	bm.commitsTotal.WithLabelValues(department, result).Inc()
}

// Update sets the gauges for a department.
func (bm *BudgetMetrics) Update(department string, spent, remaining float64) {
	bm.spent.WithLabelValues(department).Set(spent)
	bm.remaining.WithLabelValues(department).Set(remaining)
}
