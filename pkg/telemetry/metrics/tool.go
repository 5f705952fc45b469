package metrics

import (
	"time"

	"mercator-hq/procurement/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// ToolMetrics tracks tool invocations made by the agent.
type ToolMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// NewToolMetrics creates and registers tool metrics.
func NewToolMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *ToolMetrics {
	tm := &ToolMetrics{
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tool_calls_total",
				Help:      "Total number of tool calls by tool and status",
			},
			[]string{"tool", "status"},
		),

		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "tool_call_duration_seconds",
				Help:      "Duration of tool calls in seconds",
				Buckets:   cfg.DecisionDurationBuckets,
			},
			[]string{"tool"},
		),
	}

	registry.MustRegister(tm.callsTotal, tm.callDuration)

	return tm
}

// Record records one tool call.
func (tm *ToolMetrics) Record(tool, status string, duration time.Duration) {
	tm.callsTotal.WithLabelValues(tool, status).Inc()
	tm.callDuration.WithLabelValues(tool).Observe(duration.Seconds())
}
