package metrics

import (
	"time"

	"mercator-hq/procurement/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetrics tracks audit record writes.
type AuditMetrics struct {
	writesTotal   *prometheus.CounterVec
	writeDuration prometheus.Histogram
}

// NewAuditMetrics creates and registers audit metrics.
func NewAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		writesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_writes_total",
				Help:      "Total number of audit record writes by result",
			},
			[]string{"result"},
		),

		writeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_write_duration_seconds",
				Help:      "Duration of audit record writes in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), // 100µs to ~1.6s
			},
		),
	}

	registry.MustRegister(am.writesTotal, am.writeDuration)

	return am
}

// RecordWrite records one audit write.
func (am *AuditMetrics) RecordWrite(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	am.writesTotal.WithLabelValues(result).Inc()
	am.writeDuration.Observe(duration.Seconds())
}
