// Package metrics provides Prometheus metrics for the procurement engine.
//
// # Metrics
//
//   - decisions_total{outcome,strategy} and decision_duration_seconds{outcome}
//   - offers_considered
//   - budget_commits_total{department,result}, budget_spent and budget_remaining
//   - audit_writes_total{result} and audit_write_duration_seconds
//   - tool_calls_total{tool,status} and tool_call_duration_seconds{tool}
//
// Names are prefixed with the configured namespace and subsystem
// ("procurement_engine_" by default).
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordDecision("recommended", "cheapest", elapsed)
//	router.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// # Cardinality
//
// Department and tool labels pass through a CardinalityLimiter. Once the
// limit is reached new values are recorded under the "other" label.
package metrics
