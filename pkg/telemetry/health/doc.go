// Package health provides liveness and readiness endpoints.
//
// Liveness (/health) only reports that the process is up. Readiness
// (/ready) runs the registered component checks concurrently, each bounded
// by the configured timeout:
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck(health.ComponentCatalog, health.CatalogCheck(source))
//	checker.RegisterCheck(health.ComponentLedger, health.LedgerCheck(ledger))
//	checker.RegisterCheck(health.ComponentAudit, health.AuditCheck(storage))
//
// A failing check turns the overall status to "degraded" and the readiness
// handler answers 503.
package health
