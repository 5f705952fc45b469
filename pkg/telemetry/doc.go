// Package telemetry groups the observability packages of the procurement
// engine.
//
// # Components
//
//   - logging: slog setup with request-scoped fields and contact redaction
//   - metrics: Prometheus collectors for decisions, budgets, audit and tools
//   - tracing: OpenTelemetry spans for each pipeline stage and tool call
//   - health: liveness and readiness checks over catalog, ledger and audit
//
// # Usage
//
//	logger, err := logging.Setup(logging.Config{Level: cfg.Telemetry.Logging.Level})
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(ctx)
//
//	checker := health.New(cfg.Telemetry.Health.CheckTimeout)
//	checker.RegisterCheck(health.ComponentLedger, health.LedgerCheck(ledger))
//
// The collector and tracer are passed to the decision engine and the tool
// registry. A disabled collector or tracer records nothing.
//
// # Contact redaction
//
// Supplier contact details are redacted from log records when
// telemetry.logging.redact_contacts is set:
//
//   - Emails: orders@supplier.example → ***@supplier.example
//   - Phone numbers: +1 555 010 2000 → ***-***-****
//
// Values under keys containing password, secret, token or contact are
// replaced with *** regardless of content.
package telemetry
