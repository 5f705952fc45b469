// Package tracing provides OpenTelemetry tracing for purchase decisions.
//
// Each decision runs under a decision.decide span with one child per stage
// (search, policy, budget, select, commit, audit). Spans are exported over
// OTLP gRPC; when tracing is disabled a noop tracer is used and every call
// is a cheap no-op.
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, tracing.SpanDecide)
//	defer span.End()
//
// HTTPMiddleware continues traces from incoming W3C traceparent headers.
package tracing
