// Package server exposes the procurement tools over HTTP.
//
// Routes are served by gorilla/mux:
//
//	GET  /v1/tools          tool definitions with JSON-schema parameters
//	POST /v1/tools/{name}   execute a tool; the body is its JSON arguments
//	GET  /health            liveness probe
//	GET  /ready             readiness probe (catalog, ledger, audit storage)
//	GET  /version           build information
//	GET  /metrics           Prometheus metrics
//
// Requests pass through recovery, tracing, CORS (rs/cors, when enabled),
// request id and access logging, outermost first. A tool call answers 200
// with a tools.Result; unknown entities and bad arguments answer 404 and
// 400 with the same body.
//
// Start blocks until the context is cancelled, SIGINT or SIGTERM arrives,
// or Stop is called, then drains in-flight requests for up to
// server.shutdown_timeout.
//
//	srv := server.NewServer(&cfg.Server, server.Options{
//	    Registry: registry,
//	    Health:   checker,
//	    Metrics:  collector.Handler(),
//	    Tracer:   tracer,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
package server
