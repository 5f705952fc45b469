// Package tools exposes the purchase-decision engine as named operations.
//
// Each tool takes JSON arguments and returns a Result. Business outcomes
// such as a policy rejection are ordinary content; lookups of unknown
// entities, bad arguments and infrastructure faults come back with IsError
// set and a failure code (not_found, invalid_arguments,
// audit_write_failed, concurrency_conflict, internal).
//
//	registry := tools.NewRegistry(collector, tracer)
//	if err := tools.RegisterProcurement(registry, tools.Services{
//	    Catalog:  source,
//	    Budget:   tracker,
//	    Recorder: recorder,
//	    Engine:   engine,
//	}); err != nil {
//	    return err
//	}
//	result, err := registry.Execute(ctx, tools.GetUser, json.RawMessage(`{"userId":"u001"}`))
package tools
