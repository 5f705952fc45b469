// Package decision runs a purchase request through the procurement pipeline.
//
// A request moves through a fixed sequence of states:
//
//	resolving -> policy_check -> budget_pre_check -> selecting ->
//	budget_commit -> auditing -> done
//
// Each stage may instead end the request in a rejected state
// (rejected_no_product, rejected_policy, rejected_budget or
// rejected_no_offer). Transitions are one-way and recorded in the
// Decision's Trail.
//
// Budget is committed through budget.Tracker before the audit record is
// written. If the audit write fails the purchase stands and Decide returns
// the Decision together with an *audit.WriteError.
//
// Basic usage:
//
//	engine, err := decision.NewEngine(decision.Options{
//	    Catalog:  store,
//	    Budget:   tracker,
//	    Recorder: recorder,
//	})
//	d, err := engine.Decide(ctx, decision.Request{UserID: "u004", Query: "laptop"})
//	if rec := d.Recommendation(); rec != nil {
//	    fmt.Println(rec.Supplier.Name, rec.TotalCost)
//	}
package decision
