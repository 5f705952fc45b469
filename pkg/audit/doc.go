// Package audit records purchase decisions for departments that require an
// audit trail.
//
// Records are append-only. The Storage interface exposes no update or
// delete operation, and the SQLite backend rejects both with triggers.
// Every record carries a SHA-256 hash of its canonical JSON details so that
// tampering with a stored record can be detected by VerifyHash.
//
// # Recording
//
// The Recorder writes synchronously with a bounded write timeout. A failed
// write is returned to the caller as a *WriteError wrapping
// ErrAuditWriteFailed; it is never dropped.
//
//	recorder := audit.NewRecorder(store, nil)
//	rec, err := recorder.RecordIfRequired(ctx, dept, audit.Entry{
//		UserID:    "u003",
//		Action:    audit.ActionPurchaseRecommended,
//		Details:   map[string]any{"product_id": "P001"},
//		Reasoning: "cheapest offer within budget",
//	})
//
// Backends live in the storage subpackage and exporters in export.
package audit
