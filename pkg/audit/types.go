package audit

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Action tags written by the decision pipeline. Callers of Create may use
// their own tags as well.
const (
	ActionPurchaseRecommended     = "purchase_recommended"
	ActionPurchaseDeniedPolicy    = "purchase_denied_policy"
	ActionPurchaseDeniedBudget    = "purchase_denied_budget"
	ActionPurchaseDeniedNoOffer   = "purchase_denied_no_offer"
	ActionPurchaseDeniedNoProduct = "purchase_denied_no_product"
)

// Record is a single immutable audit entry.
type Record struct {
	ID           string         `json:"id"`
	Timestamp    time.Time      `json:"timestamp"`
	UserID       string         `json:"user_id"`
	DepartmentID string         `json:"department_id,omitempty"`
	Action       string         `json:"action"`
	Details      map[string]any `json:"details,omitempty"`
	Reasoning    string         `json:"reasoning,omitempty"`
	DetailsHash  string         `json:"details_hash"`
}

// Query filters audit records. Zero values match everything.
type Query struct {
	UserID       string
	DepartmentID string
	Action       string
	StartTime    *time.Time
	EndTime      *time.Time

	// Limit caps the number of records returned. Default: 100
	Limit  int
	Offset int

	// SortOrder is "asc" or "desc" by timestamp. Default: desc
	SortOrder string
}

const (
	// DefaultLimit is used when a query leaves Limit unset.
	DefaultLimit = 100

	// MaxLimit is the largest accepted Limit.
	MaxLimit = 10000
)

// Validate reports whether the query parameters are usable.
func (q *Query) Validate() error {
	if q.Limit < 0 {
		return &QueryError{Query: q, Cause: fmt.Errorf("limit must be >= 0, got %d", q.Limit)}
	}
	if q.Limit > MaxLimit {
		return &QueryError{Query: q, Cause: fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit)}
	}
	if q.Offset < 0 {
		return &QueryError{Query: q, Cause: fmt.Errorf("offset must be >= 0, got %d", q.Offset)}
	}
	if q.SortOrder != "" && q.SortOrder != "asc" && q.SortOrder != "desc" {
		return &QueryError{Query: q, Cause: fmt.Errorf("invalid sort order: %s (must be 'asc' or 'desc')", q.SortOrder)}
	}
	if q.StartTime != nil && q.EndTime != nil && q.StartTime.After(*q.EndTime) {
		return &QueryError{Query: q, Cause: fmt.Errorf("start_time must be before end_time")}
	}
	return nil
}

// EffectiveLimit returns Limit, or DefaultLimit when unset.
func (q *Query) EffectiveLimit() int {
	if q.Limit > 0 {
		return q.Limit
	}
	return DefaultLimit
}

// Matches reports whether r satisfies the query filters. Pagination is not
// considered.
func (q *Query) Matches(r *Record) bool {
	if q.UserID != "" && r.UserID != q.UserID {
		return false
	}
	if q.DepartmentID != "" && r.DepartmentID != q.DepartmentID {
		return false
	}
	if q.Action != "" && r.Action != q.Action {
		return false
	}
	if q.StartTime != nil && r.Timestamp.Before(*q.StartTime) {
		return false
	}
	if q.EndTime != nil && r.Timestamp.After(*q.EndTime) {
		return false
	}
	return true
}

// Storage persists audit records. Implementations are append-only and safe
// for concurrent use.
type Storage interface {
	// Store appends a record. Storing an id twice returns ErrDuplicateRecord.
	Store(ctx context.Context, record *Record) error

	// Get returns a record by id, or ErrRecordNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Query returns the records matching q.
	Query(ctx context.Context, q *Query) ([]*Record, error)

	// Count returns the number of records matching q, ignoring pagination.
	Count(ctx context.Context, q *Query) (int64, error)

	// Close releases resources held by the backend.
	Close() error
}

// Exporter writes records in a specific format.
type Exporter interface {
	Export(ctx context.Context, records []*Record, w io.Writer) error
}
