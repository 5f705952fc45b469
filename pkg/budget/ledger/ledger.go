// Package ledger persists per-department budget consumption.
//
// Each department has at most one Entry: the spend of its current period
// together with a version that acts as a compare-and-swap token. Every
// backend implements the same CompareAndSwap contract, so the budget
// tracker can serialize commits across processes sharing a backend:
//
//   - Memory: in-process map (default, no persistence)
//   - SQLite: file-based persistence using modernc.org/sqlite
//   - Redis: shared state using WATCH/MULTI transactions
//
// # Thread Safety
//
// All backends are safe for concurrent use.
package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrVersionMismatch is returned by CompareAndSwap when the stored version
// differs from the expected one.
var ErrVersionMismatch = errors.New("ledger version mismatch")

// Entry is the persisted spend of one department.
type Entry struct {
	// DepartmentID identifies the department.
	DepartmentID string `json:"department_id"`

	// Period is the budget period the spend belongs to ("YYYY-MM").
	Period string `json:"period"`

	// Spent is the amount committed during Period.
	Spent decimal.Decimal `json:"spent"`

	// Version increases by one on every successful write. Zero means the
	// entry does not exist yet.
	Version int64 `json:"version"`

	// LastCommitID is the id of the commit that produced this version. It
	// lets a caller whose commit timed out find out whether it landed.
	LastCommitID string `json:"last_commit_id,omitempty"`

	// UpdatedAt is when the entry was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// Ledger is the storage contract used by the budget tracker.
type Ledger interface {
	// Get returns the entry for a department, or nil if none exists.
	Get(ctx context.Context, departmentID string) (*Entry, error)

	// CompareAndSwap stores next if the stored version equals expected
	// (zero for a missing entry). The stored entry gets version
	// expected+1 and is returned. A concurrent writer yields
	// ErrVersionMismatch.
	CompareAndSwap(ctx context.Context, expected int64, next Entry) (*Entry, error)

	// List returns all entries ordered by department id.
	List(ctx context.Context) ([]*Entry, error)

	// Close releases any resources held by the ledger.
	Close() error
}
