package budget

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrBudgetExceeded is wrapped by *ExceededError.
	ErrBudgetExceeded = errors.New("budget exceeded")

	// ErrConcurrencyConflict means another writer updated the department's
	// ledger entry first. The commit did not happen and may be retried
	// after re-reading the snapshot.
	ErrConcurrencyConflict = errors.New("budget concurrency conflict")

	// ErrCommitUnknown means a commit timed out or failed and its outcome
	// could not be determined by re-reading the ledger. It must not be
	// retried blindly.
	ErrCommitUnknown = errors.New("budget commit outcome unknown")
)

// ExceededError reports a purchase that does not fit the remaining budget.
type ExceededError struct {
	DepartmentID string
	Limit        decimal.Decimal
	Spent        decimal.Decimal
	Price        decimal.Decimal
	Remaining    decimal.Decimal
}

// Error implements the error interface.
func (e *ExceededError) Error() string {
	return fmt.Sprintf("budget exceeded for department %s: price %s exceeds remaining %s (limit %s, spent %s)",
		e.DepartmentID, e.Price.StringFixed(2), e.Remaining.StringFixed(2), e.Limit.StringFixed(2), e.Spent.StringFixed(2))
}

// Unwrap returns ErrBudgetExceeded.
func (e *ExceededError) Unwrap() error {
	return ErrBudgetExceeded
}
