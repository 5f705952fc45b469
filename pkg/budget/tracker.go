package budget

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"mercator-hq/procurement/pkg/budget/ledger"
	"mercator-hq/procurement/pkg/procurement"
)

// PeriodLayout formats a budget period.
const PeriodLayout = "2006-01"

// DefaultCommitTimeout bounds a single commit when Config leaves it unset.
const DefaultCommitTimeout = 2 * time.Second

// Departments resolves the departments whose budgets are tracked.
type Departments interface {
	Department(id string) (*procurement.Department, error)
	Departments() []*procurement.Department
}

// Config configures a Tracker.
type Config struct {
	// CommitTimeout bounds the ledger write of a commit.
	CommitTimeout time.Duration

	// Location is the time zone periods are computed in. Default: UTC
	Location *time.Location

	// Now returns the current time. Default: time.Now
	Now func() time.Time
}

// Snapshot is a read-only view of a department's budget.
type Snapshot struct {
	DepartmentID string          `json:"department_id"`
	Period       string          `json:"period"`
	Limit        decimal.Decimal `json:"limit"`
	Spent        decimal.Decimal `json:"spent"`
	Remaining    decimal.Decimal `json:"remaining"`
	Version      int64           `json:"version"`
}

// Tracker owns all mutation of department spend.
//
// Commits for the same department are serialized by an in-process mutex and
// written with a ledger compare-and-swap, so the monthly limit holds even
// with several processes sharing one ledger.
type Tracker struct {
	departments Departments
	ledger      ledger.Ledger
	config      Config
	logger      *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewTracker creates a tracker over the given ledger.
func NewTracker(departments Departments, l ledger.Ledger, config Config) *Tracker {
	if config.CommitTimeout <= 0 {
		config.CommitTimeout = DefaultCommitTimeout
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &Tracker{
		departments: departments,
		ledger:      l,
		config:      config,
		logger:      slog.Default().With("component", "budget"),
		locks:       make(map[string]*sync.Mutex),
	}
}

// Period returns the budget period containing t.
func (t *Tracker) Period(at time.Time) string {
	return at.In(t.config.Location).Format(PeriodLayout)
}

// Snapshot returns the department's limit, spend and remaining headroom for
// the current period.
func (t *Tracker) Snapshot(ctx context.Context, departmentID string) (Snapshot, error) {
	dept, err := t.departments.Department(departmentID)
	if err != nil {
		return Snapshot{}, err
	}
	snap, _, err := t.read(ctx, dept)
	return snap, err
}

// Check reports whether price fits the remaining budget. It never changes
// the ledger. On failure the error is an *ExceededError carrying the
// remaining headroom.
func (t *Tracker) Check(ctx context.Context, departmentID string, price decimal.Decimal) (Snapshot, error) {
	if price.IsNegative() {
		return Snapshot{}, fmt.Errorf("price must not be negative: %s", price)
	}
	dept, err := t.departments.Department(departmentID)
	if err != nil {
		return Snapshot{}, err
	}
	snap, _, err := t.read(ctx, dept)
	if err != nil {
		return Snapshot{}, err
	}
	if err := exceeds(snap, price); err != nil {
		return snap, err
	}
	return snap, nil
}

// Commit adds price to the department's spend for the current period.
//
// commitID identifies the commit. If the ledger write fails or times out,
// the tracker re-reads the entry: a matching LastCommitID means the commit
// landed; an unchanged version means it did not (ErrConcurrencyConflict,
// safe to retry); anything else yields ErrCommitUnknown.
func (t *Tracker) Commit(ctx context.Context, departmentID string, price decimal.Decimal, commitID string) (Snapshot, error) {
	if price.IsNegative() {
		return Snapshot{}, fmt.Errorf("price must not be negative: %s", price)
	}
	if commitID == "" {
		return Snapshot{}, fmt.Errorf("commit id cannot be empty")
	}
	dept, err := t.departments.Department(departmentID)
	if err != nil {
		return Snapshot{}, err
	}

	lock := t.lockFor(departmentID)
	lock.Lock()
	defer lock.Unlock()

	writeCtx, cancel := context.WithTimeout(ctx, t.config.CommitTimeout)
	defer cancel()

	snap, version, err := t.read(writeCtx, dept)
	if err != nil {
		return Snapshot{}, err
	}
	if err := exceeds(snap, price); err != nil {
		return snap, err
	}

	next := ledger.Entry{
		DepartmentID: departmentID,
		Period:       snap.Period,
		Spent:        snap.Spent.Add(price),
		LastCommitID: commitID,
		UpdatedAt:    t.config.Now(),
	}

	stored, err := t.ledger.CompareAndSwap(writeCtx, version, next)
	switch {
	case err == nil:
		committed := t.snapshotOf(dept, stored)
		t.logger.Debug("Budget committed",
			"department", departmentID,
			"price", price.StringFixed(2),
			"spent", committed.Spent.StringFixed(2),
			"version", committed.Version,
			"commit_id", commitID,
		)
		return committed, nil
	case errors.Is(err, ledger.ErrVersionMismatch):
		return snap, fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
	default:
		return t.reconcile(ctx, dept, version, commitID, err)
	}
}

// reconcile decides the outcome of a commit whose write returned an error
// other than a version mismatch.
func (t *Tracker) reconcile(ctx context.Context, dept *procurement.Department, version int64, commitID string, cause error) (Snapshot, error) {
	readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.config.CommitTimeout)
	defer cancel()

	entry, err := t.ledger.Get(readCtx, dept.ID)
	if err != nil {
		t.logger.Error("Budget commit outcome unknown",
			"department", dept.ID, "commit_id", commitID, "error", cause, "reconcile_error", err)
		return Snapshot{}, fmt.Errorf("%w: commit %s: %v (reconcile failed: %v)", ErrCommitUnknown, commitID, cause, err)
	}

	switch {
	case entry != nil && entry.LastCommitID == commitID:
		t.logger.Warn("Budget commit landed despite write error",
			"department", dept.ID, "commit_id", commitID, "error", cause)
		return t.snapshotOf(dept, entry), nil
	case (entry == nil && version == 0) || (entry != nil && entry.Version == version):
		return Snapshot{}, fmt.Errorf("%w: commit %s was not applied: %v", ErrConcurrencyConflict, commitID, cause)
	default:
		t.logger.Error("Budget commit outcome unknown",
			"department", dept.ID, "commit_id", commitID, "error", cause)
		return Snapshot{}, fmt.Errorf("%w: commit %s: %v", ErrCommitUnknown, commitID, cause)
	}
}

// Rollover starts a new period for every department whose ledger entry
// belongs to an earlier one. Reads already treat stale entries as empty;
// Rollover persists that. It returns the number of entries reset.
func (t *Tracker) Rollover(ctx context.Context) (int, error) {
	period := t.Period(t.config.Now())
	rolled := 0

	for _, dept := range t.departments.Departments() {
		lock := t.lockFor(dept.ID)
		lock.Lock()
		entry, err := t.ledger.Get(ctx, dept.ID)
		if err == nil && entry != nil && entry.Period != period {
			_, err = t.ledger.CompareAndSwap(ctx, entry.Version, ledger.Entry{
				DepartmentID: dept.ID,
				Period:       period,
				Spent:        decimal.Zero,
				UpdatedAt:    t.config.Now(),
			})
			if err == nil {
				rolled++
			}
		}
		lock.Unlock()

		if err != nil {
			return rolled, fmt.Errorf("rollover of department %s failed: %w", dept.ID, err)
		}
	}
	return rolled, nil
}

// read returns the current snapshot and the ledger version to compare
// against. A missing entry is seeded from the department's initial spend;
// an entry from an earlier period reads as zero spend.
func (t *Tracker) read(ctx context.Context, dept *procurement.Department) (Snapshot, int64, error) {
	period := t.Period(t.config.Now())

	entry, err := t.ledger.Get(ctx, dept.ID)
	if err != nil {
		return Snapshot{}, 0, fmt.Errorf("failed to read budget ledger: %w", err)
	}

	var (
		spent   decimal.Decimal
		version int64
	)
	switch {
	case entry == nil:
		spent = dept.InitialSpent
	case entry.Period != period:
		spent = decimal.Zero
		version = entry.Version
	default:
		spent = entry.Spent
		version = entry.Version
	}

	return Snapshot{
		DepartmentID: dept.ID,
		Period:       period,
		Limit:        dept.MonthlyBudget,
		Spent:        spent,
		Remaining:    remaining(dept.MonthlyBudget, spent),
		Version:      version,
	}, version, nil
}

func (t *Tracker) snapshotOf(dept *procurement.Department, e *ledger.Entry) Snapshot {
	return Snapshot{
		DepartmentID: dept.ID,
		Period:       e.Period,
		Limit:        dept.MonthlyBudget,
		Spent:        e.Spent,
		Remaining:    remaining(dept.MonthlyBudget, e.Spent),
		Version:      e.Version,
	}
}

func (t *Tracker) lockFor(departmentID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[departmentID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[departmentID] = l
	}
	return l
}

func exceeds(snap Snapshot, price decimal.Decimal) error {
	if snap.Spent.Add(price).GreaterThan(snap.Limit) {
		return &ExceededError{
			DepartmentID: snap.DepartmentID,
			Limit:        snap.Limit,
			Spent:        snap.Spent,
			Price:        price,
			Remaining:    snap.Remaining,
		}
	}
	return nil
}

func remaining(limit, spent decimal.Decimal) decimal.Decimal {
	r := limit.Sub(spent)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}
