package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryLedger implements Ledger in process memory. All data is lost when
// the process exits.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewMemoryLedger creates an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]Entry)}
}

// Get returns the entry for a department, or nil if none exists.
func (m *MemoryLedger) Get(ctx context.Context, departmentID string) (*Entry, error) {
	if departmentID == "" {
		return nil, fmt.Errorf("department id cannot be empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[departmentID]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

// CompareAndSwap stores next if the stored version equals expected.
func (m *MemoryLedger) CompareAndSwap(ctx context.Context, expected int64, next Entry) (*Entry, error) {
	if next.DepartmentID == "" {
		return nil, fmt.Errorf("department id cannot be empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.entries[next.DepartmentID].Version
	if current != expected {
		return nil, fmt.Errorf("%w: department %s at version %d, expected %d",
			ErrVersionMismatch, next.DepartmentID, current, expected)
	}

	next.Version = expected + 1
	if next.UpdatedAt.IsZero() {
		next.UpdatedAt = time.Now()
	}
	m.entries[next.DepartmentID] = next
	return &next, nil
}

// List returns all entries ordered by department id.
func (m *MemoryLedger) List(ctx context.Context) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepartmentID < out[j].DepartmentID })
	return out, nil
}

// Close is a no-op.
func (m *MemoryLedger) Close() error {
	return nil
}
