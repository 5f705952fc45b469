package storage

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"mercator-hq/procurement/pkg/audit"
)

// MemoryStorage implements audit.Storage in memory.
type MemoryStorage struct {
	records []*audit.Record
	byID    map[string]int
	mu      sync.RWMutex

	// failWith, when set, is returned from Store.
	failWith error
}

// NewMemoryStorage creates a new in-memory storage backend.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		byID: make(map[string]int),
	}
}

// FailWrites makes every subsequent Store return err. Passing nil restores
// normal behavior.
func (s *MemoryStorage) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// Store appends a copy of record.
func (s *MemoryStorage) Store(ctx context.Context, record *audit.Record) error {
	if err := ctx.Err(); err != nil {
		return audit.NewStorageError("memory", "store", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failWith != nil {
		return audit.NewStorageError("memory", "store", s.failWith)
	}
	if _, exists := s.byID[record.ID]; exists {
		return audit.NewStorageError("memory", "store", fmt.Errorf("%w: %s", audit.ErrDuplicateRecord, record.ID))
	}

	s.byID[record.ID] = len(s.records)
	s.records = append(s.records, cloneRecord(record))
	return nil
}

// Get returns a copy of the record with the given id.
func (s *MemoryStorage) Get(ctx context.Context, id string) (*audit.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", audit.ErrRecordNotFound, id)
	}
	return cloneRecord(s.records[i]), nil
}

// Query returns copies of the matching records ordered by timestamp.
func (s *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	var results []*audit.Record
	for _, record := range s.records {
		if query.Matches(record) {
			results = append(results, cloneRecord(record))
		}
	}
	s.mu.RUnlock()

	asc := query.SortOrder == "asc"
	sort.SliceStable(results, func(i, j int) bool {
		if asc {
			return results[i].Timestamp.Before(results[j].Timestamp)
		}
		return results[i].Timestamp.After(results[j].Timestamp)
	})

	start := query.Offset
	if start > len(results) {
		return []*audit.Record{}, nil
	}
	end := start + query.EffectiveLimit()
	if end > len(results) {
		end = len(results)
	}
	return results[start:end], nil
}

// Count returns the number of matching records.
func (s *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if query.Matches(record) {
			count++
		}
	}
	return count, nil
}

// Size returns the total number of stored records.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op for memory storage.
func (s *MemoryStorage) Close() error {
	return nil
}

func cloneRecord(r *audit.Record) *audit.Record {
	c := *r
	if r.Details != nil {
		c.Details = maps.Clone(r.Details)
	}
	return &c
}
