package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mercator-hq/procurement/pkg/audit"
)

func newBackends(t *testing.T) map[string]audit.Storage {
	t.Helper()

	sqlite, err := NewSQLiteStorage(&SQLiteConfig{
		Path:    filepath.Join(t.TempDir(), "audit.db"),
		WALMode: true,
	})
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]audit.Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sqlite,
	}
}

func seed(t *testing.T, s audit.Storage) []*audit.Record {
	t.Helper()

	base := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	fixtures := []struct {
		user, dept, action string
	}{
		{"u002", "HR", audit.ActionPurchaseDeniedPolicy},
		{"u003", "FIN", audit.ActionPurchaseDeniedBudget},
		{"u004", "ENG", audit.ActionPurchaseRecommended},
		{"u004", "ENG", audit.ActionPurchaseRecommended},
		{"u002", "HR", audit.ActionPurchaseRecommended},
	}

	var records []*audit.Record
	for i, fx := range fixtures {
		details := map[string]any{"index": i, "product_id": fmt.Sprintf("P00%d", i+1)}
		hash, err := audit.HashDetails(details)
		if err != nil {
			t.Fatalf("HashDetails failed: %v", err)
		}
		r := &audit.Record{
			ID:           fmt.Sprintf("rec-%d", i),
			Timestamp:    base.Add(time.Duration(i) * time.Hour),
			UserID:       fx.user,
			DepartmentID: fx.dept,
			Action:       fx.action,
			Details:      details,
			Reasoning:    "test",
			DetailsHash:  hash,
		}
		if err := s.Store(context.Background(), r); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
		records = append(records, r)
	}
	return records
}

func TestStorage_StoreAndGet(t *testing.T) {
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seeded := seed(t, s)

			got, err := s.Get(ctx, "rec-2")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.UserID != "u004" || got.DepartmentID != "ENG" || got.Action != audit.ActionPurchaseRecommended {
				t.Errorf("Unexpected record %+v", got)
			}
			if !got.Timestamp.Equal(seeded[2].Timestamp) {
				t.Errorf("Expected timestamp %v, got %v", seeded[2].Timestamp, got.Timestamp)
			}
			if fmt.Sprint(got.Details["product_id"]) != "P003" {
				t.Errorf("Expected product_id P003, got %v", got.Details["product_id"])
			}
			if !audit.VerifyHash(got) {
				t.Error("Expected stored record hash to verify")
			}

			if _, err := s.Get(ctx, "missing"); !errors.Is(err, audit.ErrRecordNotFound) {
				t.Errorf("Expected ErrRecordNotFound, got %v", err)
			}

			if err := s.Store(ctx, seeded[0]); !errors.Is(err, audit.ErrDuplicateRecord) {
				t.Errorf("Expected ErrDuplicateRecord, got %v", err)
			}
		})
	}
}

func TestStorage_Query(t *testing.T) {
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			seeded := seed(t, s)

			tests := []struct {
				name  string
				query audit.Query
				want  []string
				count int64
			}{
				{"all newest first", audit.Query{}, []string{"rec-4", "rec-3", "rec-2", "rec-1", "rec-0"}, 5},
				{"oldest first", audit.Query{SortOrder: "asc", Limit: 2}, []string{"rec-0", "rec-1"}, 5},
				{"by user", audit.Query{UserID: "u002"}, []string{"rec-4", "rec-0"}, 2},
				{"by department", audit.Query{DepartmentID: "ENG"}, []string{"rec-3", "rec-2"}, 2},
				{"by action", audit.Query{Action: audit.ActionPurchaseRecommended, Offset: 1}, []string{"rec-3", "rec-2"}, 3},
				{"time range", audit.Query{StartTime: &seeded[1].Timestamp, EndTime: &seeded[3].Timestamp, SortOrder: "asc"}, []string{"rec-1", "rec-2", "rec-3"}, 3},
				{"offset past end", audit.Query{Offset: 10}, []string{}, 5},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					records, err := s.Query(ctx, &tt.query)
					if err != nil {
						t.Fatalf("Query failed: %v", err)
					}
					var ids []string
					for _, r := range records {
						ids = append(ids, r.ID)
					}
					if fmt.Sprint(ids) != fmt.Sprint(tt.want) && !(len(ids) == 0 && len(tt.want) == 0) {
						t.Errorf("Expected %v, got %v", tt.want, ids)
					}

					count, err := s.Count(ctx, &tt.query)
					if err != nil {
						t.Fatalf("Count failed: %v", err)
					}
					if count != tt.count {
						t.Errorf("Expected count %d, got %d", tt.count, count)
					}
				})
			}

			if _, err := s.Query(ctx, &audit.Query{Limit: -1}); err == nil {
				t.Error("Expected error for invalid query")
			}
		})
	}
}

func TestStorage_ConcurrentStore(t *testing.T) {
	for name, s := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const writers = 20

			var wg sync.WaitGroup
			for i := 0; i < writers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					err := s.Store(ctx, &audit.Record{
						ID:        fmt.Sprintf("c-%d", i),
						Timestamp: time.Now(),
						UserID:    "u001",
						Action:    audit.ActionPurchaseRecommended,
					})
					if err != nil {
						t.Errorf("Store failed: %v", err)
					}
				}(i)
			}
			wg.Wait()

			count, err := s.Count(ctx, &audit.Query{})
			if err != nil {
				t.Fatalf("Count failed: %v", err)
			}
			if count != writers {
				t.Errorf("Expected %d records, got %d", writers, count)
			}
		})
	}
}

func TestSQLiteStorage_AppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	s, err := NewSQLiteStorage(&SQLiteConfig{Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	defer s.Close()

	seed(t, s)

	if _, err := s.db.Exec("UPDATE audit_records SET reasoning = 'changed'"); err == nil {
		t.Error("Expected UPDATE to be rejected")
	}
	if _, err := s.db.Exec("DELETE FROM audit_records"); err == nil {
		t.Error("Expected DELETE to be rejected")
	}

	count, err := s.Count(context.Background(), &audit.Query{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 records after rejected mutations, got %d", count)
	}
}

func TestSQLiteStorage_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	s, err := NewSQLiteStorage(&SQLiteConfig{Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("NewSQLiteStorage failed: %v", err)
	}
	seed(t, s)
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}

	reopened, err := NewSQLiteStorage(&SQLiteConfig{Path: path, WALMode: true})
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count(context.Background(), &audit.Query{})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 records after reopen, got %d", count)
	}
}

func TestMemoryStorage_FailWrites(t *testing.T) {
	s := NewMemoryStorage()
	cause := errors.New("unavailable")
	s.FailWrites(cause)

	err := s.Store(context.Background(), &audit.Record{ID: "x", UserID: "u", Action: "a"})
	if !errors.Is(err, cause) {
		t.Errorf("Expected injected failure, got %v", err)
	}

	s.FailWrites(nil)
	if err := s.Store(context.Background(), &audit.Record{ID: "x", UserID: "u", Action: "a"}); err != nil {
		t.Errorf("Expected store to succeed after reset, got %v", err)
	}
	if s.Size() != 1 {
		t.Errorf("Expected size 1, got %d", s.Size())
	}
}
