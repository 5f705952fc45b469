package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

func newBackends(t *testing.T) map[string]Ledger {
	t.Helper()

	sqlite, err := NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("NewSQLiteLedger failed: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return map[string]Ledger{
		"memory": NewMemoryLedger(),
		"sqlite": sqlite,
		"redis":  NewRedisLedgerWithClient(client, "test"),
	}
}

func TestLedger_CompareAndSwap(t *testing.T) {
	ctx := context.Background()

	for name, l := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := l.Get(ctx, "HR")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got != nil {
				t.Fatalf("Expected nil for missing entry, got %+v", got)
			}

			first, err := l.CompareAndSwap(ctx, 0, Entry{
				DepartmentID: "HR",
				Period:       "2026-10",
				Spent:        decimal.RequireFromString("100.25"),
				LastCommitID: "c1",
			})
			if err != nil {
				t.Fatalf("CompareAndSwap(0) failed: %v", err)
			}
			if first.Version != 1 {
				t.Errorf("Expected version 1, got %d", first.Version)
			}

			// A second creator loses.
			if _, err := l.CompareAndSwap(ctx, 0, Entry{DepartmentID: "HR", Period: "2026-10", Spent: decimal.NewFromInt(1)}); !errors.Is(err, ErrVersionMismatch) {
				t.Errorf("Expected ErrVersionMismatch for stale create, got %v", err)
			}

			second, err := l.CompareAndSwap(ctx, 1, Entry{
				DepartmentID: "HR",
				Period:       "2026-10",
				Spent:        decimal.RequireFromString("200.50"),
				LastCommitID: "c2",
			})
			if err != nil {
				t.Fatalf("CompareAndSwap(1) failed: %v", err)
			}
			if second.Version != 2 {
				t.Errorf("Expected version 2, got %d", second.Version)
			}

			if _, err := l.CompareAndSwap(ctx, 1, Entry{DepartmentID: "HR", Period: "2026-10", Spent: decimal.NewFromInt(1)}); !errors.Is(err, ErrVersionMismatch) {
				t.Errorf("Expected ErrVersionMismatch for stale update, got %v", err)
			}

			loaded, err := l.Get(ctx, "HR")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !loaded.Spent.Equal(decimal.RequireFromString("200.50")) {
				t.Errorf("Expected spent 200.50, got %s", loaded.Spent)
			}
			if loaded.Version != 2 || loaded.LastCommitID != "c2" || loaded.Period != "2026-10" {
				t.Errorf("Unexpected entry %+v", loaded)
			}

			if _, err := l.CompareAndSwap(ctx, 0, Entry{DepartmentID: "ENG", Period: "2026-10", Spent: decimal.Zero}); err != nil {
				t.Fatalf("CompareAndSwap for ENG failed: %v", err)
			}
			entries, err := l.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(entries) != 2 || entries[0].DepartmentID != "ENG" || entries[1].DepartmentID != "HR" {
				t.Errorf("Expected ENG, HR entries, got %+v", entries)
			}
		})
	}
}

func TestLedger_ConcurrentIncrements(t *testing.T) {
	ctx := context.Background()

	for name, l := range newBackends(t) {
		t.Run(name, func(t *testing.T) {
			const workers = 8
			const perWorker = 10

			var wg sync.WaitGroup
			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := 0; i < perWorker; {
						cur, err := l.Get(ctx, "OPS")
						if err != nil {
							t.Errorf("Get failed: %v", err)
							return
						}
						var version int64
						spent := decimal.Zero
						if cur != nil {
							version = cur.Version
							spent = cur.Spent
						}
						_, err = l.CompareAndSwap(ctx, version, Entry{
							DepartmentID: "OPS",
							Period:       "2026-10",
							Spent:        spent.Add(decimal.NewFromInt(1)),
						})
						if errors.Is(err, ErrVersionMismatch) {
							continue
						}
						if err != nil {
							t.Errorf("CompareAndSwap failed: %v", err)
							return
						}
						i++
					}
				}()
			}
			wg.Wait()

			final, err := l.Get(ctx, "OPS")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !final.Spent.Equal(decimal.NewFromInt(workers * perWorker)) {
				t.Errorf("Expected spent %d, got %s (lost updates)", workers*perWorker, final.Spent)
			}
			if final.Version != workers*perWorker {
				t.Errorf("Expected version %d, got %d", workers*perWorker, final.Version)
			}
		})
	}
}

func TestNewRedisLedger_InvalidURL(t *testing.T) {
	if _, err := NewRedisLedger(RedisConfig{URL: "http://localhost:6379"}); err == nil {
		t.Error("Expected error for invalid Redis URL")
	}

	mr := miniredis.RunT(t)
	l, err := NewRedisLedger(RedisConfig{URL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("NewRedisLedger failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
