package catalog

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const extraProducts = `[
  {"productId": "P1", "name": "Business Laptop", "description": "Thin and light", "category": "electronics"},
  {"productId": "P2", "name": "Stapler", "description": "Heavy duty", "category": "office-supplies"},
  {"productId": "P3", "name": "Desk Lamp", "description": "LED", "category": "office-supplies"}
]`

func TestSource_Reload(t *testing.T) {
	dir := writeCatalog(t, nil)
	src, err := NewSource(dir)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}

	before := src.Current()
	if len(before.Products()) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(before.Products()))
	}

	var notified atomic.Int32
	src.OnReload(func(*Store) { notified.Add(1) })

	if err := os.WriteFile(filepath.Join(dir, ProductsFile), []byte(extraProducts), 0644); err != nil {
		t.Fatal(err)
	}
	if err := src.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	if len(src.Products()) != 3 {
		t.Errorf("Expected 3 products after reload, got %d", len(src.Products()))
	}
	if len(before.Products()) != 2 {
		t.Error("Previous snapshot must not change")
	}
	if src.Reloads() != 1 || notified.Load() != 1 {
		t.Errorf("Expected one reload and one notification, got %d and %d", src.Reloads(), notified.Load())
	}
}

func TestSource_ReloadFailureKeepsSnapshot(t *testing.T) {
	dir := writeCatalog(t, nil)
	src, err := NewSource(dir)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	before := src.Current()

	if err := os.WriteFile(filepath.Join(dir, UsersFile), []byte(`[{"userId": "u1", "name": "x", "departmentId": "GONE"}]`), 0644); err != nil {
		t.Fatal(err)
	}
	if err := src.Reload(); err == nil {
		t.Fatal("Expected reload error")
	}
	if src.Current() != before {
		t.Error("Failed reload must keep the previous snapshot")
	}
	if _, err := src.User("u2"); err != nil {
		t.Errorf("Expected lookups to use previous snapshot: %v", err)
	}
}

func TestSource_StaticCannotReload(t *testing.T) {
	store, err := Load(writeCatalog(t, nil))
	if err != nil {
		t.Fatal(err)
	}
	src := NewStaticSource(store)
	if err := src.Reload(); err == nil {
		t.Error("Expected error reloading a static source")
	}
	if err := src.Watch(context.Background(), nil); err == nil {
		t.Error("Expected error watching a static source")
	}
}

func TestSource_Watch(t *testing.T) {
	dir := writeCatalog(t, nil)
	src, err := NewSource(dir)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}

	reloaded := make(chan struct{}, 1)
	src.OnReload(func(*Store) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = src.Watch(ctx, &WatcherConfig{DebounceInterval: 50 * time.Millisecond})
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, ProductsFile), []byte(extraProducts), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for catalog reload")
	}

	if _, err := src.Product("P3"); err != nil {
		t.Errorf("Expected new product after reload: %v", err)
	}
}

func TestDebouncer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var calls atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { calls.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(150 * time.Millisecond)

	if got := calls.Load(); got != 1 {
		t.Errorf("Expected 1 debounced call, got %d", got)
	}
}
