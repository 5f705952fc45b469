package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"mercator-hq/procurement/pkg/procurement"
)

// Source holds the current catalog snapshot. Readers call Current (or the
// delegating lookup methods) without locking; Reload swaps in a freshly
// validated snapshot atomically.
type Source struct {
	path    string
	current atomic.Pointer[Store]
	logger  *slog.Logger

	mu        sync.Mutex
	listeners []func(*Store)
	reloads   atomic.Int64
}

// NewSource loads the catalog at path.
func NewSource(path string) (*Source, error) {
	store, err := Load(path)
	if err != nil {
		return nil, err
	}
	src := &Source{
		path:   path,
		logger: slog.Default().With("component", "catalog"),
	}
	src.current.Store(store)
	return src, nil
}

// NewStaticSource wraps an already built store. Reload is not available.
func NewStaticSource(store *Store) *Source {
	src := &Source{logger: slog.Default().With("component", "catalog")}
	src.current.Store(store)
	return src
}

// Current returns the active snapshot.
func (s *Source) Current() *Store {
	return s.current.Load()
}

// Path returns the catalog path, or "" for a static source.
func (s *Source) Path() string {
	return s.path
}

// Reloads returns the number of successful reloads.
func (s *Source) Reloads() int64 {
	return s.reloads.Load()
}

// OnReload registers fn to be called with each new snapshot.
func (s *Source) OnReload(fn func(*Store)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Reload re-reads the catalog. On failure the previous snapshot stays
// active and the error is returned.
func (s *Source) Reload() error {
	if s.path == "" {
		return fmt.Errorf("catalog source has no path to reload from")
	}

	store, err := Load(s.path)
	if err != nil {
		s.logger.Warn("Catalog reload rejected, keeping previous snapshot", "path", s.path, "error", err)
		return err
	}
	s.current.Store(store)
	s.reloads.Add(1)

	stats := store.Stats()
	s.logger.Info("Catalog reloaded",
		"path", s.path,
		"users", stats.Users,
		"departments", stats.Departments,
		"products", stats.Products,
		"offers", stats.Offers,
	)

	s.mu.Lock()
	listeners := append([]func(*Store){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(store)
	}
	return nil
}

// Watch reloads the catalog whenever its files change. It blocks until ctx
// is cancelled.
func (s *Source) Watch(ctx context.Context, config *WatcherConfig) error {
	if s.path == "" {
		return fmt.Errorf("catalog source has no path to watch")
	}
	if config == nil {
		config = DefaultWatcherConfig()
	}
	config.Path = s.path

	w, err := NewWatcher(config, s.logger)
	if err != nil {
		return err
	}
	defer w.Stop()

	return w.Watch(ctx, s.Reload)
}

// User looks up a user in the current snapshot.
func (s *Source) User(id string) (*procurement.User, error) { return s.Current().User(id) }

// Department looks up a department in the current snapshot.
func (s *Source) Department(id string) (*procurement.Department, error) {
	return s.Current().Department(id)
}

// Product looks up a product in the current snapshot.
func (s *Source) Product(id string) (*procurement.Product, error) { return s.Current().Product(id) }

// Supplier looks up a supplier in the current snapshot.
func (s *Source) Supplier(id string) (*procurement.Supplier, error) {
	return s.Current().Supplier(id)
}

// Offers lists offers in the current snapshot.
func (s *Source) Offers(productID, supplierID string) ([]procurement.Offer, error) {
	return s.Current().Offers(productID, supplierID)
}

// Products lists products in the current snapshot.
func (s *Source) Products() []*procurement.Product { return s.Current().Products() }

// Departments lists departments in the current snapshot.
func (s *Source) Departments() []*procurement.Department { return s.Current().Departments() }
