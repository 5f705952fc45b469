package gitsync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Reloader re-reads the catalog from disk. *catalog.Source implements it.
type Reloader interface {
	Reload() error
}

// Syncer polls a Repository and reloads the catalog when catalog files
// change.
type Syncer struct {
	repo     *Repository
	source   Reloader
	interval time.Duration
	logger   *slog.Logger

	mu       sync.RWMutex
	loaded   string
	head     string
	failures int64
}

// NewSyncer creates a syncer for repo. The commit the repository is at when
// Run starts is taken as the loaded one.
func NewSyncer(repo *Repository, source Reloader, interval time.Duration) *Syncer {
	return &Syncer{
		repo:     repo,
		source:   source,
		interval: interval,
		logger:   slog.Default().With("component", "catalog.gitsync"),
	}
}

// Run polls until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", s.interval)
	}
	if err := s.init(); err != nil {
		return err
	}

	s.logger.Info("Catalog git sync started", "interval", s.interval, "commit", short(s.Loaded()))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sync(ctx); err != nil {
				s.logger.Error("Catalog git sync failed", "error", err)
			}
		}
	}
}

// Sync pulls once and reloads the catalog if a catalog file changed. It
// reports whether a new snapshot was loaded. When the reload fails the
// previous snapshot keeps serving and the failing commit is not retried.
func (s *Syncer) Sync(ctx context.Context) (bool, error) {
	if err := s.init(); err != nil {
		return false, err
	}

	result, err := s.repo.Pull(ctx)
	if err != nil {
		return false, err
	}
	if !result.HadChanges() {
		return false, nil
	}

	s.mu.Lock()
	s.head = result.ToSHA
	s.mu.Unlock()

	if !s.repo.TouchesCatalog(result.ChangedFiles) {
		s.logger.Debug("No catalog files changed, skipping reload",
			"to_sha", short(result.ToSHA), "changed_files", result.ChangedFiles)
		return false, nil
	}

	if err := s.source.Reload(); err != nil {
		s.mu.Lock()
		s.failures++
		s.mu.Unlock()
		return false, fmt.Errorf("catalog at commit %s rejected: %w", short(result.ToSHA), err)
	}

	s.mu.Lock()
	from := s.loaded
	s.loaded = result.ToSHA
	s.mu.Unlock()

	s.logger.Info("Catalog synced from git",
		"from_sha", short(from),
		"to_sha", short(result.ToSHA),
		"changed_files", len(result.ChangedFiles),
	)
	return true, nil
}

// Loaded returns the commit the serving catalog snapshot was read from.
func (s *Syncer) Loaded() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Head returns the latest commit pulled, which differs from Loaded when a
// commit was rejected.
func (s *Syncer) Head() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.head
}

// Failures returns the number of rejected commits.
func (s *Syncer) Failures() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.failures
}

func (s *Syncer) init() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded != "" {
		return nil
	}
	head, err := s.repo.Head()
	if err != nil {
		return fmt.Errorf("failed to get initial commit: %w", err)
	}
	s.loaded = head.SHA
	s.head = head.SHA
	return nil
}

func short(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
