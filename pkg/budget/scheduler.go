package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultRolloverSchedule runs at midnight on the first day of each month.
const DefaultRolloverSchedule = "0 0 1 * *"

// Scheduler runs Tracker.Rollover on a cron schedule.
type Scheduler struct {
	tracker  *Tracker
	schedule string
	cron     *cron.Cron
	mu       sync.Mutex
	logger   *slog.Logger
	running  bool
}

// NewScheduler creates a rollover scheduler. An empty schedule disables it.
func NewScheduler(tracker *Tracker, schedule string) *Scheduler {
	return &Scheduler{
		tracker:  tracker,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(tracker.config.Location)),
		logger:   slog.Default().With("component", "budget.scheduler"),
	}
}

// Start schedules the rollover job and stops it when ctx is cancelled.
//
// Common cron expressions:
//   - "0 0 1 * *"  - Monthly at midnight on the 1st
//   - "5 0 1 * *"  - Monthly, five minutes past midnight
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("rollover schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.runRollover(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule rollover: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("budget rollover scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

func (s *Scheduler) runRollover(ctx context.Context) {
	rolled, err := s.tracker.Rollover(ctx)
	if err != nil {
		s.logger.Error("scheduled budget rollover failed", "error", err, "rolled", rolled)
		return
	}
	s.logger.Info("scheduled budget rollover completed", "rolled", rolled)
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("budget rollover scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled rollover time.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
