package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler fires retention passes on the pruner's cron schedule.
type Scheduler struct {
	pruner *Pruner
	cron   *cron.Cron
	logger *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewScheduler wraps a pruner in a cron runner. Nothing fires until Start.
func NewScheduler(pruner *Pruner) *Scheduler {
	return &Scheduler{
		pruner: pruner,
		cron:   cron.New(),
		logger: slog.Default().With("component", "audit.scheduler"),
	}
}

// Start validates the schedule and begins firing passes. An empty schedule
// is a no-op, not an error, so callers can wire the scheduler
// unconditionally. Cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	schedule := s.pruner.config.PruneSchedule
	if schedule == "" {
		s.logger.Debug("no prune schedule configured, scheduler idle")
		return nil
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", schedule, err)
	}

	if _, err := s.cron.AddFunc(schedule, func() { s.fire(ctx) }); err != nil {
		return fmt.Errorf("scheduling retention pass: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("audit retention scheduled",
		"schedule", schedule,
		"retention_days", s.pruner.config.RetentionDays,
		"max_records", s.pruner.config.MaxRecords,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// fire runs one scheduled retention pass.
func (s *Scheduler) fire(ctx context.Context) {
	removed, err := s.pruner.Prune(ctx)
	if err != nil {
		s.logger.Error("scheduled retention pass failed", "error", err)
		return
	}
	if removed > 0 {
		s.logger.Info("scheduled retention pass finished", "removed", removed)
	}
}

// Stop halts the cron runner and waits for a pass in flight to finish.
// Safe to call repeatedly and before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Debug("audit retention scheduler stopped")
}

// IsRunning reports whether the scheduler is armed.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun reports the next scheduled pass, or nil when idle.
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
