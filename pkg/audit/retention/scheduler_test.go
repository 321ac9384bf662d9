package retention

import (
	"context"
	"testing"

	"github.com/sextant-gg/sextant/pkg/audit/storage"
)

// TestScheduler_StartStop tests the scheduler lifecycle.
func TestScheduler_StartStop(t *testing.T) {
	store := storage.NewMemoryStorage(0)
	config := DefaultConfig()
	config.PruneSchedule = "0 3 * * *"

	pruner := NewPruner(store, config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	if !pruner.scheduler.IsRunning() {
		t.Error("Expected scheduler to be running after Start()")
	}

	next := pruner.NextPruning()
	if next == nil {
		t.Fatal("Expected a next pruning time")
	}

	pruner.Stop()

	if pruner.scheduler.IsRunning() {
		t.Error("Expected scheduler to be stopped after Stop()")
	}
}

// TestScheduler_EmptyScheduleSkips tests that an empty cron expression
// disables scheduling without error.
func TestScheduler_EmptyScheduleSkips(t *testing.T) {
	store := storage.NewMemoryStorage(0)
	config := DefaultConfig()
	config.PruneSchedule = ""

	pruner := NewPruner(store, config)

	if err := pruner.Start(context.Background()); err != nil {
		t.Fatalf("Start() with empty schedule failed: %v", err)
	}

	if pruner.scheduler.IsRunning() {
		t.Error("Expected scheduler to stay idle with empty schedule")
	}
}

// TestScheduler_InvalidSchedule tests cron expression validation.
func TestScheduler_InvalidSchedule(t *testing.T) {
	store := storage.NewMemoryStorage(0)
	config := DefaultConfig()
	config.PruneSchedule = "not a cron expression"

	pruner := NewPruner(store, config)

	if err := pruner.Start(context.Background()); err == nil {
		t.Error("Expected error for invalid cron expression")
	}
}

// TestScheduler_ContextCancelStops tests that cancelling the start context
// stops the scheduler.
func TestScheduler_ContextCancelStops(t *testing.T) {
	store := storage.NewMemoryStorage(0)
	config := DefaultConfig()
	config.PruneSchedule = "0 3 * * *"

	pruner := NewPruner(store, config)

	ctx, cancel := context.WithCancel(context.Background())
	if err := pruner.Start(ctx); err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	cancel()

	// Stop() is idempotent; calling it here also waits out the background
	// goroutine racing the same shutdown.
	pruner.Stop()

	if pruner.scheduler.IsRunning() {
		t.Error("Expected scheduler to stop after context cancel")
	}
}
