package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sextant-gg/sextant/pkg/audit"
)

// Config bounds how much audit history is kept.
type Config struct {
	// RetentionDays is how many days of records survive an age prune.
	// Zero disables age-based pruning.
	RetentionDays int

	// PruneSchedule is the cron expression driving automatic pruning,
	// for example "0 3 * * *". Empty disables the scheduler; Prune can
	// still be called directly.
	PruneSchedule string

	// MaxRecords caps the total record count. When the store grows past
	// it, the oldest records go first. Zero disables the cap.
	MaxRecords int64
}

// DefaultConfig keeps a week of history, pruned nightly, with no count cap.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 7,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner trims old audit records out of a storage backend, either on demand
// or on the configured cron schedule.
type Pruner struct {
	storage   audit.Storage
	config    *Config
	scheduler *Scheduler
	logger    *slog.Logger
}

// NewPruner creates a pruner over the given storage. A nil config gets the
// defaults.
func NewPruner(storage audit.Storage, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}

	p := &Pruner{
		storage: storage,
		config:  config,
		logger:  slog.Default().With("component", "audit.retention"),
	}
	p.scheduler = NewScheduler(p)
	return p
}

// Prune runs one retention pass and returns how many records were removed.
//
// The age limit is applied first, then the count cap against whatever
// survived. Either limit being zero skips its pass.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	var removed int64

	if p.config.RetentionDays > 0 {
		n, err := p.dropExpired(ctx)
		if err != nil {
			return removed, fmt.Errorf("age prune failed: %w", err)
		}
		removed += n
	}

	if p.config.MaxRecords > 0 {
		n, err := p.enforceCap(ctx)
		if err != nil {
			return removed, fmt.Errorf("count prune failed: %w", err)
		}
		removed += n
	}

	if removed > 0 {
		p.logger.Info("audit retention pass finished",
			"removed", removed,
			"retention_days", p.config.RetentionDays,
			"max_records", p.config.MaxRecords,
		)
	} else {
		p.logger.Debug("audit retention pass removed nothing")
	}
	return removed, nil
}

// dropExpired deletes every record older than the retention window.
func (p *Pruner) dropExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -p.config.RetentionDays)

	n, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, audit.NewRetentionError(p.config.RetentionDays, err)
	}
	if n > 0 {
		p.logger.Debug("expired audit records removed",
			"removed", n,
			"cutoff", cutoff,
		)
	}
	return n, nil
}

// enforceCap deletes the oldest records until the count fits MaxRecords.
func (p *Pruner) enforceCap(ctx context.Context) (int64, error) {
	total, err := p.storage.Count(ctx, &audit.Query{})
	if err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}

	excess := total - p.config.MaxRecords
	if excess <= 0 {
		return 0, nil
	}

	// Page in the records slated for removal, oldest first; the newest of
	// that page is the deletion cutoff. Records sharing the boundary
	// timestamp leave together, which can overshoot the cap by a few rows.
	victims, err := p.storage.Query(ctx, &audit.Query{
		SortOrder: "asc",
		Limit:     int(excess),
	})
	if err != nil {
		return 0, fmt.Errorf("selecting oldest records: %w", err)
	}
	if len(victims) == 0 {
		return 0, nil
	}

	cutoff := victims[len(victims)-1].At
	n, err := p.storage.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		return 0, fmt.Errorf("deleting oldest records: %w", err)
	}

	p.logger.Debug("audit record cap enforced",
		"total", total,
		"cap", p.config.MaxRecords,
		"removed", n,
	)
	return n, nil
}

// Start arms the cron scheduler. A pruner with no schedule starts nothing.
func (p *Pruner) Start(ctx context.Context) error {
	return p.scheduler.Start(ctx)
}

// Stop disarms the scheduler, waiting out any pass in flight.
func (p *Pruner) Stop() {
	p.scheduler.Stop()
}

// NextPruning reports when the next scheduled pass fires, or nil when the
// scheduler is idle.
func (p *Pruner) NextPruning() *time.Time {
	return p.scheduler.NextRun()
}
