package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Record kinds. Discovery records describe one pod lookup; health records
// describe one fleet-wide health round.
const (
	KindDiscovery = "discovery"
	KindHealth    = "health"
)

// Record captures the outcome of a single discovery or health round: which
// addresses were considered, which one matched, and how the round settled.
// Records are the proxy's answer to "why did this pod resolve there five
// minutes ago" once the cache entry is long gone.
type Record struct {
	// ID uniquely identifies the record, a fresh UUID per round.
	ID string `json:"id"`

	// At is when the round started.
	At time.Time `json:"at"`

	// Kind is one of the Kind* constants.
	Kind string `json:"kind"`

	// PodID is the lookup target. Empty for health rounds, which probe the
	// whole fleet rather than chase one identifier.
	PodID string `json:"pod_id,omitempty"`

	// Outcome is how the round settled (e.g., "cache_hit", "matched",
	// "not_found", "no_candidates" for discovery; "ok", "unhealthy" for
	// health).
	Outcome string `json:"outcome"`

	// Candidates lists every address probed this round, as host:port.
	// Empty on cache hits and pinned routes, which probe nothing.
	Candidates []string `json:"candidates,omitempty"`

	// MatchedAddr is the address the round resolved to, as host:port.
	// Empty unless the outcome produced an address.
	MatchedAddr string `json:"matched_addr,omitempty"`

	// Duplicate is set when more than one candidate claimed the target
	// identifier. The first in deterministic order won; the duplicate is
	// almost certainly a fleet misconfiguration.
	Duplicate bool `json:"duplicate,omitempty"`

	// Duration is the time from round start to settled result.
	Duration time.Duration `json:"duration"`

	// Detail carries a free-form JSON payload with per-candidate results
	// (reported identity or failure per address). May be empty.
	Detail string `json:"detail,omitempty"`
}

// NewRecord creates a record of the given kind with a fresh ID and the
// current time. Callers fill in the rest.
func NewRecord(kind string) *Record {
	return &Record{
		ID:   uuid.NewString(),
		At:   time.Now().UTC(),
		Kind: kind,
	}
}

// Query narrows what comes back from a Storage. Zero-valued fields do not
// filter, so a zero Query matches every record.
type Query struct {
	// StartTime and EndTime bound Record.At, both ends inclusive.
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// Kind, PodID and Outcome match their Record fields exactly.
	Kind    string `json:"kind,omitempty"`
	PodID   string `json:"pod_id,omitempty"`
	Outcome string `json:"outcome,omitempty"`

	// DuplicateOnly keeps only rounds where more than one candidate
	// claimed the target identifier.
	DuplicateOnly bool `json:"duplicate_only,omitempty"`

	// Limit caps the result set, zero meaning uncapped. Offset skips that
	// many records first.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`

	// Sorting, by record time. "asc" or "desc"; defaults to "desc".
	SortOrder string `json:"sort_order,omitempty"`
}

// Storage persists records and answers queries over them. Backends are safe
// for concurrent use; the recorder writes from its worker goroutine while
// the CLI reads.
type Storage interface {
	// Store writes one record.
	Store(ctx context.Context, record *Record) error

	// Query returns the records matching query, newest first unless the
	// query says otherwise. No matches is an empty slice, not an error.
	Query(ctx context.Context, query *Query) ([]*Record, error)

	// Count reports how many records match query. Limit and Offset are
	// ignored.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes the matching records and reports how many went.
	// Retention enforcement is built on this.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases the backend.
	Close() error
}
