package storage

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/sextant-gg/sextant/pkg/audit"
)

// DefaultMemoryMaxEntries bounds the in-memory backend when the caller does
// not choose a cap. The proxy runs for weeks; an unbounded store would not.
const DefaultMemoryMaxEntries = 10000

// MemoryStorage implements the Storage interface as a bounded in-memory
// ring: records are kept in insertion order and the oldest are dropped once
// the cap is reached. It is the default backend and suits deployments that
// only care about recent history; use the SQLite backend for durability.
type MemoryStorage struct {
	records    []*audit.Record
	maxEntries int
	mu         sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage backend holding at most
// maxEntries records. A non-positive maxEntries selects the default cap.
func NewMemoryStorage(maxEntries int) *MemoryStorage {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoryMaxEntries
	}
	return &MemoryStorage{
		maxEntries: maxEntries,
	}
}

// copyRecord clones a record, including the candidates slice, so stored
// records never alias caller memory.
func copyRecord(record *audit.Record) *audit.Record {
	recordCopy := *record
	recordCopy.Candidates = slices.Clone(record.Candidates)
	return &recordCopy
}

// Store persists an audit record, evicting the oldest record when full.
func (s *MemoryStorage) Store(ctx context.Context, record *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, copyRecord(record))
	if len(s.records) > s.maxEntries {
		over := len(s.records) - s.maxEntries
		s.records = slices.Delete(s.records, 0, over)
	}

	return nil
}

// Query filters under the read lock, then sorts and paginates the copies.
func (s *MemoryStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	s.mu.RLock()

	results := make([]*audit.Record, 0)
	for _, record := range s.records {
		if matchesQuery(record, query) {
			results = append(results, copyRecord(record))
		}
	}
	s.mu.RUnlock()

	// Newest first unless ascending order was asked for.
	if query.SortOrder == "asc" {
		sort.Slice(results, func(i, j int) bool { return results[i].At.Before(results[j].At) })
	} else {
		sort.Slice(results, func(i, j int) bool { return results[i].At.After(results[j].At) })
	}

	// Slice out the requested page.
	start := query.Offset
	if start > len(results) {
		return []*audit.Record{}, nil
	}

	end := len(results)
	if query.Limit > 0 && start+query.Limit < end {
		end = start + query.Limit
	}

	return results[start:end], nil
}

// Count reports how many records pass the filters. Limit and Offset do
// not apply.
func (s *MemoryStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			count++
		}
	}

	return count, nil
}

// Delete drops every matching record in place and reports how many went.
func (s *MemoryStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	var deleted int64
	for _, record := range s.records {
		if matchesQuery(record, query) {
			deleted++
			continue
		}
		kept = append(kept, record)
	}
	// Zero the tail so dropped records can be collected.
	for i := len(kept); i < len(s.records); i++ {
		s.records[i] = nil
	}
	s.records = kept

	return deleted, nil
}

// Close drops all records. There is nothing else to release.
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	return nil
}

// matchesQuery applies every filter in query to a single record.
func matchesQuery(record *audit.Record, query *audit.Query) bool {
	// Record time bounds
	if query.StartTime != nil && record.At.Before(*query.StartTime) {
		return false
	}
	if query.EndTime != nil && record.At.After(*query.EndTime) {
		return false
	}

	// Field filters
	if query.Kind != "" && record.Kind != query.Kind {
		return false
	}
	if query.PodID != "" && record.PodID != query.PodID {
		return false
	}
	if query.Outcome != "" && record.Outcome != query.Outcome {
		return false
	}
	if query.DuplicateOnly && !record.Duplicate {
		return false
	}

	return true
}

// GetByID returns a copy of the record with the given ID, or nil. Tests use
// it to look past the Query surface.
func (s *MemoryStorage) GetByID(id string) *audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.ID == id {
			return copyRecord(record)
		}
	}
	return nil
}

// Size reports how many records are held right now.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.records)
}
