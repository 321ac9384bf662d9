package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sextant-gg/sextant/pkg/audit"
)

// createTempDB opens a WAL-mode store under t.TempDir.
func createTempDB(t *testing.T) (*SQLiteStorage, string) {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	config := &SQLiteConfig{
		Path:         dbPath,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}

	store, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}

	return store, dbPath
}

// TestSQLiteStorage_Initialize tests that opening a fresh path creates the
// file and stamps the schema version.
func TestSQLiteStorage_Initialize(t *testing.T) {
	store, dbPath := createTempDB(t)
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file missing after initialization")
	}

	// The migration must have stamped the version table.
	var version int
	if err := store.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil {
		t.Fatalf("Failed to read schema version: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("schema version = %d, want %d", version, SchemaVersion)
	}
}

// TestSQLiteStorage_StoreAndQuery tests a full record round-trip.
func TestSQLiteStorage_StoreAndQuery(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	record := &audit.Record{
		ID:          "test-id-1",
		At:          now,
		Kind:        audit.KindDiscovery,
		PodID:       "alpha",
		Outcome:     "matched",
		Candidates:  []string{"10.0.0.1:7777", "10.0.0.2:7777"},
		MatchedAddr: "10.0.0.1:7777",
		Duplicate:   true,
		Duration:    42 * time.Millisecond,
		Detail:      `{"results":[{"addr":"10.0.0.1:7777","pod_id":"alpha"}]}`,
	}

	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	results, err := store.Query(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(results))
	}

	got := results[0]
	if got.ID != record.ID {
		t.Errorf("Expected ID %q, got %q", record.ID, got.ID)
	}
	if !got.At.Equal(now) {
		t.Errorf("Expected at %v, got %v", now, got.At)
	}
	if got.Kind != audit.KindDiscovery {
		t.Errorf("Expected kind %q, got %q", audit.KindDiscovery, got.Kind)
	}
	if got.PodID != "alpha" {
		t.Errorf("Expected pod_id 'alpha', got %q", got.PodID)
	}
	if len(got.Candidates) != 2 || got.Candidates[0] != "10.0.0.1:7777" {
		t.Errorf("Candidates did not round-trip: %v", got.Candidates)
	}
	if got.MatchedAddr != "10.0.0.1:7777" {
		t.Errorf("Expected matched addr '10.0.0.1:7777', got %q", got.MatchedAddr)
	}
	if !got.Duplicate {
		t.Error("Expected duplicate flag to survive round-trip")
	}
	if got.Duration != 42*time.Millisecond {
		t.Errorf("Expected duration 42ms, got %v", got.Duration)
	}
	if got.Detail != record.Detail {
		t.Errorf("Detail did not round-trip: %q", got.Detail)
	}
}

// TestSQLiteStorage_NullableFields tests that optional fields stored as NULL
// come back as empty values.
func TestSQLiteStorage_NullableFields(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()

	record := &audit.Record{
		ID:      "minimal-1",
		At:      time.Now().UTC().Truncate(time.Millisecond),
		Kind:    audit.KindHealth,
		Outcome: "ok",
	}

	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}

	results, err := store.Query(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(results))
	}

	got := results[0]
	if got.PodID != "" {
		t.Errorf("Expected empty pod_id, got %q", got.PodID)
	}
	if got.MatchedAddr != "" {
		t.Errorf("Expected empty matched_addr, got %q", got.MatchedAddr)
	}
	if got.Detail != "" {
		t.Errorf("Expected empty detail, got %q", got.Detail)
	}
	if got.Duplicate {
		t.Error("Expected duplicate flag false")
	}
}

// TestSQLiteStorage_QueryWithFilters tests filter combinations against SQL.
func TestSQLiteStorage_QueryWithFilters(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	records := []*audit.Record{
		{ID: "r1", At: now.Add(-2 * time.Hour), Kind: audit.KindDiscovery, PodID: "alpha", Outcome: "matched"},
		{ID: "r2", At: now.Add(-1 * time.Hour), Kind: audit.KindDiscovery, PodID: "beta", Outcome: "not_found"},
		{ID: "r3", At: now, Kind: audit.KindDiscovery, PodID: "alpha", Outcome: "cache_hit"},
		{ID: "r4", At: now, Kind: audit.KindHealth, Outcome: "ok"},
		{ID: "r5", At: now, Kind: audit.KindDiscovery, PodID: "gamma", Outcome: "matched", Duplicate: true},
	}
	for _, record := range records {
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	startTime := now.Add(-90 * time.Minute)

	tests := []struct {
		name      string
		query     *audit.Query
		wantCount int
	}{
		{
			name:      "no filters",
			query:     &audit.Query{},
			wantCount: 5,
		},
		{
			name:      "filter by kind",
			query:     &audit.Query{Kind: audit.KindHealth},
			wantCount: 1,
		},
		{
			name:      "filter by pod id",
			query:     &audit.Query{PodID: "alpha"},
			wantCount: 2,
		},
		{
			name:      "filter by outcome",
			query:     &audit.Query{Outcome: "matched"},
			wantCount: 2,
		},
		{
			name:      "filter by duplicate only",
			query:     &audit.Query{DuplicateOnly: true},
			wantCount: 1,
		},
		{
			name:      "filter by start time",
			query:     &audit.Query{StartTime: &startTime},
			wantCount: 4,
		},
		{
			name:      "all filters at once",
			query:     &audit.Query{Kind: audit.KindDiscovery, PodID: "alpha"},
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := store.Query(ctx, tt.query)
			if err != nil {
				t.Fatalf("Query() failed: %v", err)
			}
			if len(results) != tt.wantCount {
				t.Errorf("Expected %d records, got %d", tt.wantCount, len(results))
			}

			count, err := store.Count(ctx, tt.query)
			if err != nil {
				t.Fatalf("Count() failed: %v", err)
			}
			if count != int64(tt.wantCount) {
				t.Errorf("Count() = %d, want %d", count, tt.wantCount)
			}
		})
	}
}

// TestSQLiteStorage_SortAndPagination tests ORDER BY, LIMIT, and OFFSET.
func TestSQLiteStorage_SortAndPagination(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond).Add(-1 * time.Hour)

	for i := 0; i < 5; i++ {
		record := &audit.Record{
			ID:      fmt.Sprintf("r%d", i),
			At:      base.Add(time.Duration(i) * time.Minute),
			Kind:    audit.KindDiscovery,
			Outcome: "matched",
		}
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	// Default is newest first
	results, err := store.Query(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(results))
	}
	if results[0].ID != "r4" {
		t.Errorf("Expected newest record first, got %s", results[0].ID)
	}

	// Ascending with limit and offset
	results, err = store.Query(ctx, &audit.Query{SortOrder: "asc", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(results))
	}
	if results[0].ID != "r1" || results[1].ID != "r2" {
		t.Errorf("Expected r1,r2 got %s,%s", results[0].ID, results[1].ID)
	}
}

// TestSQLiteStorage_Delete tests deletion by time cutoff.
func TestSQLiteStorage_Delete(t *testing.T) {
	store, _ := createTempDB(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	records := []*audit.Record{
		{ID: "old-1", At: now.AddDate(0, 0, -10), Kind: audit.KindDiscovery, Outcome: "matched"},
		{ID: "old-2", At: now.AddDate(0, 0, -8), Kind: audit.KindDiscovery, Outcome: "matched"},
		{ID: "new-1", At: now, Kind: audit.KindDiscovery, Outcome: "matched"},
	}
	for _, record := range records {
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store() failed: %v", err)
		}
	}

	cutoff := now.AddDate(0, 0, -7)
	deleted, err := store.Delete(ctx, &audit.Query{EndTime: &cutoff})
	if err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	count, err := store.Count(ctx, &audit.Query{})
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 remaining record, got %d", count)
	}
}

// TestSQLiteStorage_PersistsAcrossReopen tests that records survive closing
// and reopening the database file.
func TestSQLiteStorage_PersistsAcrossReopen(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	config := &SQLiteConfig{
		Path:         dbPath,
		MaxOpenConns: 5,
		MaxIdleConns: 2,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}

	store, err := NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("NewSQLiteStorage() failed: %v", err)
	}

	ctx := context.Background()
	record := &audit.Record{
		ID:      "persist-1",
		At:      time.Now().UTC().Truncate(time.Millisecond),
		Kind:    audit.KindDiscovery,
		PodID:   "alpha",
		Outcome: "matched",
	}
	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store() failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	// Reopen
	store, err = NewSQLiteStorage(config)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite storage: %v", err)
	}
	defer store.Close()

	results, err := store.Query(ctx, &audit.Query{PodID: "alpha"})
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "persist-1" {
		t.Errorf("Record did not survive reopen: %v", results)
	}
}
