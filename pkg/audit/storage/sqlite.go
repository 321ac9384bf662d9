package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sextant-gg/sextant/pkg/audit"
)

// recordColumns is the canonical column order shared by Store and scanRow.
const recordColumns = "id, at, kind, pod_id, outcome, candidates, matched_addr, duplicate, duration_ms, detail"

// SQLiteConfig tunes the SQLite backend.
type SQLiteConfig struct {
	// Path of the database file. Parent directories must exist.
	Path string

	// Connection pool bounds. SQLite serializes writers anyway, so the
	// defaults stay small.
	MaxOpenConns int
	MaxIdleConns int

	// WALMode turns on write-ahead logging so audit queries do not stall
	// writes coming off the discovery path.
	WALMode bool

	// BusyTimeout is how long a statement waits on a locked database
	// before failing.
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the settings applied when NewSQLiteStorage
// gets a nil config.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Path:         "data/audit.db",
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStorage implements the Storage interface on a local SQLite file.
type SQLiteStorage struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStorage opens (creating if needed) the database at the
// configured path, applies pragmas, and verifies the schema version.
func NewSQLiteStorage(config *SQLiteConfig) (*SQLiteStorage, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}

	db, err := sql.Open(sqliteDriver, config.Path)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "open", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)

	s := &SQLiteStorage{
		db:     db,
		config: config,
		logger: slog.Default().With("component", "audit.storage.sqlite"),
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	s.logger.Info("sqlite audit store ready",
		"path", config.Path,
		"wal_mode", config.WALMode,
		"max_open_conns", config.MaxOpenConns,
	)
	return s, nil
}

// initialize applies pragmas, creates the schema when absent, and checks
// that the file's schema version matches this build.
func (s *SQLiteStorage) initialize() error {
	if s.config.WALMode {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return audit.NewStorageError("sqlite", "enable_wal", err)
		}
	}
	busyMs := s.config.BusyTimeout.Milliseconds()
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", busyMs)); err != nil {
		return audit.NewStorageError("sqlite", "set_busy_timeout", err)
	}

	if _, err := s.db.Exec(Schema); err != nil {
		return audit.NewStorageError("sqlite", "create_schema", err)
	}
	if _, err := s.db.Exec(InsertSchemaVersion, SchemaVersion); err != nil {
		return audit.NewStorageError("sqlite", "insert_schema_version", err)
	}

	var version int
	if err := s.db.QueryRow(GetSchemaVersion).Scan(&version); err != nil && err != sql.ErrNoRows {
		return audit.NewStorageError("sqlite", "get_schema_version", err)
	}
	if version != SchemaVersion {
		return audit.NewStorageError("sqlite", "schema_version_mismatch",
			fmt.Errorf("schema version %d, this build expects %d", version, SchemaVersion))
	}

	s.logger.Debug("schema ready", "version", version)
	return nil
}

// nullable maps "" to NULL so optional columns answer IS NULL queries.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Store persists one audit record.
func (s *SQLiteStorage) Store(ctx context.Context, record *audit.Record) error {
	candidates, _ := json.Marshal(record.Candidates)

	stmt := fmt.Sprintf("INSERT INTO audit_records (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)", recordColumns)
	_, err := s.db.ExecContext(ctx, stmt,
		record.ID, record.At, record.Kind, nullable(record.PodID), record.Outcome,
		string(candidates),
		nullable(record.MatchedAddr), record.Duplicate, record.Duration.Milliseconds(),
		nullable(record.Detail),
	)
	if err != nil {
		return audit.NewStorageError("sqlite", "store", err)
	}
	return nil
}

// Query returns records matching the filters, newest first unless the
// query asks for ascending order.
func (s *SQLiteStorage) Query(ctx context.Context, query *audit.Query) ([]*audit.Record, error) {
	where, args := buildWhereClause(query)

	stmt := fmt.Sprintf("SELECT %s FROM audit_records", recordColumns)
	if where != "" {
		stmt += " WHERE " + where
	}

	order := "DESC"
	if query.SortOrder == "asc" {
		order = "ASC"
	}
	stmt += " ORDER BY at " + order

	limit := 100
	if query.Limit > 0 {
		limit = query.Limit
	}
	stmt += fmt.Sprintf(" LIMIT %d", limit)
	if query.Offset > 0 {
		stmt += fmt.Sprintf(" OFFSET %d", query.Offset)
	}

	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	defer rows.Close()

	records := []*audit.Record{}
	for rows.Next() {
		record, err := scanRow(rows)
		if err != nil {
			return nil, audit.NewStorageError("sqlite", "scan", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, audit.NewStorageError("sqlite", "query", err)
	}
	return records, nil
}

// Count returns how many records match the filters.
func (s *SQLiteStorage) Count(ctx context.Context, query *audit.Query) (int64, error) {
	where, args := buildWhereClause(query)

	stmt := "SELECT COUNT(*) FROM audit_records"
	if where != "" {
		stmt += " WHERE " + where
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&count); err != nil {
		return 0, audit.NewStorageError("sqlite", "count", err)
	}
	return count, nil
}

// Delete removes matching records and reports how many went.
func (s *SQLiteStorage) Delete(ctx context.Context, query *audit.Query) (int64, error) {
	where, args := buildWhereClause(query)

	stmt := "DELETE FROM audit_records"
	if where != "" {
		stmt += " WHERE " + where
	}

	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, audit.NewStorageError("sqlite", "delete", err)
	}
	return count, nil
}

// Close releases the database handle.
func (s *SQLiteStorage) Close() error {
	if err := s.db.Close(); err != nil {
		return audit.NewStorageError("sqlite", "close", err)
	}
	s.logger.Info("sqlite audit store closed")
	return nil
}

// buildWhereClause translates query filters into a WHERE body (without
// the keyword) and its placeholder arguments.
func buildWhereClause(query *audit.Query) (string, []any) {
	var conds []string
	var args []any

	if query.StartTime != nil {
		conds = append(conds, "at >= ?")
		args = append(args, *query.StartTime)
	}
	if query.EndTime != nil {
		conds = append(conds, "at <= ?")
		args = append(args, *query.EndTime)
	}
	if query.Kind != "" {
		conds = append(conds, "kind = ?")
		args = append(args, query.Kind)
	}
	if query.PodID != "" {
		conds = append(conds, "pod_id = ?")
		args = append(args, query.PodID)
	}
	if query.Outcome != "" {
		conds = append(conds, "outcome = ?")
		args = append(args, query.Outcome)
	}
	if query.DuplicateOnly {
		conds = append(conds, "duplicate = 1")
	}

	return strings.Join(conds, " AND "), args
}

// scanRow reads one row in recordColumns order. NULL text columns come
// back as empty strings through sql.NullString.
func scanRow(row *sql.Rows) (*audit.Record, error) {
	var record audit.Record
	var candidates string
	var durationMs int64
	var podID, matched, detail sql.NullString

	err := row.Scan(
		&record.ID, &record.At, &record.Kind, &podID, &record.Outcome,
		&candidates,
		&matched, &record.Duplicate, &durationMs,
		&detail,
	)
	if err != nil {
		return nil, err
	}

	record.PodID = podID.String
	record.MatchedAddr = matched.String
	record.Detail = detail.String
	record.Duration = time.Duration(durationMs) * time.Millisecond

	if candidates != "" {
		json.Unmarshal([]byte(candidates), &record.Candidates)
	}

	return &record, nil
}
