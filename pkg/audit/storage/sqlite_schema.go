package storage

// SchemaVersion is bumped on any incompatible change to the table layout.
// NewSQLiteStorage refuses to open a file written by a different version.
const SchemaVersion = 1

// Schema creates the audit tables and their indexes. Every statement is
// idempotent so reopening an existing database is safe.
const Schema = `
-- One row per discovery or health round
CREATE TABLE IF NOT EXISTS audit_records (
    id TEXT PRIMARY KEY,
    at TIMESTAMP NOT NULL,
    kind TEXT NOT NULL,
    pod_id TEXT,
    outcome TEXT NOT NULL,

    -- JSON array of probed host:port addresses
    candidates TEXT,

    matched_addr TEXT,
    duplicate BOOLEAN NOT NULL DEFAULT 0,
    duration_ms INTEGER NOT NULL,

    -- Free-form JSON payload with per-candidate results
    detail TEXT
);

-- Which layout this file was written with
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

-- One index per queryable filter column
CREATE INDEX IF NOT EXISTS idx_audit_at ON audit_records(at);
CREATE INDEX IF NOT EXISTS idx_audit_kind ON audit_records(kind);
CREATE INDEX IF NOT EXISTS idx_audit_pod_id ON audit_records(pod_id);
CREATE INDEX IF NOT EXISTS idx_audit_outcome ON audit_records(outcome);
CREATE INDEX IF NOT EXISTS idx_audit_duplicate ON audit_records(duplicate);
`

// InsertSchemaVersion stamps a fresh database with the current version.
// On an already-stamped file the conflict clause makes it a no-op.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion reads back the version the file was stamped with.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
