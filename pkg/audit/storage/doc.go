// Package storage implements the audit.Storage interface twice: a bounded
// in-process ring for development and testing, and an embedded SQLite
// database for single-node deployments that need records to survive a
// restart.
//
// The memory backend keeps the newest records in a fixed-size ring,
// silently evicting the oldest on overflow:
//
//	store := storage.NewMemoryStorage(10000)
//
// The SQLite backend runs in WAL mode so audit queries never block the
// write path, keeps an index per queryable filter column, and waits out
// short lock contention via the busy timeout:
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:        "data/audit.db",
//	    WALMode:     true,
//	    BusyTimeout: 5 * time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
// Both backends are safe for concurrent use.
package storage
