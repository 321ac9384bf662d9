// Package audit keeps a queryable history of discovery activity. Each
// completed discovery round and health sweep can be captured as one
// immutable record: which addresses DNS returned, which candidate claimed
// the pod identity, how the round settled, and how long it took. The trail
// answers "why did this pod resolve there five minutes ago" after the
// cache entry and the logs have moved on, and it is where duplicate
// identity incidents are preserved for later inspection.
//
// The package splits into this root (record and query types plus the
// Storage interface), recorder (the async write path), storage (memory and
// SQLite backends), and retention (scheduled pruning). Writes go through
// the recorder's buffered channel and single worker goroutine, so the
// discovery path never waits on a disk flush; a persistently full queue
// drops the record rather than stalling a lookup.
//
// A typical wiring, as done by the run command:
//
//	store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
//	    Path:    "data/audit.db",
//	    WALMode: true,
//	})
//	if err != nil {
//	    return err
//	}
//	rec := recorder.NewRecorder(store, recorder.DefaultConfig())
//	defer rec.Close()
//
//	record := audit.NewRecord(audit.KindDiscovery)
//	record.PodID = "alpha"
//	record.Outcome = "matched"
//	rec.Record(record)
//
// Reading back goes through the same Storage interface, usually from the
// audit CLI:
//
//	records, err := store.Query(ctx, &audit.Query{
//	    Kind:  audit.KindDiscovery,
//	    PodID: "alpha",
//	    Limit: 100,
//	})
//
// Everything here is safe for concurrent use. The memory backend is a
// bounded ring for deployments that only care about recent history; the
// SQLite backend (WAL mode, schema versioning) survives restarts and is
// what the retention pruner is aimed at. Anything satisfying Storage can
// stand in for either.
package audit
