// Package recorder provides async persistence of audit records. Discovery
// and health components hand completed round records to the recorder, which
// queues them on a buffered channel and writes them from a background
// worker; Record returns without touching storage, and Close drains
// whatever is still queued before shutdown.
//
// If the queue stays full past the configured write timeout the record is
// dropped and an error is returned, so a wedged storage backend degrades
// auditing rather than request handling.
//
//	rec := recorder.NewRecorder(store, &recorder.Config{
//	    Enabled:      true,
//	    AsyncBuffer:  1000,
//	    WriteTimeout: 5 * time.Second,
//	})
//	defer rec.Close()
//
//	record := audit.NewRecord(audit.KindDiscovery)
//	record.PodID = "alpha"
//	record.Outcome = "matched"
//	rec.Record(record)
package recorder
