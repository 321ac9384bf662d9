// Package retention prunes old audit records on a schedule.
//
// Records expire two ways. An age cutoff deletes everything older than the
// configured number of days, and a count cap deletes the oldest records
// once the store holds more than the configured maximum. Either limit can
// be zero to switch that phase off.
//
// A cron expression drives the background schedule; Pruner.Prune runs the
// same two phases on demand:
//
//	pruner := retention.NewPruner(store, &retention.Config{
//	    RetentionDays: 7,
//	    PruneSchedule: "0 3 * * *",
//	})
//	if err := pruner.Start(ctx); err != nil {
//	    return err
//	}
//	defer pruner.Stop()
//
// NextPruning exposes the schedule's next firing time for health and
// status reporting.
package retention
