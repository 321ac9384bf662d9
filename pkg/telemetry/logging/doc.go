// Package logging builds the process-wide structured logger.
//
// The proxy logs through log/slog everywhere; this package owns the one
// place where level, format, and destination are decided, so the run
// command and tests construct loggers the same way:
//
//	logger, err := logging.New(logging.Config{
//	    Level:  cfg.Telemetry.LogLevel,
//	    Format: cfg.Telemetry.LogFormat,
//	})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Components attach their identity with the usual slog idiom:
//
//	logger := slog.Default().With("component", "discovery.prober")
//
// Unknown levels and formats are construction errors rather than silent
// fallbacks; configuration validation reports them before a server starts.
package logging
