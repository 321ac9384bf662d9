// Package telemetry groups the proxy's observability packages. The
// logging subpackage builds structured slog loggers, and metrics owns the
// Prometheus registry and the scrape endpoint. The tracing subpackage
// carries OpenTelemetry spans across the proxy hop, propagating W3C trace
// context in both directions.
//
// Each subpackage stands alone; there is no umbrella type tying them
// together. The run command wires them in order: logger first, so
// everything after it logs structurally, then the metrics collector, then
// the tracer.
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
// Metrics and tracing are both optional: a nil collector disables metric
// recording wherever one is accepted, and a disabled tracer produces noop
// spans.
package telemetry
