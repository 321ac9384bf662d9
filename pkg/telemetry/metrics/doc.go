// Package metrics provides Prometheus metrics collection for Sextant.
//
// The package exposes a single Collector that owns a Prometheus registry
// and groups the proxy's metrics into two families:
//
//   - Request metrics: inbound HTTP traffic and WebSocket session counts
//   - Discovery metrics: pod lookup rounds, identity probes, duplicate
//     identity detections, and cache occupancy
//
// A typical wiring:
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//
//	// In the discovery path:
//	collector.RecordDiscoveryRound("matched", elapsed)
//
//	// Expose the endpoint:
//	mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// All metrics carry the "sextant" namespace. Recording is a no-op when
// metrics are disabled in configuration, so callers never need to guard
// call sites themselves.
//
// # Cardinality
//
// Pod identifiers are client-controlled input and stay off high-traffic
// metrics. The one metric that does label by pod_id, the
// duplicate identity counter, runs behind a CardinalityLimiter that folds
// identifiers past a fixed cap into "other".
package metrics
