package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// probeDurationBuckets covers the expected probe latency range. The default
// per-probe timeout is two seconds, so anything past the last bucket is a
// timeout or close to one.
var probeDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3}

// DiscoveryMetrics covers the pod discovery pipeline: lookup rounds and
// their outcomes, individual identity probes, duplicate-identity detections,
// and the size of the address cache. The series live under
// sextant_discovery_*, sextant_probe*, sextant_duplicate_identity_total and
// sextant_cache_entries.
type DiscoveryMetrics struct {
	roundsTotal       *prometheus.CounterVec
	roundDuration     prometheus.Histogram
	probesTotal       *prometheus.CounterVec
	probeDuration     prometheus.Histogram
	duplicateIdentity *prometheus.CounterVec
	cacheEntries      prometheus.Gauge
}

// NewDiscoveryMetrics creates and registers discovery metrics with the
// provided registry.
func NewDiscoveryMetrics(registry *prometheus.Registry) *DiscoveryMetrics {
	dm := &DiscoveryMetrics{
		roundsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "discovery_rounds_total",
				Help:      "Total number of pod lookups by outcome (cache_hit, pinned, matched, not_found, no_candidates)",
			},
			[]string{"outcome"},
		),

		roundDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "discovery_round_duration_seconds",
				Help:      "Duration of pod lookups in seconds, cache hits included",
				Buckets:   probeDurationBuckets,
			},
		),

		probesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "probes_total",
				Help:      "Total number of identity probes by result (ok, error)",
			},
			[]string{"result"},
		),

		probeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "probe_duration_seconds",
				Help:      "Duration of identity probes in seconds",
				Buckets:   probeDurationBuckets,
			},
		),

		duplicateIdentity: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "duplicate_identity_total",
				Help:      "Rounds in which more than one candidate claimed the same pod identifier",
			},
			[]string{"pod_id"},
		),

		cacheEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "cache_entries",
				Help:      "Number of unexpired entries in the pod address cache",
			},
		),
	}

	registry.MustRegister(
		dm.roundsTotal,
		dm.roundDuration,
		dm.probesTotal,
		dm.probeDuration,
		dm.duplicateIdentity,
		dm.cacheEntries,
	)

	return dm
}

// RecordRound records a settled pod lookup.
func (dm *DiscoveryMetrics) RecordRound(outcome string, duration time.Duration) {
	dm.roundsTotal.WithLabelValues(outcome).Inc()
	dm.roundDuration.Observe(duration.Seconds())
}

// RecordProbe records a settled identity probe.
func (dm *DiscoveryMetrics) RecordProbe(result string, duration time.Duration) {
	dm.probesTotal.WithLabelValues(result).Inc()
	dm.probeDuration.Observe(duration.Seconds())
}

// RecordDuplicate records a duplicate-identity occurrence for a pod.
func (dm *DiscoveryMetrics) RecordDuplicate(podID string) {
	dm.duplicateIdentity.WithLabelValues(podID).Inc()
}

// UpdateCacheEntries updates the cache size gauge.
func (dm *DiscoveryMetrics) UpdateCacheEntries(n int) {
	dm.cacheEntries.Set(float64(n))
}
