package metrics

import (
	"sync"
	"time"

	"github.com/sextant-gg/sextant/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every metric exposed by the proxy.
const namespace = "sextant"

// Collector owns the proxy's Prometheus registry and offers one recording
// method per instrumented event, so callers never touch metric vectors
// directly.
//
// Pod identifiers appear as a label only on the duplicate-identity counter,
// where the whole point is naming the misconfigured pod; a cardinality
// limiter folds excess identifiers into "other" so a hostile or broken
// client cannot grow the label space without bound.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	requestMetrics   *RequestMetrics
	discoveryMetrics *DiscoveryMetrics

	cardinalityLimiter *CardinalityLimiter
}

// NewCollector registers every proxy metric on the given registry. Pass a
// nil registry to get a private one, which keeps tests isolated.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	return &Collector{
		config:             cfg,
		registry:           registry,
		requestMetrics:     NewRequestMetrics(registry),
		discoveryMetrics:   NewDiscoveryMetrics(registry),
		cardinalityLimiter: NewCardinalityLimiter(1000),
	}
}

// RecordHTTPRequest records one completed inbound request. The status is
// the numeric response code rendered as a string ("200").
func (c *Collector) RecordHTTPRequest(method, status string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.RecordRequest(method, status, duration)
}

// WebSocketOpened records a successfully established WebSocket session.
func (c *Collector) WebSocketOpened() {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.SessionOpened()
}

// WebSocketClosed records the end of a WebSocket session.
func (c *Collector) WebSocketClosed() {
	if !c.config.Enabled {
		return
	}
	c.requestMetrics.SessionClosed()
}

// RecordDiscoveryRound records one settled discovery round under its
// outcome ("cache_hit", "pinned", "matched", "not_found", "no_candidates").
func (c *Collector) RecordDiscoveryRound(outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.discoveryMetrics.RecordRound(outcome, duration)
}

// RecordProbe records one settled identity probe as "ok" or "error".
func (c *Collector) RecordProbe(result string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}
	c.discoveryMetrics.RecordProbe(result, duration)
}

// RecordDuplicateIdentity counts a round in which more than one candidate
// claimed podID. The identifier becomes a label value, clamped to "other"
// once the limiter fills up.
func (c *Collector) RecordDuplicateIdentity(podID string) {
	if !c.config.Enabled {
		return
	}
	if !c.cardinalityLimiter.Allow("duplicate:" + podID) {
		podID = "other"
	}
	c.discoveryMetrics.RecordDuplicate(podID)
}

// UpdateCacheEntries sets the gauge tracking live pod address cache entries.
func (c *Collector) UpdateCacheEntries(n int) {
	if !c.config.Enabled {
		return
	}
	c.discoveryMetrics.UpdateCacheEntries(n)
}

// Registry exposes the underlying registry for callers that register their
// own metrics next to the proxy's. The metrics endpoint itself comes from
// Handler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter bounds the distinct label values a metric may take.
// Once full, previously seen values keep passing and new ones are refused.
type CardinalityLimiter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]struct{}
}

// NewCardinalityLimiter creates a limiter admitting up to limit values.
func NewCardinalityLimiter(limit int) *CardinalityLimiter {
	return &CardinalityLimiter{
		limit: limit,
		seen:  make(map[string]struct{}),
	}
}

// Allow reports whether labelSet may be used as a label value, admitting
// it if there is still room.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if _, ok := cl.seen[labelSet]; ok {
		return true
	}
	if len(cl.seen) >= cl.limit {
		return false
	}
	cl.seen[labelSet] = struct{}{}
	return true
}

// Count returns how many distinct values have been admitted.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	return len(cl.seen)
}
