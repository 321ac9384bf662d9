package discovery

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/netip"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sextant-gg/sextant/pkg/audit"
	"github.com/sextant-gg/sextant/pkg/telemetry/metrics"
)

// Outcomes of a discovery round.
const (
	// OutcomeCacheHit means the identity was served from the cache.
	OutcomeCacheHit = "cache_hit"

	// OutcomePinned means a static route pin answered before discovery ran.
	OutcomePinned = "pinned"

	// OutcomeMatched means a probe round found the identity.
	OutcomeMatched = "matched"

	// OutcomeNotFound means every candidate answered and none claimed the
	// identity.
	OutcomeNotFound = "not_found"

	// OutcomeNoCandidates means enumeration yielded nothing to probe.
	OutcomeNoCandidates = "no_candidates"
)

// Enumerator lists the candidate addresses behind the backend hostname.
// *Resolver satisfies it.
type Enumerator interface {
	Resolve(ctx context.Context) ([]netip.Addr, error)
}

// CandidateProber asks candidates for their identity. *Prober satisfies it.
type CandidateProber interface {
	ProbeAll(ctx context.Context, candidates []netip.AddrPort) []ProbeResult
}

// PinSource supplies static identity-to-address overrides. Pins are checked
// before the cache and before any discovery round.
type PinSource interface {
	Lookup(podID string) (netip.AddrPort, bool)
}

// AuditSink receives completed round records. *recorder.Recorder satisfies it.
type AuditSink interface {
	Record(record *audit.Record) error
}

// DiscovererConfig wires a Discoverer. Resolver, Prober, Cache, and
// BackendPort are required; the rest may be left nil.
type DiscovererConfig struct {
	Resolver Enumerator
	Prober   CandidateProber
	Cache    *Cache

	// BackendPort is the port every pod serves on.
	BackendPort uint16

	// Pins supplies static route overrides. Optional.
	Pins PinSource

	// Metrics receives round and probe observations. Optional.
	Metrics *metrics.Collector

	// Audit receives one record per round. Optional.
	Audit AuditSink
}

// Discoverer resolves pod identities to backend addresses.
//
// A lookup walks the stages in order: route pins, cache, then a full
// discovery round (DNS enumeration, identity probe fan-out, match). Failed
// lookups are terminal for the call; the next call for the same identity
// starts a fresh round.
type Discoverer struct {
	resolver Enumerator
	prober   CandidateProber
	cache    *Cache
	port     uint16
	pins     PinSource
	metrics  *metrics.Collector
	audit    AuditSink
	flight   singleflight.Group
	logger   *slog.Logger
}

// NewDiscoverer creates a Discoverer from its wired parts.
func NewDiscoverer(cfg DiscovererConfig) *Discoverer {
	return &Discoverer{
		resolver: cfg.Resolver,
		prober:   cfg.Prober,
		cache:    cfg.Cache,
		port:     cfg.BackendPort,
		pins:     cfg.Pins,
		metrics:  cfg.Metrics,
		audit:    cfg.Audit,
		logger:   slog.Default().With("component", "discovery"),
	}
}

// Resolve maps a pod identity to a backend address.
//
// Concurrent calls for the same identity coalesce into a single discovery
// round; every waiter receives that round's result. The round runs under the
// context of whichever caller started it, so followers share its
// cancellation as well as its answer.
func (d *Discoverer) Resolve(ctx context.Context, podID string) (netip.AddrPort, error) {
	start := time.Now()

	if d.pins != nil {
		if addr, ok := d.pins.Lookup(podID); ok {
			d.logger.Debug("pinned route", "pod_id", podID, "addr", addr.String())
			d.finishRound(podID, OutcomePinned, nil, addr, false, time.Since(start), nil)
			return addr, nil
		}
	}

	if addr, ok := d.cache.Get(podID); ok {
		d.logger.Debug("cache hit", "pod_id", podID, "addr", addr.String())
		d.finishRound(podID, OutcomeCacheHit, nil, addr, false, time.Since(start), nil)
		return addr, nil
	}

	v, err, shared := d.flight.Do(podID, func() (any, error) {
		return d.discover(ctx, podID, start)
	})
	if err != nil {
		return netip.AddrPort{}, err
	}
	if shared {
		d.logger.Debug("coalesced into in-flight round", "pod_id", podID)
	}
	return v.(netip.AddrPort), nil
}

// discover runs one full discovery round: enumerate, probe, match, cache.
func (d *Discoverer) discover(ctx context.Context, podID string, start time.Time) (netip.AddrPort, error) {
	// A coalesced waiter can land here just after the previous round cached
	// the answer.
	if addr, ok := d.cache.Get(podID); ok {
		d.finishRound(podID, OutcomeCacheHit, nil, addr, false, time.Since(start), nil)
		return addr, nil
	}

	addrs, err := d.resolver.Resolve(ctx)
	if err != nil {
		d.finishRound(podID, OutcomeNoCandidates, nil, netip.AddrPort{}, false, time.Since(start), err)
		return netip.AddrPort{}, err
	}

	candidates := make([]netip.AddrPort, len(addrs))
	for i, addr := range addrs {
		candidates[i] = netip.AddrPortFrom(addr, d.port)
	}

	results := d.prober.ProbeAll(ctx, candidates)

	var matches []ProbeResult
	for _, result := range results {
		if result.OK() && result.PodID == podID {
			matches = append(matches, result)
		}
	}

	if len(matches) == 0 {
		notFound := NewPodNotFoundError(podID, addrPortStrings(candidates))
		d.logger.Info("pod not found",
			"pod_id", podID,
			"candidate_count", len(candidates),
		)
		d.finishRound(podID, OutcomeNotFound, results, netip.AddrPort{}, false, time.Since(start), nil)
		return netip.AddrPort{}, notFound
	}

	// Candidates arrive sorted, so the first claimant is the same one every
	// round. More than one claimant means two pods share an identity, which
	// is a fleet misconfiguration worth surfacing loudly.
	winner := matches[0]
	duplicate := len(matches) > 1
	if duplicate {
		d.logger.Warn("duplicate pod identity in fleet",
			"pod_id", podID,
			"winner", winner.Addr.String(),
			"claimants", len(matches),
		)
		if d.metrics != nil {
			d.metrics.RecordDuplicateIdentity(podID)
		}
	}

	d.cache.Put(podID, winner.Addr)
	if d.metrics != nil {
		d.metrics.UpdateCacheEntries(d.cache.Len())
	}

	d.logger.Info("pod resolved",
		"pod_id", podID,
		"addr", winner.Addr.String(),
		"candidate_count", len(candidates),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	d.finishRound(podID, OutcomeMatched, results, winner.Addr, duplicate, time.Since(start), nil)
	return winner.Addr, nil
}

// finishRound emits the round's metrics and audit record.
func (d *Discoverer) finishRound(podID, outcome string, results []ProbeResult, matched netip.AddrPort, duplicate bool, duration time.Duration, cause error) {
	if d.metrics != nil {
		d.metrics.RecordDiscoveryRound(outcome, duration)
	}

	if d.audit == nil {
		return
	}

	record := audit.NewRecord(audit.KindDiscovery)
	record.PodID = podID
	record.Outcome = outcome
	record.Duplicate = duplicate
	record.Duration = duration
	if matched.IsValid() {
		record.MatchedAddr = matched.String()
	}
	for _, result := range results {
		record.Candidates = append(record.Candidates, result.Addr.String())
	}
	record.Detail = roundDetail(results, cause)

	// The recorder logs its own failures; a dropped audit record must not
	// fail the lookup.
	_ = d.audit.Record(record)
}

// probeDetail is one candidate's entry in a round's audit detail.
type probeDetail struct {
	Addr  string `json:"addr"`
	PodID string `json:"pod_id,omitempty"`
	Error string `json:"error,omitempty"`
}

// roundDetail renders per-candidate results as the audit detail payload.
func roundDetail(results []ProbeResult, cause error) string {
	if len(results) == 0 && cause == nil {
		return ""
	}

	payload := struct {
		Error   string        `json:"error,omitempty"`
		Results []probeDetail `json:"results,omitempty"`
	}{}

	if cause != nil {
		payload.Error = cause.Error()
	}
	for _, result := range results {
		detail := probeDetail{Addr: result.Addr.String()}
		if result.Err != nil {
			detail.Error = result.Err.Error()
		} else {
			detail.PodID = result.PodID
		}
		payload.Results = append(payload.Results, detail)
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return ""
	}
	return string(b)
}

// addrPortStrings renders candidates for error messages and audit records.
func addrPortStrings(candidates []netip.AddrPort) []string {
	out := make([]string, len(candidates))
	for i, addr := range candidates {
		out[i] = addr.String()
	}
	return out
}
