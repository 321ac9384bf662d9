package health

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/netip"
	"time"

	"github.com/sextant-gg/sextant/pkg/audit"
	"github.com/sextant-gg/sextant/pkg/discovery"
)

// Aggregate statuses.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
)

// ReasonSomePodsUnhealthy means at least one resolved candidate failed to
// report a valid identity. Enumeration failures reuse the discovery reasons
// (dns_error, no_ips).
const ReasonSomePodsUnhealthy = "some_pods_unhealthy"

// PodHealth is one successfully identified pod.
type PodHealth struct {
	IP    string `json:"ip"`
	PodID string `json:"podId"`
}

// Snapshot is the outcome of one fleet-wide health sweep.
//
// The fleet is healthy only when every resolved candidate reports a valid
// identity and at least one candidate exists. Anything less downgrades the
// snapshot to unhealthy with a reason, keeping the pods that did answer so
// operators can see which part of the fleet is missing.
type Snapshot struct {
	Status string      `json:"status"`
	Reason string      `json:"reason,omitempty"`
	Pods   []PodHealth `json:"pods"`

	CheckedAt time.Time     `json:"-"`
	Duration  time.Duration `json:"-"`
}

// OK reports whether the snapshot is healthy.
func (s Snapshot) OK() bool {
	return s.Status == StatusOK
}

// CheckerConfig wires a Checker. Resolver, Prober, and BackendPort are
// required; Audit may be nil.
type CheckerConfig struct {
	Resolver discovery.Enumerator
	Prober   discovery.CandidateProber

	// BackendPort is the port every pod serves on.
	BackendPort uint16

	// Audit receives one record per sweep. Optional.
	Audit discovery.AuditSink
}

// Checker probes the whole fleet and aggregates the answers.
//
// This is a cluster-wide misconfiguration detector, not a per-pod check: it
// exists to catch replicas that resolve but cannot state their identity,
// which per-identity routing would only discover one failed lookup at a time.
type Checker struct {
	resolver discovery.Enumerator
	prober   discovery.CandidateProber
	port     uint16
	audit    discovery.AuditSink
	logger   *slog.Logger
}

// NewChecker creates a Checker from its wired parts.
func NewChecker(cfg CheckerConfig) *Checker {
	return &Checker{
		resolver: cfg.Resolver,
		prober:   cfg.Prober,
		port:     cfg.BackendPort,
		audit:    cfg.Audit,
		logger:   slog.Default().With("component", "health"),
	}
}

// Check runs one full sweep: enumerate every candidate, probe them all, and
// require every probe to yield an identity.
func (c *Checker) Check(ctx context.Context) Snapshot {
	start := time.Now()
	snapshot := Snapshot{
		CheckedAt: start,
		Pods:      []PodHealth{},
	}

	addrs, err := c.resolver.Resolve(ctx)
	if err != nil {
		snapshot.Status = StatusUnhealthy
		snapshot.Reason = enumerationReason(err)
		snapshot.Duration = time.Since(start)

		c.logger.Warn("health sweep found no candidates",
			"reason", snapshot.Reason,
			"error", err,
		)
		c.record(snapshot, nil)
		return snapshot
	}

	candidates := make([]netip.AddrPort, len(addrs))
	for i, addr := range addrs {
		candidates[i] = netip.AddrPortFrom(addr, c.port)
	}

	results := c.prober.ProbeAll(ctx, candidates)

	failed := 0
	for _, result := range results {
		if result.OK() {
			snapshot.Pods = append(snapshot.Pods, PodHealth{
				IP:    result.Addr.Addr().String(),
				PodID: result.PodID,
			})
		} else {
			failed++
		}
	}

	snapshot.Duration = time.Since(start)

	switch {
	case len(results) == 0:
		snapshot.Status = StatusUnhealthy
		snapshot.Reason = discovery.ReasonNoIPs
	case failed > 0:
		snapshot.Status = StatusUnhealthy
		snapshot.Reason = ReasonSomePodsUnhealthy
	default:
		snapshot.Status = StatusOK
	}

	if snapshot.OK() {
		c.logger.Debug("health sweep passed",
			"pod_count", len(snapshot.Pods),
			"duration_ms", snapshot.Duration.Milliseconds(),
		)
	} else {
		c.logger.Warn("health sweep failed",
			"reason", snapshot.Reason,
			"healthy_count", len(snapshot.Pods),
			"failed_count", failed,
		)
	}

	c.record(snapshot, results)
	return snapshot
}

// enumerationReason maps an enumeration error onto a snapshot reason.
func enumerationReason(err error) string {
	var ncErr *discovery.NoCandidatesError
	if errors.As(err, &ncErr) {
		return ncErr.Reason
	}
	return discovery.ReasonDNSError
}

// record emits the sweep's audit record.
func (c *Checker) record(snapshot Snapshot, results []discovery.ProbeResult) {
	if c.audit == nil {
		return
	}

	record := audit.NewRecord(audit.KindHealth)
	record.Outcome = snapshot.Status
	record.Duration = snapshot.Duration
	for _, result := range results {
		record.Candidates = append(record.Candidates, result.Addr.String())
	}

	detail := struct {
		Reason string      `json:"reason,omitempty"`
		Pods   []PodHealth `json:"pods"`
	}{
		Reason: snapshot.Reason,
		Pods:   snapshot.Pods,
	}
	if b, err := json.Marshal(detail); err == nil {
		record.Detail = string(b)
	}

	_ = c.audit.Record(record)
}
