package health

import (
	"context"
	"errors"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sextant-gg/sextant/pkg/audit"
	"github.com/sextant-gg/sextant/pkg/discovery"
)

// fakeEnumerator returns a fixed candidate set.
type fakeEnumerator struct {
	addrs []netip.Addr
	err   error
}

func (f *fakeEnumerator) Resolve(ctx context.Context) ([]netip.Addr, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.addrs, nil
}

// fakeProber answers from a canned identity table.
type fakeProber struct {
	identities map[string]string
	errs       map[string]error
}

func (f *fakeProber) ProbeAll(ctx context.Context, candidates []netip.AddrPort) []discovery.ProbeResult {
	results := make([]discovery.ProbeResult, len(candidates))
	for i, addr := range candidates {
		results[i] = discovery.ProbeResult{Addr: addr, Duration: time.Millisecond}
		if err, ok := f.errs[addr.String()]; ok {
			results[i].Err = err
			continue
		}
		results[i].PodID = f.identities[addr.String()]
	}
	return results
}

// fakeSink captures audit records in memory.
type fakeSink struct {
	mu      sync.Mutex
	records []*audit.Record
}

func (s *fakeSink) Record(record *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *fakeSink) last() *audit.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return nil
	}
	return s.records[len(s.records)-1]
}

func addrs(t *testing.T, values ...string) []netip.Addr {
	t.Helper()
	out := make([]netip.Addr, len(values))
	for i, v := range values {
		out[i] = netip.MustParseAddr(v)
	}
	return out
}

// TestChecker_AllPodsHealthy tests that a fully answering fleet is ok.
func TestChecker_AllPodsHealthy(t *testing.T) {
	enum := &fakeEnumerator{addrs: addrs(t, "10.0.0.1", "10.0.0.2")}
	prober := &fakeProber{
		identities: map[string]string{
			"10.0.0.1:7777": "alpha",
			"10.0.0.2:7777": "beta",
		},
	}
	sink := &fakeSink{}

	c := NewChecker(CheckerConfig{
		Resolver:    enum,
		Prober:      prober,
		BackendPort: 7777,
		Audit:       sink,
	})

	snapshot := c.Check(context.Background())

	if !snapshot.OK() {
		t.Fatalf("Check() status = %q, want %q", snapshot.Status, StatusOK)
	}
	if snapshot.Reason != "" {
		t.Errorf("healthy snapshot carries reason %q", snapshot.Reason)
	}
	if len(snapshot.Pods) != 2 {
		t.Fatalf("Pods count = %d, want 2", len(snapshot.Pods))
	}
	if snapshot.Pods[0].IP != "10.0.0.1" || snapshot.Pods[0].PodID != "alpha" {
		t.Errorf("Pods[0] = %+v, want 10.0.0.1/alpha", snapshot.Pods[0])
	}
	if snapshot.Pods[1].IP != "10.0.0.2" || snapshot.Pods[1].PodID != "beta" {
		t.Errorf("Pods[1] = %+v, want 10.0.0.2/beta", snapshot.Pods[1])
	}

	record := sink.last()
	if record == nil {
		t.Fatal("no audit record emitted")
	}
	if record.Kind != audit.KindHealth {
		t.Errorf("record kind = %q, want %q", record.Kind, audit.KindHealth)
	}
	if record.Outcome != StatusOK {
		t.Errorf("record outcome = %q, want %q", record.Outcome, StatusOK)
	}
	if len(record.Candidates) != 2 {
		t.Errorf("record candidates = %d, want 2", len(record.Candidates))
	}
}

// TestChecker_SinglePodFailureDowngrades tests that one unreachable pod among
// many makes the whole fleet unhealthy while keeping the survivors listed.
func TestChecker_SinglePodFailureDowngrades(t *testing.T) {
	enum := &fakeEnumerator{addrs: addrs(t, "10.0.0.1", "10.0.0.2", "10.0.0.3")}
	prober := &fakeProber{
		identities: map[string]string{
			"10.0.0.1:7777": "alpha",
			"10.0.0.3:7777": "gamma",
		},
		errs: map[string]error{
			"10.0.0.2:7777": errors.New("connection refused"),
		},
	}

	c := NewChecker(CheckerConfig{
		Resolver:    enum,
		Prober:      prober,
		BackendPort: 7777,
	})

	snapshot := c.Check(context.Background())

	if snapshot.OK() {
		t.Fatal("Check() reported ok with a failing pod")
	}
	if snapshot.Reason != ReasonSomePodsUnhealthy {
		t.Errorf("reason = %q, want %q", snapshot.Reason, ReasonSomePodsUnhealthy)
	}
	if len(snapshot.Pods) != 2 {
		t.Fatalf("Pods count = %d, want the 2 survivors", len(snapshot.Pods))
	}
	ids := []string{snapshot.Pods[0].PodID, snapshot.Pods[1].PodID}
	if ids[0] != "alpha" || ids[1] != "gamma" {
		t.Errorf("surviving pods = %v, want [alpha gamma]", ids)
	}
}

// TestChecker_EnumerationFailures tests the reason mapping for DNS and
// empty-answer failures.
func TestChecker_EnumerationFailures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason string
	}{
		{
			name:       "dns failure",
			err:        discovery.NewNoCandidatesError("pods.internal", discovery.ReasonDNSError, errors.New("no such host")),
			wantReason: discovery.ReasonDNSError,
		},
		{
			name:       "empty answer",
			err:        discovery.NewNoCandidatesError("pods.internal", discovery.ReasonNoIPs, nil),
			wantReason: discovery.ReasonNoIPs,
		},
		{
			name:       "unclassified error",
			err:        errors.New("resolver exploded"),
			wantReason: discovery.ReasonDNSError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enum := &fakeEnumerator{err: tt.err}
			sink := &fakeSink{}

			c := NewChecker(CheckerConfig{
				Resolver:    enum,
				Prober:      &fakeProber{},
				BackendPort: 7777,
				Audit:       sink,
			})

			snapshot := c.Check(context.Background())

			if snapshot.OK() {
				t.Fatal("Check() reported ok without candidates")
			}
			if snapshot.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", snapshot.Reason, tt.wantReason)
			}
			if len(snapshot.Pods) != 0 {
				t.Errorf("Pods count = %d, want 0", len(snapshot.Pods))
			}

			record := sink.last()
			if record == nil {
				t.Fatal("no audit record emitted")
			}
			if record.Outcome != StatusUnhealthy {
				t.Errorf("record outcome = %q, want %q", record.Outcome, StatusUnhealthy)
			}
			if !strings.Contains(record.Detail, tt.wantReason) {
				t.Errorf("record detail %q does not carry reason %q", record.Detail, tt.wantReason)
			}
		})
	}
}

// TestChecker_EmptyCandidateList covers enumeration succeeding with zero
// addresses.
func TestChecker_EmptyCandidateList(t *testing.T) {
	c := NewChecker(CheckerConfig{
		Resolver:    &fakeEnumerator{},
		Prober:      &fakeProber{},
		BackendPort: 7777,
	})

	snapshot := c.Check(context.Background())

	if snapshot.OK() {
		t.Fatal("Check() reported ok with zero candidates")
	}
	if snapshot.Reason != discovery.ReasonNoIPs {
		t.Errorf("reason = %q, want %q", snapshot.Reason, discovery.ReasonNoIPs)
	}
}

// TestChecker_SinglePodFleet tests that one healthy pod is enough for ok.
func TestChecker_SinglePodFleet(t *testing.T) {
	enum := &fakeEnumerator{addrs: addrs(t, "10.0.0.9")}
	prober := &fakeProber{
		identities: map[string]string{"10.0.0.9:7777": "solo"},
	}

	c := NewChecker(CheckerConfig{
		Resolver:    enum,
		Prober:      prober,
		BackendPort: 7777,
	})

	snapshot := c.Check(context.Background())

	if !snapshot.OK() {
		t.Fatalf("Check() status = %q, want %q", snapshot.Status, StatusOK)
	}
	if len(snapshot.Pods) != 1 || snapshot.Pods[0].PodID != "solo" {
		t.Errorf("Pods = %+v, want the single solo pod", snapshot.Pods)
	}
}

// TestChecker_NilAuditSink tests that sweeps work without an audit sink.
func TestChecker_NilAuditSink(t *testing.T) {
	enum := &fakeEnumerator{addrs: addrs(t, "10.0.0.1")}
	prober := &fakeProber{
		identities: map[string]string{"10.0.0.1:7777": "alpha"},
	}

	c := NewChecker(CheckerConfig{
		Resolver:    enum,
		Prober:      prober,
		BackendPort: 7777,
	})

	if snapshot := c.Check(context.Background()); !snapshot.OK() {
		t.Fatalf("Check() status = %q, want %q", snapshot.Status, StatusOK)
	}
}
