package discovery

import (
	"context"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/sextant-gg/sextant/internal/podtest"
)

// TestProber_ProbeAll tests a fan-out against a healthy fleet.
func TestProber_ProbeAll(t *testing.T) {
	fleet := podtest.StartFleet("alpha", "beta", "gamma")
	defer fleet.Close()

	prober := NewProber(2*time.Second, nil)
	results := prober.ProbeAll(context.Background(), fleet.Addrs())

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	wantIDs := []string{"alpha", "beta", "gamma"}
	for i, result := range results {
		if !result.OK() {
			t.Errorf("Probe %d failed: %v", i, result.Err)
			continue
		}
		if result.PodID != wantIDs[i] {
			t.Errorf("Probe %d: expected identity %q, got %q", i, wantIDs[i], result.PodID)
		}
		if result.Addr != fleet.Addrs()[i] {
			t.Errorf("Probe %d: result out of candidate order", i)
		}
	}
}

// TestProber_FailuresAreIsolated tests that one bad candidate does not
// taint the rest of the batch.
func TestProber_FailuresAreIsolated(t *testing.T) {
	fleet := podtest.StartFleet("alpha", "beta")
	defer fleet.Close()

	fleet.Pods[0].SetIdentityStatus(500)

	prober := NewProber(2*time.Second, nil)
	results := prober.ProbeAll(context.Background(), fleet.Addrs())

	if results[0].OK() {
		t.Error("Expected probe of failing pod to error")
	}
	if !results[1].OK() {
		t.Errorf("Expected healthy pod to answer, got %v", results[1].Err)
	}
	if results[1].PodID != "beta" {
		t.Errorf("Expected identity 'beta', got %q", results[1].PodID)
	}
}

// TestProber_UnreachableCandidate tests probing an address nobody listens on.
func TestProber_UnreachableCandidate(t *testing.T) {
	pod := podtest.StartPod("alpha")
	deadAddr := pod.Addr()
	pod.Close()

	live := podtest.StartPod("beta")
	defer live.Close()

	prober := NewProber(2*time.Second, nil)
	results := prober.ProbeAll(context.Background(), []netip.AddrPort{deadAddr, live.Addr()})

	if results[0].OK() {
		t.Error("Expected connection failure for closed pod")
	}
	if !results[1].OK() {
		t.Errorf("Expected live pod to answer, got %v", results[1].Err)
	}
}

// TestProber_SlowCandidateTimesOut tests the per-probe timeout and the
// wait-for-all barrier.
func TestProber_SlowCandidateTimesOut(t *testing.T) {
	fleet := podtest.StartFleet("slow", "fast")
	defer fleet.Close()

	fleet.Pods[0].SetIdentityDelay(500 * time.Millisecond)

	prober := NewProber(100*time.Millisecond, nil)

	start := time.Now()
	results := prober.ProbeAll(context.Background(), fleet.Addrs())
	elapsed := time.Since(start)

	if results[0].OK() {
		t.Error("Expected slow probe to time out")
	}
	if !results[1].OK() {
		t.Errorf("Expected fast pod to answer, got %v", results[1].Err)
	}

	// The barrier waits for the slow probe's timeout, not its full delay.
	if elapsed >= 450*time.Millisecond {
		t.Errorf("ProbeAll took %v, timeout did not cut the slow probe short", elapsed)
	}
}

// TestProber_IdentityPayloads tests identity decoding across payload shapes.
func TestProber_IdentityPayloads(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantID  string
		wantErr string
	}{
		{
			name:   "string identity",
			raw:    `{"podId": "alpha"}`,
			wantID: "alpha",
		},
		{
			name:   "numeric identity",
			raw:    `{"podId": 42}`,
			wantID: "42",
		},
		{
			name:   "boolean identity",
			raw:    `{"podId": true}`,
			wantID: "true",
		},
		{
			name:    "empty identity",
			raw:     `{"podId": ""}`,
			wantErr: "empty podId",
		},
		{
			name:    "missing identity",
			raw:     `{"name": "alpha"}`,
			wantErr: "missing podId",
		},
		{
			name:    "malformed json",
			raw:     `{"podId": `,
			wantErr: "invalid identity response",
		},
	}

	pod := podtest.StartPod("ignored")
	defer pod.Close()

	prober := NewProber(2*time.Second, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pod.SetRawIdentity(tt.raw)

			results := prober.ProbeAll(context.Background(), []netip.AddrPort{pod.Addr()})
			result := results[0]

			if tt.wantErr != "" {
				if result.OK() {
					t.Fatalf("Expected error containing %q, got identity %q", tt.wantErr, result.PodID)
				}
				if !strings.Contains(result.Err.Error(), tt.wantErr) {
					t.Errorf("Expected error containing %q, got %v", tt.wantErr, result.Err)
				}
				return
			}

			if !result.OK() {
				t.Fatalf("Probe failed: %v", result.Err)
			}
			if result.PodID != tt.wantID {
				t.Errorf("Expected identity %q, got %q", tt.wantID, result.PodID)
			}
		})
	}
}

// TestProber_EmptyCandidates tests the degenerate empty batch.
func TestProber_EmptyCandidates(t *testing.T) {
	prober := NewProber(time.Second, nil)
	results := prober.ProbeAll(context.Background(), nil)
	if len(results) != 0 {
		t.Errorf("Expected no results, got %d", len(results))
	}
}
