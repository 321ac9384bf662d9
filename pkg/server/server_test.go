package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sextant-gg/sextant/pkg/config"
	"github.com/sextant-gg/sextant/pkg/health"
	"github.com/sextant-gg/sextant/pkg/telemetry/metrics"
)

type stubResolver struct {
	target netip.AddrPort
	err    error

	mu    sync.Mutex
	calls []string
}

func (s *stubResolver) Resolve(ctx context.Context, podID string) (netip.AddrPort, error) {
	s.mu.Lock()
	s.calls = append(s.calls, podID)
	s.mu.Unlock()
	if s.err != nil {
		return netip.AddrPort{}, s.err
	}
	return s.target, nil
}

type stubChecker struct {
	snapshot health.Snapshot
}

func (s *stubChecker) Check(ctx context.Context) health.Snapshot {
	return s.snapshot
}

// recordingRelay notes every relayed request and answers 200.
type recordingRelay struct {
	mu    sync.Mutex
	paths []string
}

func (rr *recordingRelay) Relay(w http.ResponseWriter, r *http.Request, target netip.AddrPort) error {
	rr.mu.Lock()
	rr.paths = append(rr.paths, r.URL.Path)
	rr.mu.Unlock()
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("relayed"))
	return nil
}

func (rr *recordingRelay) relayed() []string {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return append([]string(nil), rr.paths...)
}

func newTestServer(metricsCfg *config.MetricsConfig, collector *metrics.Collector) (*Server, *stubResolver, *recordingRelay) {
	resolver := &stubResolver{target: netip.MustParseAddrPort("10.0.0.1:7777")}
	relay := &recordingRelay{}
	srv := NewServer(&config.ProxyConfig{
		ListenAddress:     "127.0.0.1:0",
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       30 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}, Options{
		Resolver:       resolver,
		Checker:        &stubChecker{snapshot: health.Snapshot{Status: health.StatusOK}},
		HTTPRelay:      relay,
		WebSocketRelay: relay,
		Collector:      collector,
		MetricsConfig:  metricsCfg,
	})
	return srv, resolver, relay
}

func TestServer_HealthEndpoint(t *testing.T) {
	srv, resolver, _ := newTestServer(nil, nil)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("GET /health status = %d, want %d", rec.Code, http.StatusOK)
	}

	var snapshot health.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("health body is not JSON: %v", err)
	}
	if snapshot.Status != health.StatusOK {
		t.Errorf("health status = %q, want %q", snapshot.Status, health.StatusOK)
	}

	if len(resolver.calls) != 0 {
		t.Errorf("reserved endpoint consulted the resolver: %v", resolver.calls)
	}
}

func TestServer_DispatchesPodPaths(t *testing.T) {
	srv, resolver, relay := newTestServer(nil, nil)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/alpha/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if body := rec.Body.String(); body != "relayed" {
		t.Errorf("body = %q, want %q", body, "relayed")
	}
	if len(resolver.calls) != 1 || resolver.calls[0] != "alpha" {
		t.Errorf("resolver calls = %v, want [alpha]", resolver.calls)
	}
	if got := relay.relayed(); len(got) != 1 || got[0] != "/alpha/api/status" {
		t.Errorf("relayed paths = %v", got)
	}
}

// Only the exact reserved path is intercepted. A pod that happens to be
// named "health" keeps its deeper paths.
func TestServer_ReservedPathsAreExact(t *testing.T) {
	srv, resolver, relay := newTestServer(nil, nil)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/deep/path", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if len(resolver.calls) != 1 || resolver.calls[0] != "health" {
		t.Errorf("resolver calls = %v, want [health]", resolver.calls)
	}
	if got := relay.relayed(); len(got) != 1 || got[0] != "/health/deep/path" {
		t.Errorf("relayed paths = %v", got)
	}
}

func TestServer_MetricsEndpoint(t *testing.T) {
	metricsCfg := &config.MetricsConfig{Enabled: true, Path: "/metrics"}

	t.Run("mounted when enabled", func(t *testing.T) {
		srv, _, relay := newTestServer(metricsCfg, metrics.NewCollector(metricsCfg, nil))
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("GET /metrics status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), "sextant") {
			t.Error("metrics exposition does not mention any sextant series")
		}
		if len(relay.relayed()) != 0 {
			t.Error("metrics request leaked through to the dispatcher")
		}
	})

	t.Run("routed to dispatcher when absent", func(t *testing.T) {
		srv, resolver, _ := newTestServer(nil, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		// Without a collector "/metrics" is an ordinary pod id.
		if len(resolver.calls) != 1 || resolver.calls[0] != "metrics" {
			t.Errorf("resolver calls = %v, want [metrics]", resolver.calls)
		}
	})
}

func TestServer_Lifecycle(t *testing.T) {
	srv, _, _ := newTestServer(nil, nil)

	if srv.IsRunning() {
		t.Fatal("IsRunning() = true before Start")
	}

	done := make(chan error, 1)
	go func() {
		done <- srv.Start(context.Background())
	}()

	deadline := time.After(5 * time.Second)
	for !srv.IsRunning() {
		select {
		case err := <-done:
			t.Fatalf("Start() returned early: %v", err)
		case <-deadline:
			t.Fatal("server never reported running")
		case <-time.After(5 * time.Millisecond):
		}
	}

	srv.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start() returned error after Stop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop")
	}

	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
	// Shutting down again is a no-op.
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown() error = %v", err)
	}
}
