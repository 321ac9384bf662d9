package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sextant-gg/sextant/pkg/config"
	"github.com/sextant-gg/sextant/pkg/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	t.Run("records completed requests", func(t *testing.T) {
		registry := prometheus.NewRegistry()
		collector := metrics.NewCollector(&config.MetricsConfig{Enabled: true, Path: "/metrics"}, registry)

		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})

		wrapped := Metrics(collector)(handler)

		req := httptest.NewRequest(http.MethodGet, "/alpha/state", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		count, err := testutil.GatherAndCount(registry, "sextant_http_requests_total")
		if err != nil {
			t.Fatalf("Failed to gather metrics: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 request series, got %d", count)
		}
	})

	t.Run("nil collector passes handler through untouched", func(t *testing.T) {
		handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

		wrapped := Metrics(nil)(handler)

		req := httptest.NewRequest(http.MethodGet, "/alpha/state", nil)
		w := httptest.NewRecorder()
		wrapped.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status code = %v, want %v", w.Code, http.StatusOK)
		}
	})
}
