package handlers

import (
	"log/slog"
	"net/http"

	"github.com/sextant-gg/sextant/pkg/proxy"
)

// HealthHandler serves the fleet health endpoint.
//
// The endpoint is reserved: it answers from the proxy itself and never
// routes to a pod, so an unhealthy fleet cannot take the health check down
// with it.
type HealthHandler struct {
	checker HealthChecker
	logger  *slog.Logger
}

// NewHealthHandler creates a new fleet health handler.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  slog.Default().With("component", "proxy.health"),
	}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := h.checker.Check(r.Context())

	statusCode := http.StatusOK
	if !snapshot.OK() {
		statusCode = http.StatusServiceUnavailable
	}

	if err := proxy.WriteJSONResponse(w, statusCode, snapshot); err != nil {
		h.logger.Error("failed to write health response", "error", err)
	}
}
