package handlers

import (
	"context"
	"net/http"
	"net/netip"

	"github.com/sextant-gg/sextant/pkg/health"
)

// PodResolver maps a pod identity to the backend address that currently
// claims it.
type PodResolver interface {
	Resolve(ctx context.Context, podID string) (netip.AddrPort, error)
}

// HealthChecker reports the aggregate state of the backend fleet.
type HealthChecker interface {
	Check(ctx context.Context) health.Snapshot
}

// HTTPRelayer forwards a plain HTTP request to a resolved backend.
type HTTPRelayer interface {
	Relay(w http.ResponseWriter, r *http.Request, target netip.AddrPort) error
}

// WebSocketRelayer bridges a WebSocket session to a resolved backend.
type WebSocketRelayer interface {
	Relay(w http.ResponseWriter, r *http.Request, target netip.AddrPort) error
}
