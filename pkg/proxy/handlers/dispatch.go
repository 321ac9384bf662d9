package handlers

import (
	"log/slog"
	"net/http"

	"github.com/sextant-gg/sextant/pkg/proxy"
	"github.com/sextant-gg/sextant/pkg/proxy/middleware"
	"github.com/sextant-gg/sextant/pkg/relay"
	"github.com/sextant-gg/sextant/pkg/telemetry/tracing"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"
)

// DispatchHandler routes every non-reserved request: it extracts the pod id
// from the path, resolves it to a backend address, and hands the request to
// the HTTP or WebSocket relay.
type DispatchHandler struct {
	resolver PodResolver
	http     HTTPRelayer
	ws       WebSocketRelayer
	logger   *slog.Logger
}

// NewDispatchHandler creates the routing handler.
func NewDispatchHandler(resolver PodResolver, httpRelay HTTPRelayer, wsRelay WebSocketRelayer) *DispatchHandler {
	return &DispatchHandler{
		resolver: resolver,
		http:     httpRelay,
		ws:       wsRelay,
		logger:   slog.Default().With("component", "proxy.dispatch"),
	}
}

// ServeHTTP implements http.Handler.
func (h *DispatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Decide the protocol up front: routing failures are reported
	// differently for WebSocket clients.
	isWebSocket := websocket.IsWebSocketUpgrade(r)

	podID, err := proxy.ExtractPodID(r.URL.Path)
	if err != nil {
		h.rejectBeforeRelay(w, r, isWebSocket, err)
		return
	}

	span := tracing.SpanFromContext(r.Context())
	tracing.SetPodAttributes(span, podID, "")

	target, err := h.resolver.Resolve(r.Context(), podID)
	if err != nil {
		h.logger.Warn("pod resolution failed",
			"pod_id", podID,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		tracing.SetError(span, err)
		h.rejectBeforeRelay(w, r, isWebSocket, err)
		return
	}

	tracing.SetPodAttributes(span, podID, target.String())

	if isWebSocket {
		// The WebSocket relay owns the socket from here: on failure it has
		// already torn the connection down, and nothing more can be sent.
		if err := h.ws.Relay(w, r, target); err != nil {
			// The upgrade already reported 101, so the span status is the
			// only place the failure shows up.
			tracing.SetStatus(span, err)
			h.logger.Warn("websocket relay failed",
				"pod_id", podID,
				"target", target.String(),
				"error", err,
				"request_id", middleware.GetRequestID(r.Context()),
			)
		}
		return
	}

	if err := h.http.Relay(w, r, target); err != nil {
		// The relay leaves the response unwritten on failure, so the error
		// body can still be shaped here.
		errResp := proxy.HandleError(err)
		span.SetAttributes(attribute.String(tracing.AttrErrorType, errResp.Error.Code))
		if werr := proxy.WriteErrorResponse(w, errResp); werr != nil {
			h.logger.Error("error response write failed", "error", werr)
		}
	}
}

// rejectBeforeRelay reports a routing failure that happened before any
// backend was contacted. HTTP clients get the mapped JSON error; WebSocket
// clients get their connection destroyed, since no upgrade has happened yet.
func (h *DispatchHandler) rejectBeforeRelay(w http.ResponseWriter, r *http.Request, isWebSocket bool, err error) {
	errResp := proxy.HandleError(err)
	tracing.SpanFromContext(r.Context()).SetAttributes(
		attribute.String(tracing.AttrErrorType, errResp.Error.Code),
	)

	if isWebSocket {
		h.logger.Warn("destroying websocket connection before relay",
			"path", r.URL.Path,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		if relay.CloseRawConnection(w) {
			return
		}
		// Server does not support hijacking; fall through to the JSON error.
	}

	if werr := proxy.WriteErrorResponse(w, errResp); werr != nil {
		h.logger.Error("error response write failed", "error", werr)
	}
}
