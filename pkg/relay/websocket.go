package relay

import (
	"log/slog"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sextant-gg/sextant/pkg/telemetry/metrics"
)

// WebSocketRelayConfig tunes the WebSocket relay.
type WebSocketRelayConfig struct {
	// HandshakeTimeout bounds the backend dial and handshake.
	HandshakeTimeout time.Duration

	// ReadBufferSize and WriteBufferSize size the per-connection buffers
	// on both legs.
	ReadBufferSize  int
	WriteBufferSize int

	// CloseWriteTimeout bounds writing the propagated close frame during
	// teardown.
	CloseWriteTimeout time.Duration
}

// DefaultWebSocketRelayConfig returns the default relay tuning.
func DefaultWebSocketRelayConfig() WebSocketRelayConfig {
	return WebSocketRelayConfig{
		HandshakeTimeout:  10 * time.Second,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		CloseWriteTimeout: 5 * time.Second,
	}
}

// WebSocketRelay bridges client WebSocket sessions to a chosen backend pod.
//
// The inbound upgrade is re-dialed against the backend with the Host header
// set to the resolved address, since pods validate and route by Host. Once
// both legs are established, frames are pumped in both directions until
// either side closes; close frames are propagated so the surviving peer sees
// the original close code.
type WebSocketRelay struct {
	upgrader  websocket.Upgrader
	dialer    websocket.Dialer
	closeWait time.Duration
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// NewWebSocketRelay creates a WebSocket relay. The collector may be nil.
func NewWebSocketRelay(cfg WebSocketRelayConfig, collector *metrics.Collector) *WebSocketRelay {
	return &WebSocketRelay{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			// Origin policy belongs to the pods; the relay forwards the
			// Origin header and lets the backend decide.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		dialer: websocket.Dialer{
			HandshakeTimeout: cfg.HandshakeTimeout,
			ReadBufferSize:   cfg.ReadBufferSize,
			WriteBufferSize:  cfg.WriteBufferSize,
		},
		closeWait: cfg.CloseWriteTimeout,
		metrics:   collector,
		logger:    slog.Default().With("component", "relay.websocket"),
	}
}

// Relay bridges the inbound upgrade request to the target pod.
//
// A non-nil error means the session never got established: the backend
// refused the handshake (the client socket has already been destroyed) or
// the client-side upgrade failed. Once both legs are up, Relay blocks for
// the life of the session and returns nil however it ends.
func (r *WebSocketRelay) Relay(w http.ResponseWriter, req *http.Request, target netip.AddrPort) error {
	backendURL := url.URL{
		Scheme:   "ws",
		Host:     target.String(),
		Path:     req.URL.Path,
		RawQuery: req.URL.RawQuery,
	}

	dialer := r.dialer
	dialer.Subprotocols = websocket.Subprotocols(req)

	backend, resp, err := dialer.DialContext(req.Context(), backendURL.String(), forwardableHeaders(req.Header))
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		r.logger.Warn("backend websocket handshake failed",
			"target", target.String(),
			"path", req.URL.Path,
			"status", status,
			"error", err,
		)
		// The upgrade cannot be answered with an error page at this
		// stage, only torn down.
		CloseRawConnection(w)
		return NewRelayError(target.String(), StageDial, err)
	}

	var responseHeader http.Header
	if proto := backend.Subprotocol(); proto != "" {
		responseHeader = http.Header{"Sec-WebSocket-Protocol": []string{proto}}
	}

	client, err := r.upgrader.Upgrade(w, req, responseHeader)
	if err != nil {
		_ = backend.Close()
		r.logger.Warn("client websocket upgrade failed",
			"target", target.String(),
			"error", err,
		)
		return NewRelayError(target.String(), StageUpgrade, err)
	}

	if r.metrics != nil {
		r.metrics.WebSocketOpened()
		defer r.metrics.WebSocketClosed()
	}
	r.logger.Info("websocket session established",
		"target", target.String(),
		"path", req.URL.Path,
	)

	errc := make(chan error, 2)
	go func() { errc <- r.pump(backend, client) }()
	go func() { errc <- r.pump(client, backend) }()

	first := <-errc
	_ = client.Close()
	_ = backend.Close()
	<-errc

	if isExpectedClose(first) {
		r.logger.Debug("websocket session closed",
			"target", target.String(),
		)
	} else {
		r.logger.Warn("websocket session broke",
			"target", target.String(),
			"error", first,
		)
	}
	return nil
}

// pump copies frames from src to dst until src stops producing them, then
// propagates the close to dst.
func (r *WebSocketRelay) pump(dst, src *websocket.Conn) error {
	for {
		msgType, msg, err := src.ReadMessage()
		if err != nil {
			deadline := time.Now().Add(r.closeWait)
			_ = dst.WriteControl(websocket.CloseMessage, closePayload(err), deadline)
			return err
		}
		if err := dst.WriteMessage(msgType, msg); err != nil {
			return err
		}
	}
}

// closePayload converts a read error into the close frame to forward.
// Codes 1005 and 1006 are reserved and must not appear on the wire, so
// those (and non-close teardown errors) forward as an empty close frame.
func closePayload(err error) []byte {
	if ce, ok := err.(*websocket.CloseError); ok {
		if ce.Code != websocket.CloseNoStatusReceived && ce.Code != websocket.CloseAbnormalClosure {
			return websocket.FormatCloseMessage(ce.Code, ce.Text)
		}
	}
	return []byte{}
}

// isExpectedClose reports whether a session ended through an ordinary close
// handshake or disconnect.
func isExpectedClose(err error) bool {
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}

// forwardableHeaders copies the inbound headers for the backend handshake,
// dropping the hop-by-hop and handshake headers the dialer manages itself.
func forwardableHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for name, values := range h {
		if isHandshakeHeader(name) {
			continue
		}
		out[name] = values
	}
	return out
}

func isHandshakeHeader(name string) bool {
	switch strings.ToLower(name) {
	case "upgrade", "connection",
		"sec-websocket-key", "sec-websocket-version",
		"sec-websocket-extensions", "sec-websocket-protocol":
		return true
	}
	return false
}
