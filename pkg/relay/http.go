package relay

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/netip"
	"net/url"
	"time"
)

// HTTPRelayConfig tunes the shared backend transport.
type HTTPRelayConfig struct {
	// MaxIdleConns is the pool-wide idle connection cap.
	MaxIdleConns int

	// MaxIdleConnsPerHost caps idle connections per backend pod.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle backend connection is kept.
	IdleConnTimeout time.Duration

	// FlushInterval is passed through to the reverse proxy. Negative
	// flushes after every backend write.
	FlushInterval time.Duration
}

// DefaultHTTPRelayConfig returns the default relay tuning.
func DefaultHTTPRelayConfig() HTTPRelayConfig {
	return HTTPRelayConfig{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		// Backends stream long-poll and event bodies; buffering them
		// would hold partial responses back from the client.
		FlushInterval: -1,
	}
}

// HTTPRelay forwards plain HTTP requests to a chosen backend address.
//
// The relay is transparent: the request path (including the pod ID segment),
// query, body, and Host header are forwarded unmodified, and X-Forwarded-*
// headers are added for the backend. One pooled transport is shared across
// all backends.
type HTTPRelay struct {
	transport *http.Transport
	flush     time.Duration
	logger    *slog.Logger
}

// NewHTTPRelay creates an HTTP relay with a pooled transport.
func NewHTTPRelay(cfg HTTPRelayConfig) *HTTPRelay {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		// Bodies are forwarded verbatim; transparent gzip would hand the
		// client different bytes than the pod produced.
		DisableCompression: true,
	}

	return &HTTPRelay{
		transport: transport,
		flush:     cfg.FlushInterval,
		logger:    slog.Default().With("component", "relay.http"),
	}
}

// Relay forwards the request to the target and writes the backend's response
// to w. A non-nil return means nothing useful was written and the caller
// still owns the response.
func (h *HTTPRelay) Relay(w http.ResponseWriter, r *http.Request, target netip.AddrPort) error {
	var relayErr error

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(&url.URL{Scheme: "http", Host: target.String()})
			// SetURL rewrites the outbound Host to the target; pods expect
			// the name the client dialed.
			pr.Out.Host = pr.In.Host
			pr.SetXForwarded()
		},
		Transport:     h.transport,
		FlushInterval: h.flush,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			// Leave the response untouched so the caller can shape the
			// error body.
			relayErr = NewRelayError(target.String(), StageRoundTrip, err)
		},
		ErrorLog: slog.NewLogLogger(h.logger.Handler(), slog.LevelError),
	}

	proxy.ServeHTTP(w, r)

	if relayErr != nil {
		h.logger.Warn("backend request failed",
			"target", target.String(),
			"path", r.URL.Path,
			"error", relayErr,
		)
	}
	return relayErr
}

// CloseRawConnection hijacks the underlying client connection and closes it
// without writing anything. Used on upgrade paths where a failure can no
// longer be expressed as an HTTP response.
func CloseRawConnection(w http.ResponseWriter) bool {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return false
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
