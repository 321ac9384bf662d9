// Package server assembles Sextant's HTTP surface: one listener serving
// the reserved endpoints and a catch-all dispatcher that relays everything
// else to backend pods.
//
// Three route groups exist. GET /health answers with the aggregated fleet
// state and is never routed to a pod. GET /metrics serves the Prometheus
// exposition when metrics are enabled. Any other path is treated as
// /<podId>/... and relayed, over HTTP or WebSocket, to whichever backend
// claims that pod id. Reservation is exact: /health/anything is a pod
// path, not a health route.
//
// Every request passes through Recovery, RequestID, Tracing, Logging, and
// Metrics before reaching its handler, in that order from the outside in.
// Recovery wraps the rest so a panic anywhere in the chain still becomes
// a JSON 500.
//
// The caller hands NewServer the routing components and runs Start, which
// blocks until something ends it:
//
//	srv := server.NewServer(&cfg.Proxy, server.Options{
//	    Resolver:       discoverer,
//	    Checker:        checker,
//	    HTTPRelay:      httpRelay,
//	    WebSocketRelay: wsRelay,
//	})
//	if err := srv.Start(ctx); err != nil {
//	    return err
//	}
//
// Start returns after SIGINT or SIGTERM, context cancellation, a Stop
// call, or a listener failure. On the way out the server stops accepting
// connections and drains in-flight requests for up to the configured
// shutdown timeout, then cuts off whatever remains.
//
// The listener enforces a header read timeout and an idle timeout but no
// whole-request deadline, because relayed WebSocket sessions stay open
// far longer than any sane per-request limit.
//
// Server methods are safe to call from multiple goroutines.
package server
