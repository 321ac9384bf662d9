// Package relay forwards traffic to a backend address chosen by discovery.
//
// Two relays cover the two kinds of inbound traffic:
//
//   - HTTPRelay wraps httputil.ReverseProxy around a shared pooled
//     transport. Requests are forwarded verbatim (path, query, body, Host);
//     backend failures are reported back to the caller instead of being
//     written, so the dispatcher controls the error body.
//
//   - WebSocketRelay re-dials the upgrade against the backend with the Host
//     header rewritten to the resolved address, upgrades the client side,
//     and pumps frames in both directions until either leg closes. Close
//     frames cross the bridge so each peer sees the other's close code.
//
// Both relays treat the backend as already chosen: no discovery, retries, or
// failover happen here.
package relay
