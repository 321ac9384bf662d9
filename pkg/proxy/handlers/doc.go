// Package handlers implements the two endpoint families the proxy
// exposes: the catch-all dispatcher that routes requests to pods, and the
// reserved fleet health endpoint.
//
// DispatchHandler owns every non-reserved path. It detects WebSocket
// upgrades, extracts the pod id from the first non-empty path segment,
// resolves the id through pins, cache, and discovery, and relays to the
// resolved backend with path, query, and body preserved. An HTTP request
// that cannot be routed gets the standard envelope:
//
//	{
//	  "error": {
//	    "message": "No backend currently claims pod \"alpha\".",
//	    "type": "gateway_timeout",
//	    "code": "pod_not_found"
//	  }
//	}
//
// A WebSocket request that fails before the backend session exists gets no
// HTTP response at all: the raw connection is closed, which clients
// observe as an immediate connection failure.
//
// HealthHandler answers GET /health from the proxy itself. The exact path
// never routes, no matter what the fleet contains; deeper paths such as
// /health/x still route to a pod named "health". The endpoint suits
// Kubernetes probes:
//
//	livenessProbe:
//	  httpGet:
//	    path: /health
//	    port: 80
//	  periodSeconds: 30
//
// A 503 carries the aggregate reason ("dns_error", "no_ips",
// "some_pods_unhealthy") plus the identities that did respond, so a probe
// failure is diagnosable from the probe output alone.
package handlers
