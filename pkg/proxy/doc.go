// Package proxy holds the request-facing pieces of the discovery proxy
// that handlers and server both need: pod id extraction from the request
// path, mapping of routing failures onto the JSON error envelope, and the
// response writers that emit it.
//
// The proxy is the single stable address in front of an elastic fleet of
// pods. Clients address a pod by putting its identity in the first path
// segment; the proxy resolves that identity to a concrete backend and
// relays the request without rewriting the path:
//
//	GET /alpha/state/latest?since=42
//	    └─┬──┘
//	   pod id
//
// The segment is an opaque token and is not stripped before relaying, so
// pods see the same path the client sent.
//
// Routing failures all share one envelope shape, written by
// WriteErrorResponse, with a status code naming the failing stage: 400
// no_pod_id when the path carries no identity, 503 no_candidates when
// discovery produced no addresses to probe, 504 pod_not_found when no
// probed backend claimed the pod, 502 relay_failed when the chosen backend
// failed mid-request, and 500 internal_error for everything else.
//
// Subpackages divide the rest: handlers carries the routing dispatch and
// the reserved health endpoint, middleware the request id, tracing,
// logging, metrics, and recovery wrappers, and types the envelope itself.
// Everything here is safe for concurrent use.
package proxy
