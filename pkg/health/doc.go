// Package health aggregates fleet-wide pod health for the /health endpoint.
//
// A sweep enumerates every candidate address, probes them all through the
// same batch prober the discovery path uses, and requires every probe to
// yield a valid identity:
//
//	enumerate ──► probe all candidates ──► every identity valid? ──► ok
//	     │                                        │
//	     └─► dns_error / no_ips                   └─► some_pods_unhealthy
//
// The check is all-or-nothing: a single silent replica among many marks
// the whole fleet unhealthy. A pod that resolves but cannot state its
// identity is invisible to routing and shows up only as sporadic lookup
// failures, so it counts as a failure here too. Unhealthy snapshots keep
// the pods that did answer so operators can tell which replica is missing.
package health
