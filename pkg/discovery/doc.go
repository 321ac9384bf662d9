// Package discovery maps pod identities to backend addresses.
//
// Every backend pod registers under one shared hostname and serves a
// well-known identity endpoint. Discovery answers "where is pod X right now"
// by enumerating the hostname, asking every address who it is, and picking
// the candidate that claims the identity.
//
// # Lookup Stages
//
// A lookup walks these stages in order and stops at the first answer:
//
//  1. Route pins - static overrides from the routes file
//  2. Cache - identities resolved recently, within the TTL
//  3. Discovery round - DNS enumeration, probe fan-out, match
//
// # Discovery Round
//
//	Resolve("alpha")
//	     ↓
//	DNS: backend hostname → [10.0.0.1, 10.0.0.2, ...]
//	     ↓
//	Probe all candidates concurrently: GET http://ip:port/podid
//	     ↓
//	Match: first candidate reporting {"podId": "alpha"}
//	     ↓
//	Cache the answer for the TTL
//
// The probe fan-out waits for every candidate to answer or time out. A probe
// failure removes that candidate from the round and nothing else; fleets in
// mid-rollout routinely have a pod or two that do not answer.
//
// # Coalescing
//
// Concurrent lookups for the same identity share one round via
// singleflight, so a popular identity going cold costs one DNS enumeration
// and one probe fan-out, not one per waiting request.
//
// # Duplicate Identities
//
// Two pods claiming the same identity is a fleet misconfiguration. The round
// still answers deterministically (candidates are sorted, the first claimant
// wins), and the collision is surfaced through a warning log, a metric, and
// the round's audit record.
//
// Wiring the pieces together:
//
//	resolver := discovery.NewResolver("pods.internal", "")
//	prober := discovery.NewProber(2*time.Second, collector)
//	cache := discovery.NewCache(15 * time.Second)
//	defer cache.Close()
//
//	d := discovery.NewDiscoverer(discovery.DiscovererConfig{
//	    Resolver:    resolver,
//	    Prober:      prober,
//	    Cache:       cache,
//	    BackendPort: 7777,
//	})
//
//	addr, err := d.Resolve(ctx, "alpha")
package discovery
