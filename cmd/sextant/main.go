// Sextant is a discovery-aware reverse proxy for fleets of game backend pods.
//
// It sits in front of a pod fleet behind a single stable address, providing:
//   - Path-based pod addressing (first segment names the target pod)
//   - DNS enumeration and identity probing of backend candidates
//   - Transparent HTTP and WebSocket relaying
//   - Fleet-wide health aggregation
//   - Audit records for every discovery round
//
// Usage:
//
//	# Start the proxy with built-in defaults
//	sextant run
//
//	# Point it at a configuration file
//	sextant run --config /path/to/config.yaml
//
//	# Print build version
//	sextant version
//
//	# Validate a configuration file without starting
//	sextant validate --config /path/to/config.yaml
//
//	# Run one discovery round from the command line
//	sextant probe alpha
//
//	# Query the audit trail
//	sextant audit query --time-range "2026-02-01T00:00:00Z/2026-02-02T00:00:00Z"
//
// Full documentation lives at https://github.com/sextant-gg/sextant.
package main

func main() {
	Execute()
}
