// Package routes provides a hot-reloadable pod-to-address override table.
//
// The table is an operator escape hatch: when DNS answers or identity
// probing for a pod are misbehaving, a pin routes that pod's traffic to a
// fixed address without touching discovery at all. Pins take precedence
// over both the address cache and discovery rounds.
//
// The file format is a single YAML mapping of pod IDs to literal ip:port
// addresses:
//
//	routes:
//	  canary: 10.0.9.1:7777
//	  debug-pod: 127.0.0.1:9999
//
// With a Watcher attached, edits to the file are picked up without a
// restart. Reloads are debounced and all-or-nothing: a malformed file keeps
// the last successfully loaded table in place.
package routes
