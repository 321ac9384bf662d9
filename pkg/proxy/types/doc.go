// Package types defines the JSON error envelope shared by the proxy's
// handlers and middleware. It has no dependencies on the rest of the proxy
// so both can import it freely.
package types
