package middleware

// contextKey keeps request-scoped values from colliding with keys other
// packages put on the same context.
type contextKey string

const (
	// RequestIDKey carries the ID assigned by the RequestID middleware.
	RequestIDKey contextKey = "request_id"

	// StartTimeKey carries the arrival time stamped by the Logging
	// middleware. Inner middleware reads it so every latency measurement
	// for a request agrees.
	StartTimeKey contextKey = "start_time"
)
