// Package middleware wraps the proxy's handlers with the cross-cutting
// request machinery: panic recovery, request IDs, tracing, access logs,
// and metrics.
//
// The server composes the chain as
//
//	handler = Recovery(RequestID(Tracing(Logging(Metrics(handler)))))
//
// and the ordering is load-bearing. Recovery sits outermost so a panic in
// any other layer still becomes a JSON 500. Tracing runs inside RequestID
// so spans carry the request ID, and outside Logging so completion lines
// carry the trace and span IDs. Metrics runs innermost and reads the
// arrival timestamp Logging stamped into the context, which keeps the
// latency histogram and the access log telling the same story.
//
// RequestID assigns every request a 128-bit random hex ID, honoring an
// inbound X-Request-ID header when the caller already has one. The ID
// rides the request context (GetRequestID), goes back out in the
// X-Request-ID response header, and appears on every log line for the
// request.
//
// Logging emits one structured completion line per request through
// log/slog, with method, path, status, latency, and identifiers. The line
// level follows the status class: 2xx and 3xx at Info, 4xx at Warn, 5xx
// at Error.
//
// Tracing extracts W3C Trace Context from the inbound request, opens a
// server span, and leaves the proxy's span context in the request headers
// the relay forwards. Backend pods therefore parent their spans on the
// proxy rather than on the original caller, keeping the relay hop visible
// in the trace. The trace and span IDs are echoed in X-Trace-ID and
// X-Span-ID response headers.
//
// Recovery converts a panic into the standard JSON error envelope with
// status 500, logging the stack trace without exposing it to the client.
// http.ErrAbortHandler is re-raised untouched: it is the sanctioned way
// to abort a response mid-stream, not a bug to report.
//
// The status-capturing response writer used by Logging and Metrics
// implements http.Hijacker and http.Flusher. Hijacked requests (WebSocket
// upgrades) are logged and counted with status 101, and streamed relay
// responses flush through the wrapper unbuffered.
//
// All middleware is safe for concurrent use.
package middleware
