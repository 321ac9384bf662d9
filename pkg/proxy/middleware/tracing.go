package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/sextant-gg/sextant/pkg/telemetry/tracing"
)

// Tracing middleware opens a server span for each request and propagates the
// proxy's trace context to the backend pod.
//
// The inbound traceparent header, when present, becomes the parent of the
// proxy's span. The proxy's own span context is then injected back into the
// request headers, replacing the inbound value, so the relayed request
// carries the proxy as parent and the pod's spans nest under it.
//
// The trace and span IDs are echoed in X-Trace-ID and X-Span-ID response
// headers so callers can correlate a response with its trace.
func Tracing(tracer *tracing.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if tracer == nil || !tracer.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := tracing.Extract(r.Context(), r.Header)

			ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path)
			defer span.End()

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
			)
			if requestID := GetRequestID(ctx); requestID != "" {
				span.SetAttributes(attribute.String(tracing.AttrRequestID, requestID))
			}

			// Forward the proxy's span context, not the caller's
			tracing.Inject(ctx, r.Header)

			sc := span.SpanContext()
			if sc.IsValid() {
				w.Header().Set("X-Trace-ID", sc.TraceID().String())
				w.Header().Set("X-Span-ID", sc.SpanID().String())
			}

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", rw.statusCode))
			if rw.statusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
			}
		})
	}
}
