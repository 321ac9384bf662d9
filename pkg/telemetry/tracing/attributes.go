package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys. Standard keys follow OpenTelemetry semantic
// conventions (http.*); custom keys use the "sextant.*" namespace.
const (
	AttrPodID     = "sextant.pod_id"     // routing target identifier
	AttrTarget    = "sextant.target"     // resolved backend host:port
	AttrRequestID = "sextant.request_id" // correlates spans with access logs
	AttrErrorType = "sextant.error.type" // error code from the JSON envelope
)

// SetPodAttributes records which pod a request was routed to. Target may be
// empty when resolution failed before an address was chosen.
func SetPodAttributes(span trace.Span, podID, target string) {
	attrs := []attribute.KeyValue{
		attribute.String(AttrPodID, podID),
	}
	if target != "" {
		attrs = append(attrs, attribute.String(AttrTarget, target))
	}
	span.SetAttributes(attrs...)
}
