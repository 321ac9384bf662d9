package tracing

import (
	"context"
	"encoding/hex"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Trace context crosses the proxy in W3C form
// (https://www.w3.org/TR/trace-context/): a required traceparent header,
//
//	version-trace_id-parent_id-trace_flags
//	00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// plus an optional tracestate for vendor data. The relay participates on
// both sides: it extracts the inbound context so the proxy span joins the
// client's trace, then injects the updated context into the forwarded
// request so the pod's spans nest under the proxy's.

// Propagator returns the process-wide text map propagator, a composite
// of W3C Trace Context and Baggage once New has run.
func Propagator() propagation.TextMapPropagator {
	return otel.GetTextMapPropagator()
}

// Extract reads trace context out of inbound headers:
//
//	ctx := tracing.Extract(r.Context(), r.Header)
//	ctx, span := tracer.Start(ctx, "proxy.request")
//
// Headers without usable context leave ctx unchanged.
func Extract(ctx context.Context, headers http.Header) context.Context {
	return Propagator().Extract(ctx, propagation.HeaderCarrier(headers))
}

// Inject writes the context's trace context into headers, replacing any
// traceparent already present. Called on requests just before they are
// forwarded to a pod.
func Inject(ctx context.Context, headers http.Header) {
	Propagator().Inject(ctx, propagation.HeaderCarrier(headers))
}

// traceparent field widths in hex digits: version, trace ID, parent ID,
// trace flags.
var traceParentWidths = [4]int{2, 32, 16, 2}

// ValidateTraceParent reports whether a traceparent header is well
// formed: four hyphen-separated hex fields of the right widths, with
// non-zero trace and parent IDs.
func ValidateTraceParent(traceparent string) bool {
	parts := strings.Split(traceparent, "-")
	if len(parts) != len(traceParentWidths) {
		return false
	}
	for i, width := range traceParentWidths {
		if len(parts[i]) != width || !isHexString(parts[i]) {
			return false
		}
	}
	// All-zero IDs are reserved as invalid.
	return strings.Trim(parts[1], "0") != "" && strings.Trim(parts[2], "0") != ""
}

func isHexString(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}

// ParseTraceParent splits a traceparent header into its fields. All
// strings are empty and valid is false when the header is malformed.
func ParseTraceParent(traceparent string) (version, traceID, parentID, flags string, valid bool) {
	if !ValidateTraceParent(traceparent) {
		return "", "", "", "", false
	}
	parts := strings.Split(traceparent, "-")
	return parts[0], parts[1], parts[2], parts[3], true
}

// IsSampledFromTraceParent reports whether the sampled bit is set in a
// traceparent's flags field.
func IsSampledFromTraceParent(traceparent string) bool {
	_, _, _, flags, ok := ParseTraceParent(traceparent)
	if !ok {
		return false
	}
	bits, err := strconv.ParseUint(flags, 16, 8)
	if err != nil {
		return false
	}
	return bits&0x01 != 0
}
