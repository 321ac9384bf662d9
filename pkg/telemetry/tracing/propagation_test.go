package tracing

import (
	"context"
	"net/http"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Canonical W3C example header, sampled and unsampled variants.
const (
	sampledParent   = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	unsampledParent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-00"
)

// installPropagator sets the W3C composite propagator Extract and Inject
// read from the otel global.
func installPropagator(t *testing.T) {
	t.Helper()
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

func TestValidateTraceParent(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"sampled", sampledParent, true},
		{"unsampled", unsampledParent, true},
		{"three fields only", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7", false},
		{"short version", "0-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", false},
		{"short trace id", "00-4bf92f3577b34da6a3ce929d0e0e473-00f067aa0ba902b7-01", false},
		{"short parent id", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902-01", false},
		{"short flags", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-1", false},
		{"non-hex trace id", "00-4bf92f3577b34da6a3ce929d0e0e473g-00f067aa0ba902b7-01", false},
		{"non-hex parent id", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902bz-01", false},
		{"zero trace id", "00-00000000000000000000000000000000-00f067aa0ba902b7-01", false},
		{"zero parent id", "00-4bf92f3577b34da6a3ce929d0e0e4736-0000000000000000-01", false},
		{"empty", "", false},
		{"garbage", "invalid", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateTraceParent(tt.header); got != tt.want {
				t.Errorf("ValidateTraceParent(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestParseTraceParent(t *testing.T) {
	t.Run("well-formed header", func(t *testing.T) {
		version, traceID, parentID, flags, valid := ParseTraceParent(sampledParent)
		if !valid {
			t.Fatalf("ParseTraceParent(%q) not valid", sampledParent)
		}
		if version != "00" || flags != "01" {
			t.Errorf("version/flags = %q/%q, want 00/01", version, flags)
		}
		if traceID != "4bf92f3577b34da6a3ce929d0e0e4736" {
			t.Errorf("trace id = %q", traceID)
		}
		if parentID != "00f067aa0ba902b7" {
			t.Errorf("parent id = %q", parentID)
		}
	})

	t.Run("unsampled flags survive", func(t *testing.T) {
		_, _, _, flags, valid := ParseTraceParent(unsampledParent)
		if !valid || flags != "00" {
			t.Errorf("flags = %q (valid=%v), want 00", flags, valid)
		}
	})

	t.Run("garbage yields zero values", func(t *testing.T) {
		version, traceID, parentID, flags, valid := ParseTraceParent("invalid")
		if valid {
			t.Error("ParseTraceParent(invalid) reported valid")
		}
		if version != "" || traceID != "" || parentID != "" || flags != "" {
			t.Errorf("non-empty fields from garbage: %q %q %q %q", version, traceID, parentID, flags)
		}
	})
}

func TestIsSampledFromTraceParent(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   bool
	}{
		{"flag 01", sampledParent, true},
		{"flag 00", unsampledParent, false},
		{"flag 03 has sampled bit", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-03", true},
		{"flag 02 lacks sampled bit", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-02", false},
		{"garbage", "invalid", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSampledFromTraceParent(tt.header); got != tt.want {
				t.Errorf("IsSampledFromTraceParent(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestIsHexString(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"4bf92f3577b34da6a3ce929d0e0e4736", true},
		{"4BF92F3577B34DA6A3CE929D0E0E4736", true},
		{"0123456789", true},
		{"4bf92g35", false},
		{"4bf9-2f35", false},
		{"", true},
	}

	for _, tt := range tests {
		if got := isHexString(tt.s); got != tt.want {
			t.Errorf("isHexString(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestExtract(t *testing.T) {
	installPropagator(t)

	t.Run("valid header becomes remote span context", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("traceparent", sampledParent)

		sc := trace.SpanContextFromContext(Extract(context.Background(), headers))
		if !sc.IsValid() {
			t.Fatal("no valid span context extracted")
		}
		if !sc.IsRemote() {
			t.Error("extracted span context is not marked remote")
		}
		if !sc.IsSampled() {
			t.Error("sampled flag lost in extraction")
		}
		if got := sc.TraceID().String(); got != "4bf92f3577b34da6a3ce929d0e0e4736" {
			t.Errorf("trace id = %q", got)
		}
	})

	t.Run("missing header extracts nothing", func(t *testing.T) {
		ctx := Extract(context.Background(), http.Header{})
		if trace.SpanContextFromContext(ctx).IsValid() {
			t.Error("span context appeared from empty headers")
		}
	})

	t.Run("malformed header extracts nothing", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("traceparent", "invalid")
		ctx := Extract(context.Background(), headers)
		if trace.SpanContextFromContext(ctx).IsValid() {
			t.Error("span context appeared from malformed header")
		}
	})
}

func TestInject(t *testing.T) {
	installPropagator(t)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	t.Run("empty context writes no header", func(t *testing.T) {
		headers := http.Header{}
		Inject(context.Background(), headers)
		if got := headers.Get("traceparent"); got != "" {
			t.Errorf("traceparent = %q from empty context", got)
		}
	})

	t.Run("span context is written", func(t *testing.T) {
		headers := http.Header{}
		Inject(ctx, headers)
		if got := headers.Get("traceparent"); got != sampledParent {
			t.Errorf("traceparent = %q, want %q", got, sampledParent)
		}
	})

	t.Run("existing header is replaced", func(t *testing.T) {
		headers := http.Header{}
		headers.Set("traceparent", "00-11111111111111111111111111111111-2222222222222222-00")
		Inject(ctx, headers)
		if got := headers.Get("traceparent"); got != sampledParent {
			t.Errorf("stale traceparent survived injection: %q", got)
		}
	})
}

func TestExtractInjectRoundTrip(t *testing.T) {
	installPropagator(t)

	inbound := http.Header{}
	inbound.Set("traceparent", sampledParent)

	outbound := http.Header{}
	Inject(Extract(context.Background(), inbound), outbound)

	if got := outbound.Get("traceparent"); got != sampledParent {
		t.Errorf("round trip changed traceparent to %q", got)
	}
}
