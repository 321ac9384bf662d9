package tracing

import (
	"context"
	"strings"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{name: "always", strategy: SamplerAlways},
		{name: "never", strategy: SamplerNever},
		{name: "ratio mid", strategy: SamplerRatio, ratio: 0.25},
		{name: "ratio floor", strategy: SamplerRatio, ratio: 0},
		{name: "ratio ceiling", strategy: SamplerRatio, ratio: 1},
		{name: "ratio negative", strategy: SamplerRatio, ratio: -0.5, wantErr: true},
		{name: "ratio too large", strategy: SamplerRatio, ratio: 2, wantErr: true},
		{name: "unknown strategy", strategy: "coinflip", wantErr: true},
		{name: "empty strategy", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if sampler == nil {
				t.Fatal("got a nil sampler and a nil error from createSampler()")
			}
			if desc := sampler.Description(); !strings.Contains(desc, "ParentBased") {
				t.Errorf("Description() = %q, want a ParentBased wrapper", desc)
			}
		})
	}
}

// A parent span arriving with the request overrides the configured
// strategy, so a "never" sampler still records children of sampled
// traces and an "always" sampler still drops children of unsampled ones.
func TestCreateSampler_ParentDecisionWins(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")

	parentCtx := func(sampled bool) context.Context {
		var flags trace.TraceFlags
		if sampled {
			flags = trace.FlagsSampled
		}
		sc := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    traceID,
			SpanID:     spanID,
			TraceFlags: flags,
			Remote:     true,
		})
		return trace.ContextWithSpanContext(context.Background(), sc)
	}

	tests := []struct {
		name          string
		strategy      string
		parentSampled bool
		want          sdktrace.SamplingDecision
	}{
		{name: "sampled parent beats never", strategy: SamplerNever, parentSampled: true, want: sdktrace.RecordAndSample},
		{name: "unsampled parent beats always", strategy: SamplerAlways, parentSampled: false, want: sdktrace.Drop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, 0)
			if err != nil {
				t.Fatalf("createSampler() error = %v", err)
			}

			result := sampler.ShouldSample(sdktrace.SamplingParameters{
				ParentContext: parentCtx(tt.parentSampled),
				TraceID:       traceID,
				Name:          "proxy.request",
				Kind:          trace.SpanKindServer,
			})
			if result.Decision != tt.want {
				t.Errorf("ShouldSample() decision = %v, want %v", result.Decision, tt.want)
			}
		})
	}
}
