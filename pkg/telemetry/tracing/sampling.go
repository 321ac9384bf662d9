package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Sampler strategy names accepted in telemetry.tracing.sampler. "always"
// suits development, "never" keeps the pipeline wired up without export
// volume, and "ratio" is the production setting.
const (
	SamplerAlways = "always"
	SamplerNever  = "never"
	SamplerRatio  = "ratio"
)

// createSampler maps a strategy name from the config onto an SDK sampler.
//
// Ratio sampling hashes the trace ID, so every service that sees a given
// trace makes the same decision. Every strategy is wrapped in ParentBased:
// when a request arrives carrying a parent span, the parent's sampling
// decision wins and the configured strategy only applies to new roots.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	switch strategy {
	case SamplerAlways:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case SamplerNever:
		return sdktrace.ParentBased(sdktrace.NeverSample()), nil
	case SamplerRatio:
		if ratio < 0 || ratio > 1 {
			return nil, fmt.Errorf("sample ratio must be in [0.0, 1.0], got %g", ratio)
		}
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio)), nil
	default:
		return nil, fmt.Errorf("unknown sampler strategy %q (valid: always, never, ratio)", strategy)
	}
}
