// Package tracing wires Sextant into OpenTelemetry: span creation, W3C
// trace context propagation, and OTLP gRPC export.
//
// A relay is the textbook case for distributed tracing. One client request
// fans out into DNS resolution, identity probes, and a backend round trip,
// and only a trace ties those pieces back together across the process
// boundary. A request arriving with a traceparent header
//
//	traceparent: 00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01
//
// joins the caller's trace, and the proxy injects its own span context
// into the forwarded request so the backend pod parents on the proxy.
// Requests without trace context start a fresh trace, subject to the
// configured sampler: "always" and "never" do what they say, and "ratio"
// keeps the configured fraction of root traces. An inbound sampling
// decision always wins over the local sampler.
//
// Typical startup wiring:
//
//	tracer, err := tracing.New(&cfg.Telemetry.Tracing)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "discovery.resolve")
//	defer span.End()
//	tracing.SetPodAttributes(span, "alpha", "10.0.0.5:7777")
//
// With tracing disabled, New hands back a tracer on the noop provider.
// Spans from it cost almost nothing, so call sites never check whether
// tracing is on.
package tracing
