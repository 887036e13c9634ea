package policy

import (
	"fmt"

	"github.com/deploymenttheory/go-restruntime/restruntime/transport"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingPolicy starts a span per pipeline invocation, generalizing the
// prior workbrew client's Transport.EnableTracing (workbrew/client/otel.go),
// which wraps resty's underlying http.RoundTripper with otelhttp, into a
// policy that participates directly in this module's own pipeline instead
// of reaching into a concrete transport's internals.
type TracingPolicy struct {
	tracer      trace.Tracer
	propagators propagation.TextMapPropagator
}

// NewTracingPolicy builds a tracing policy. A nil provider/propagators
// falls back to the global ones, matching DefaultOTelConfig in the prior client.
func NewTracingPolicy(provider trace.TracerProvider, propagators propagation.TextMapPropagator, serviceName string) *TracingPolicy {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	if propagators == nil {
		propagators = otel.GetTextMapPropagator()
	}
	if serviceName == "" {
		serviceName = "restruntime-client"
	}
	return &TracingPolicy{
		tracer:      provider.Tracer(serviceName),
		propagators: propagators,
	}
}

type headerCarrier struct {
	headers *transport.Headers
}

func (c headerCarrier) Get(key string) string { return c.headers.Get(key) }
func (c headerCarrier) Set(key, value string) { c.headers.Set(key, value) }
func (c headerCarrier) Keys() []string         { return c.headers.Keys() }

// Process implements Policy. The span name is the plan's fully-qualified
// operation name, used for telemetry.
func (p *TracingPolicy) Process(ctx *Context, next Next) (*transport.Response, error) {
	spanName := ctx.OperationName
	if spanName == "" {
		spanName = fmt.Sprintf("HTTP %s", ctx.Request.Verb)
	}

	goCtx, span := p.tracer.Start(ctx.Ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	ctx.Ctx = goCtx
	p.propagators.Inject(goCtx, headerCarrier{ctx.Request.Headers})

	span.SetAttributes(
		attribute.String("http.method", string(ctx.Request.Verb)),
		attribute.String("http.url", ctx.Request.URL),
	)

	resp, err := next.Process(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return resp, err
	}
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.Status))
		if resp.Status >= 400 {
			span.SetStatus(codes.Error, fmt.Sprintf("status %d", resp.Status))
		}
	}
	return resp, nil
}
