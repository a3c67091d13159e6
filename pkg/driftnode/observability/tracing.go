package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("driftnode")

// SpanManager handles trace span lifecycle around the two blocking
// paths: event receive and output dispatch.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when
// disabled.
type SpanManager interface {
	// StartReceiveSpan starts a span covering one blocking event pull.
	StartReceiveSpan(ctx context.Context) (context.Context, trace.Span)

	// StartDispatchSpan starts a span covering one output send.
	StartDispatchSpan(ctx context.Context, outputID string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

// StartReceiveSpan starts a span covering one blocking event pull.
func (m *otelSpanManager) StartReceiveSpan(ctx context.Context) (context.Context, trace.Span) {
	return tracer.Start(ctx, "driftnode.receive",
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
}

// StartDispatchSpan starts a span covering one output send.
func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, outputID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "driftnode.dispatch",
		trace.WithAttributes(
			attribute.String("output.id", outputID),
		),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
}

// EndSpanWithError completes a span, recording err when non-nil.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
