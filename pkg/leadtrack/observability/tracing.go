package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("leadtrack")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartDispatchSpan starts a span for one fan-out.
	StartDispatchSpan(ctx context.Context, event, dispatchID string) (context.Context, trace.Span)

	// StartAdapterSpan starts a child span for one adapter call.
	StartAdapterSpan(ctx context.Context, adapter string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, event, dispatchID string) (context.Context, trace.Span) {
	return StartDispatchSpan(ctx, event, dispatchID)
}

func (m *otelSpanManager) StartAdapterSpan(ctx context.Context, adapter string) (context.Context, trace.Span) {
	return StartAdapterSpan(ctx, adapter)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

// StartDispatchSpan starts a span for one fan-out using the global tracer.
func StartDispatchSpan(ctx context.Context, event, dispatchID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "leadtrack.dispatch",
		trace.WithAttributes(
			attribute.String("event.name", event),
			attribute.String("dispatch.id", dispatchID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartAdapterSpan starts a span for one adapter call using the global tracer.
func StartAdapterSpan(ctx context.Context, adapter string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "leadtrack.adapter."+adapter,
		trace.WithAttributes(
			attribute.String("adapter.name", adapter),
		),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
