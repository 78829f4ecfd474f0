package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func attributeKey(k string) attribute.Key { return attribute.Key(k) }

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("leadtrack")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("leadtrack")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
	})
	return exporter
}

func TestSpanManager_DispatchWithAdapterChild(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, parent := sm.StartDispatchSpan(context.Background(), "generate_lead", "d-1")
	_, child := sm.StartAdapterSpan(ctx, "pixel")
	sm.AddSpanEvent(ctx, "normalized", attribute.Int("attributes", 12))
	sm.EndSpanWithError(child, errors.New("fbq exploded"))
	sm.EndSpanWithError(parent, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	adapter, dispatch := spans[0], spans[1]
	assert.Equal(t, "leadtrack.adapter.pixel", adapter.Name)
	assert.Equal(t, codes.Error, adapter.Status.Code)
	assert.Equal(t, "fbq exploded", adapter.Status.Description)
	assert.Equal(t, dispatch.SpanContext.SpanID(), adapter.Parent.SpanID())

	assert.Equal(t, "leadtrack.dispatch", dispatch.Name)
	assert.Equal(t, codes.Ok, dispatch.Status.Code)
	require.Len(t, dispatch.Events, 1)
	assert.Equal(t, "normalized", dispatch.Events[0].Name)

	attrs := map[attribute.Key]string{}
	for _, kv := range dispatch.Attributes {
		attrs[kv.Key] = kv.Value.AsString()
	}
	assert.Equal(t, "generate_lead", attrs["event.name"])
	assert.Equal(t, "d-1", attrs["dispatch.id"])
}

func TestEndSpanWithError_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() { EndSpanWithError(nil, errors.New("x")) })
}

func TestAddSpanEvent_NoSpan(t *testing.T) {
	assert.NotPanics(t, func() { AddSpanEvent(context.Background(), "x") })
}
