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

// setupTracingTest installs an in-memory exporter and rebinds the
// package tracer to it.
func setupTracingTest(t *testing.T) (*tracetest.InMemoryExporter, func()) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)

	originalProvider := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("reakt")

	cleanup := func() {
		otel.SetTracerProvider(originalProvider)
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	}
	return exporter, cleanup
}

func TestStartRunSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("creates span with kernel attribute", func(t *testing.T) {
		ctx := context.Background()
		_, span := sm.StartRunSpan(ctx, "kernel-123")
		require.NotNil(t, span)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "reakt.run", spans[0].Name)

		var kernelID string
		for _, attr := range spans[0].Attributes {
			if attr.Key == "kernel.id" {
				kernelID = attr.Value.AsString()
			}
		}
		assert.Equal(t, "kernel-123", kernelID)
	})

	t.Run("returns context carrying the span", func(t *testing.T) {
		exporter.Reset()

		ctx := context.Background()
		newCtx, span := sm.StartRunSpan(ctx, "kernel-456")
		assert.NotEqual(t, ctx, newCtx)
		span.End()

		require.Len(t, exporter.GetSpans(), 1)
	})
}

func TestStartDispatchSpan(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("names span after the actor", func(t *testing.T) {
		_, span := sm.StartDispatchSpan(context.Background(), "philo-3", 42)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "reakt.dispatch.philo-3", spans[0].Name)

		var actor string
		var sig int64
		for _, attr := range spans[0].Attributes {
			switch attr.Key {
			case "actor":
				actor = attr.Value.AsString()
			case "signal":
				sig = attr.Value.AsInt64()
			}
		}
		assert.Equal(t, "philo-3", actor)
		assert.Equal(t, int64(42), sig)
	})

	t.Run("dispatch span is a child of the run span", func(t *testing.T) {
		exporter.Reset()

		ctx, runSpan := sm.StartRunSpan(context.Background(), "k")
		_, dispatchSpan := sm.StartDispatchSpan(ctx, "philo-1", 7)
		dispatchSpan.End()
		runSpan.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 2)

		var child *tracetest.SpanStub
		for i := range spans {
			if spans[i].Name == "reakt.dispatch.philo-1" {
				child = &spans[i]
				break
			}
		}
		require.NotNil(t, child)
		assert.True(t, child.Parent.IsValid())
	})
}

func TestEndSpanWithError(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("sets OK status for nil error", func(t *testing.T) {
		_, span := sm.StartRunSpan(context.Background(), "k")
		sm.EndSpanWithError(span, nil)

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Ok, spans[0].Status.Code)
	})

	t.Run("records the error", func(t *testing.T) {
		exporter.Reset()

		_, span := sm.StartRunSpan(context.Background(), "k")
		sm.EndSpanWithError(span, errors.New("queue full"))

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status.Code)
		assert.Equal(t, "queue full", spans[0].Status.Description)

		found := false
		for _, ev := range spans[0].Events {
			if ev.Name == "exception" {
				found = true
			}
		}
		assert.True(t, found, "Expected exception event")
	})

	t.Run("nil span does not panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			sm.EndSpanWithError(nil, nil)
		})
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter, cleanup := setupTracingTest(t)
	defer cleanup()

	sm := NewSpanManager()

	t.Run("adds event to the current span", func(t *testing.T) {
		ctx, span := sm.StartRunSpan(context.Background(), "k")
		sm.AddSpanEvent(ctx, "event_deferred",
			attribute.String("actor", "table"),
			attribute.Int64("signal", 9),
		)
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)

		var found bool
		for _, ev := range spans[0].Events {
			if ev.Name == "event_deferred" {
				found = true
			}
		}
		assert.True(t, found, "Expected to find event_deferred event")
	})

	t.Run("no panic without a current span", func(t *testing.T) {
		assert.NotPanics(t, func() {
			sm.AddSpanEvent(context.Background(), "orphan")
		})
	})
}
