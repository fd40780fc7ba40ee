package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ourran/reakt/pkg/reakt/event"
)

// tracer is the reakt tracer instance, backed by the global OTel
// tracer provider.
var tracer = otel.Tracer("reakt")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRunSpan starts a span covering a kernel scheduling loop.
	StartRunSpan(ctx context.Context, kernelID string) (context.Context, trace.Span)

	// StartDispatchSpan starts a span for one run-to-completion step.
	// The dispatch span should be a child of the run span.
	StartDispatchSpan(ctx context.Context, actor string, sig event.Signal) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
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

// StartRunSpan starts a span covering a kernel scheduling loop.
func (m *otelSpanManager) StartRunSpan(ctx context.Context, kernelID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "reakt.run",
		trace.WithAttributes(
			attribute.String("kernel.id", kernelID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartDispatchSpan starts a span for one run-to-completion step.
func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, actor string, sig event.Signal) (context.Context, trace.Span) {
	return tracer.Start(ctx, "reakt.dispatch."+actor,
		trace.WithAttributes(
			attribute.String("actor", actor),
			attribute.Int("signal", int(sig)),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
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
func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
