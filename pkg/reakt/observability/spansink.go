package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ourran/reakt/pkg/reakt/trace"
)

// SpanEventSink mirrors instrumentation records as events on the span
// carried by its context, putting per-state entry/exit detail inside
// the surrounding run or dispatch span.
type SpanEventSink struct {
	ctx context.Context
}

// NewSpanEventSink creates a sink emitting onto the span in ctx.
// Records emitted while ctx carries no recording span are dropped.
func NewSpanEventSink(ctx context.Context) *SpanEventSink {
	return &SpanEventSink{ctx: ctx}
}

// Emit implements trace.Sink.
func (s *SpanEventSink) Emit(rec trace.Record) {
	span := oteltrace.SpanFromContext(s.ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent("hsm."+rec.Kind.String(), oteltrace.WithAttributes(
		attribute.String("actor", rec.Actor),
		attribute.String("from", rec.From),
		attribute.String("to", rec.To),
	))
}

var _ trace.Sink = (*SpanEventSink)(nil)
