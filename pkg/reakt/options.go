package reakt

import (
	"log/slog"

	"github.com/ourran/reakt/pkg/reakt/event"
	"github.com/ourran/reakt/pkg/reakt/observability"
	"github.com/ourran/reakt/pkg/reakt/trace"
)

// Option configures a Kernel.
type Option func(*Kernel)

// WithLogger attaches a structured logger. Nil (the default) disables
// logging entirely.
func WithLogger(logger *slog.Logger) Option {
	return func(k *Kernel) {
		k.logger = logger
	}
}

// WithMetrics attaches a metrics recorder.
// Default: observability.NoopMetrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(k *Kernel) {
		if m != nil {
			k.metrics = m
		}
	}
}

// WithSpanManager attaches a span manager for dispatch tracing.
// Default: observability.NoopSpanManager.
func WithSpanManager(s observability.SpanManager) Option {
	return func(k *Kernel) {
		if s != nil {
			k.spans = s
		}
	}
}

// WithTraceSink attaches an instrumentation sink. Every state entry,
// exit, initial transition, and transition of every actor started on
// this kernel is emitted to it. Default: trace.NopSink.
func WithTraceSink(sink trace.Sink) Option {
	return func(k *Kernel) {
		if sink != nil {
			k.sink = sink
		}
	}
}

// WithDropHandler installs a callback invoked when a best-effort post
// is rejected or when a dispatched event bubbles to the root state
// unhandled. The event reference has already been consumed when the
// callback runs; the handler is for diagnostics, not recovery.
func WithDropHandler(fn func(actor string, sig event.Signal)) Option {
	return func(k *Kernel) {
		k.onDrop = fn
	}
}

// startConfig holds per-actor start options.
type startConfig struct {
	deferred []*event.Event
}

// StartOption configures Active.Start.
type StartOption func(*startConfig)

// WithDeferredStorage supplies storage for the actor's deferred-event
// queue. Without it, Defer and Recall are unavailable on the actor.
func WithDeferredStorage(storage []*event.Event) StartOption {
	return func(c *startConfig) {
		c.deferred = storage
	}
}
