// Package observability provides structured logging, metrics, and
// distributed tracing for the reakt runtime.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
// Every helper is nil-safe on the logger so call sites never branch.
package observability

import (
	"log/slog"
	"time"

	"github.com/ourran/reakt/pkg/reakt/event"
)

// LogKernelStart logs the kernel entering its scheduling loop.
func LogKernelStart(logger *slog.Logger, kernelID string, actors int) {
	if logger == nil {
		return
	}
	logger.Info("kernel starting",
		slog.String("kernel_id", kernelID),
		slog.Int("actors", actors),
	)
}

// LogKernelStop logs the kernel leaving its scheduling loop.
func LogKernelStop(logger *slog.Logger, kernelID string, steps uint64) {
	if logger == nil {
		return
	}
	logger.Info("kernel stopped",
		slog.String("kernel_id", kernelID),
		slog.Uint64("steps", steps),
	)
}

// LogActorStart logs an active object registering with the kernel.
func LogActorStart(logger *slog.Logger, actor string, priority uint8, queueCap int) {
	if logger == nil {
		return
	}
	logger.Info("actor started",
		slog.String("actor", actor),
		slog.Int("priority", int(priority)),
		slog.Int("queue_cap", queueCap),
	)
}

// LogDispatch logs one run-to-completion step.
func LogDispatch(logger *slog.Logger, actor string, sig event.Signal, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatched",
		slog.String("actor", actor),
		slog.Int("signal", int(sig)),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogPublish logs a publish multicast.
func LogPublish(logger *slog.Logger, sig event.Signal, fanout int) {
	if logger == nil {
		return
	}
	logger.Debug("event published",
		slog.Int("signal", int(sig)),
		slog.Int("subscribers", fanout),
	)
}

// LogEventDropped logs a best-effort post that was rejected or an event
// discarded without a handler.
func LogEventDropped(logger *slog.Logger, actor string, sig event.Signal, reason string) {
	if logger == nil {
		return
	}
	logger.Warn("event dropped",
		slog.String("actor", actor),
		slog.Int("signal", int(sig)),
		slog.String("reason", reason),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, reports the elapsed time.
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
