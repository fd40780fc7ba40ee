package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ourran/reakt/pkg/reakt/event"
)

// MetricsRecorder records runtime metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records one run-to-completion step with its duration.
	RecordDispatch(ctx context.Context, actor string, sig event.Signal, duration time.Duration)

	// RecordPublish records a publish multicast and its fan-out.
	RecordPublish(ctx context.Context, sig event.Signal, fanout int)

	// RecordQueueDepth records an actor queue's occupancy after a post.
	RecordQueueDepth(ctx context.Context, actor string, depth, highWater int)

	// RecordPoolUsage records a pool's free-block watermark.
	RecordPoolUsage(ctx context.Context, blockSize, free, minFree int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches      metric.Int64Counter
	dispatchLatency metric.Float64Histogram
	publishFanout   metric.Int64Histogram
	queueDepth      metric.Int64Histogram
	poolFree        metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("reakt")

	dispatches, err := meter.Int64Counter("reakt.dispatch.count",
		metric.WithDescription("Number of run-to-completion steps"),
	)
	if err != nil {
		return nil, err
	}

	dispatchLatency, err := meter.Float64Histogram("reakt.dispatch.latency_ms",
		metric.WithDescription("Run-to-completion step latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	publishFanout, err := meter.Int64Histogram("reakt.publish.fanout",
		metric.WithDescription("Subscribers reached per publish"),
	)
	if err != nil {
		return nil, err
	}

	queueDepth, err := meter.Int64Histogram("reakt.queue.depth",
		metric.WithDescription("Actor event-queue occupancy"),
	)
	if err != nil {
		return nil, err
	}

	poolFree, err := meter.Int64Histogram("reakt.pool.free_blocks",
		metric.WithDescription("Free blocks remaining in an event pool"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		publishFanout:   publishFanout,
		queueDepth:      queueDepth,
		poolFree:        poolFree,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordDispatch records one run-to-completion step.
func (m *otelMetrics) RecordDispatch(ctx context.Context, actor string, sig event.Signal, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("actor", actor),
		attribute.Int("signal", int(sig)),
	}
	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchLatency.Record(ctx, float64(duration.Microseconds())/1000.0, metric.WithAttributes(attrs...))
}

// RecordPublish records a publish multicast.
func (m *otelMetrics) RecordPublish(ctx context.Context, sig event.Signal, fanout int) {
	m.publishFanout.Record(ctx, int64(fanout), metric.WithAttributes(
		attribute.Int("signal", int(sig)),
	))
}

// RecordQueueDepth records queue occupancy.
func (m *otelMetrics) RecordQueueDepth(ctx context.Context, actor string, depth, highWater int) {
	m.queueDepth.Record(ctx, int64(depth), metric.WithAttributes(
		attribute.String("actor", actor),
		attribute.Int("high_water", highWater),
	))
}

// RecordPoolUsage records a pool watermark sample.
func (m *otelMetrics) RecordPoolUsage(ctx context.Context, blockSize, free, minFree int) {
	m.poolFree.Record(ctx, int64(free), metric.WithAttributes(
		attribute.Int("block_size", blockSize),
		attribute.Int("min_free", minFree),
	))
}
