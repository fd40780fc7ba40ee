package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.RecordDispatch(ctx, "a", 1, time.Millisecond)
		m.RecordPublish(ctx, 1, 3)
		m.RecordQueueDepth(ctx, "a", 2, 4)
		m.RecordPoolUsage(ctx, 32, 10, 1)
	})
}

func TestNoopSpanManager(t *testing.T) {
	sm := NoopSpanManager{}
	ctx := context.Background()

	runCtx, runSpan := sm.StartRunSpan(ctx, "k")
	assert.Equal(t, ctx, runCtx, "noop spans leave the context untouched")
	assert.NotNil(t, runSpan)
	assert.False(t, runSpan.IsRecording())

	dispCtx, dispSpan := sm.StartDispatchSpan(ctx, "a", 1)
	assert.Equal(t, ctx, dispCtx)
	assert.NotNil(t, dispSpan)

	assert.NotPanics(t, func() {
		sm.EndSpanWithError(runSpan, nil)
		sm.EndSpanWithError(nil, nil)
		sm.AddSpanEvent(ctx, "nothing", attribute.String("k", "v"))
	})
}
