package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonLogger returns a debug-level JSON logger writing into buf.
func jsonLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var m map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &m))
	return m
}

func TestNilLoggerIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		LogKernelStart(nil, "k", 3)
		LogKernelStop(nil, "k", 100)
		LogActorStart(nil, "a", 1, 8)
		LogDispatch(nil, "a", 42, 0.5)
		LogPublish(nil, 42, 2)
		LogEventDropped(nil, "a", 42, "queue full")
	})
}

func TestLogKernelStart(t *testing.T) {
	var buf bytes.Buffer
	LogKernelStart(jsonLogger(&buf), "kernel-1", 5)

	rec := lastRecord(t, &buf)
	assert.Equal(t, "kernel starting", rec["msg"])
	assert.Equal(t, "kernel-1", rec["kernel_id"])
	assert.Equal(t, float64(5), rec["actors"])
}

func TestLogKernelStop(t *testing.T) {
	var buf bytes.Buffer
	LogKernelStop(jsonLogger(&buf), "kernel-1", 1234)

	rec := lastRecord(t, &buf)
	assert.Equal(t, "kernel stopped", rec["msg"])
	assert.Equal(t, float64(1234), rec["steps"])
}

func TestLogActorStart(t *testing.T) {
	var buf bytes.Buffer
	LogActorStart(jsonLogger(&buf), "philo-2", 3, 8)

	rec := lastRecord(t, &buf)
	assert.Equal(t, "actor started", rec["msg"])
	assert.Equal(t, "philo-2", rec["actor"])
	assert.Equal(t, float64(3), rec["priority"])
	assert.Equal(t, float64(8), rec["queue_cap"])
}

func TestLogDispatch(t *testing.T) {
	var buf bytes.Buffer
	LogDispatch(jsonLogger(&buf), "table", 17, 0.25)

	rec := lastRecord(t, &buf)
	assert.Equal(t, "event dispatched", rec["msg"])
	assert.Equal(t, "DEBUG", rec["level"])
	assert.Equal(t, float64(17), rec["signal"])
	assert.Equal(t, 0.25, rec["duration_ms"])
}

func TestLogPublish(t *testing.T) {
	var buf bytes.Buffer
	LogPublish(jsonLogger(&buf), 17, 4)

	rec := lastRecord(t, &buf)
	assert.Equal(t, "event published", rec["msg"])
	assert.Equal(t, float64(4), rec["subscribers"])
}

func TestLogEventDropped(t *testing.T) {
	var buf bytes.Buffer
	LogEventDropped(jsonLogger(&buf), "lossy", 9, "queue full")

	rec := lastRecord(t, &buf)
	assert.Equal(t, "event dropped", rec["msg"])
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "queue full", rec["reason"])
}

func TestTimedOperation(t *testing.T) {
	elapsed := TimedOperation()
	time.Sleep(5 * time.Millisecond)
	d := elapsed()
	assert.GreaterOrEqual(t, d, time.Millisecond)
	assert.Less(t, d, time.Second)
}
