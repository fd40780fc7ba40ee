package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ourran/reakt/pkg/reakt/event"
	"github.com/ourran/reakt/pkg/reakt/queue"
)

const (
	sigA = event.UserSig + iota
	sigB
	sigC
	sigD
)

func TestNewRequiresStorage(t *testing.T) {
	_, err := queue.New(nil)
	assert.ErrorIs(t, err, queue.ErrNoStorage)

	r, err := queue.New(make([]*event.Event, 4))
	require.NoError(t, err)
	assert.Equal(t, 4, r.Cap())
	assert.Equal(t, 0, r.Len())
}

func TestFIFOOrder(t *testing.T) {
	r, err := queue.New(make([]*event.Event, 4))
	require.NoError(t, err)

	a, b, c := event.Static(sigA), event.Static(sigB), event.Static(sigC)
	require.True(t, r.PostFIFO(a))
	require.True(t, r.PostFIFO(b))
	require.True(t, r.PostFIFO(c))

	assert.Same(t, a, r.Get())
	assert.Same(t, b, r.Get())
	assert.Same(t, c, r.Get())
	assert.Nil(t, r.Get())
}

func TestLIFOJumpsTheQueue(t *testing.T) {
	r, err := queue.New(make([]*event.Event, 4))
	require.NoError(t, err)

	a, b, urgent := event.Static(sigA), event.Static(sigB), event.Static(sigD)
	require.True(t, r.PostFIFO(a))
	require.True(t, r.PostFIFO(b))
	require.True(t, r.PostLIFO(urgent))

	// The urgent event is serviced strictly before anything queued
	// before it; FIFO order among the rest is preserved.
	assert.Same(t, urgent, r.Get())
	assert.Same(t, a, r.Get())
	assert.Same(t, b, r.Get())
}

func TestFullRejectsBothPaths(t *testing.T) {
	r, err := queue.New(make([]*event.Event, 2))
	require.NoError(t, err)

	require.True(t, r.PostFIFO(event.Static(sigA)))
	require.True(t, r.PostFIFO(event.Static(sigB)))
	assert.False(t, r.PostFIFO(event.Static(sigC)))
	assert.False(t, r.PostLIFO(event.Static(sigC)))
	assert.Equal(t, 2, r.Len())
}

func TestWrapAround(t *testing.T) {
	r, err := queue.New(make([]*event.Event, 2))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		a, b := event.Static(sigA), event.Static(sigB)
		require.True(t, r.PostFIFO(a))
		require.True(t, r.PostFIFO(b))
		assert.Same(t, a, r.Get())
		assert.Same(t, b, r.Get())
	}
	assert.Nil(t, r.Get())
}

func TestHighWaterMark(t *testing.T) {
	r, err := queue.New(make([]*event.Event, 4))
	require.NoError(t, err)

	r.PostFIFO(event.Static(sigA))
	r.PostFIFO(event.Static(sigB))
	r.Get()
	r.PostFIFO(event.Static(sigC))
	r.Get()
	r.Get()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 2, r.HighWater())
}

func TestInsertRetainsDynamicEvents(t *testing.T) {
	p, err := event.NewPool(make([]byte, 32), 16)
	require.NoError(t, err)
	r, err := queue.New(make([]*event.Event, 2))
	require.NoError(t, err)

	e := p.Allocate(sigA, 16)
	require.True(t, r.PostFIFO(e))
	assert.Equal(t, int32(1), e.RefCount())

	// Get transfers the reference to the caller without releasing.
	got := r.Get()
	require.Same(t, e, got)
	assert.Equal(t, int32(1), got.RefCount())
	got.Release()
	assert.Equal(t, 2, p.FreeCount())
}

func TestFullInsertDoesNotRetain(t *testing.T) {
	p, err := event.NewPool(make([]byte, 32), 16)
	require.NoError(t, err)
	r, err := queue.New(make([]*event.Event, 1))
	require.NoError(t, err)

	require.True(t, r.PostFIFO(event.Static(sigA)))
	e := p.Allocate(sigB, 16)
	require.False(t, r.PostFIFO(e))
	assert.Equal(t, int32(0), e.RefCount())
}
