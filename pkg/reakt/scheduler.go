package reakt

import (
	"context"
	"math/bits"

	"github.com/ourran/reakt/pkg/reakt/observability"
)

// The scheduling law: always select the highest-priority ready actor,
// dequeue exactly one event, and run its dispatch to completion before
// looking again. The lock is dropped for the dispatch itself, so
// producers on other goroutines only ever contend for the short
// structural critical sections.

// Run executes the cooperative scheduling loop until ctx is cancelled.
// When no actor is ready the loop parks; posts from any goroutine wake
// it. Returns ErrKernelRunning if the loop is already active.
func (k *Kernel) Run(ctx context.Context) error {
	k.mu.Lock()
	if k.running {
		k.mu.Unlock()
		return ErrKernelRunning
	}
	k.running = true
	n := k.nactors
	k.mu.Unlock()

	defer func() {
		k.mu.Lock()
		k.running = false
		k.mu.Unlock()
	}()

	observability.LogKernelStart(k.logger, k.id, n)
	ctx, span := k.spans.StartRunSpan(ctx, k.id)
	defer k.spans.EndSpanWithError(span, nil)
	defer func() {
		observability.LogKernelStop(k.logger, k.id, k.steps)
	}()

	// Wake the parked loop when the context ends.
	stop := context.AfterFunc(ctx, func() {
		k.mu.Lock()
		k.cond.Broadcast()
		k.mu.Unlock()
	})
	defer stop()

	for {
		if ctx.Err() != nil {
			return nil
		}
		if k.step(ctx) {
			continue
		}
		k.mu.Lock()
		for k.ready == 0 && ctx.Err() == nil {
			k.cond.Wait()
		}
		k.mu.Unlock()
	}
}

// Drain runs dispatch steps on the calling goroutine until no actor is
// ready, and returns the number of steps taken. This is the
// deterministic way to exercise a kernel in tests: everything that the
// queued events trigger, transitively, runs to quiescence in strict
// priority order.
func (k *Kernel) Drain() int {
	ctx := context.Background()
	n := 0
	for k.step(ctx) {
		n++
	}
	return n
}

// step dispatches one event to the highest-priority ready actor.
// Reports false when no actor is ready.
func (k *Kernel) step(ctx context.Context) bool {
	k.mu.Lock()
	if k.ready == 0 {
		k.mu.Unlock()
		return false
	}
	prio := uint8(bits.Len64(k.ready)) // highest set bit, 1-based
	a := k.actors[prio]
	if a == nil {
		// Stale ready bit from a stopped actor.
		k.ready &^= 1 << (prio - 1)
		k.mu.Unlock()
		return true
	}
	k.mu.Unlock()

	e := a.queue.Get()
	if e == nil {
		k.mu.Lock()
		if a.queue.Len() == 0 {
			k.ready &^= 1 << (prio - 1)
		}
		k.mu.Unlock()
		return true
	}

	sctx, span := k.spans.StartDispatchSpan(ctx, a.name, e.Sig)
	elapsed := observability.TimedOperation()
	handled := a.machine.Dispatch(e)
	dur := elapsed()
	k.spans.EndSpanWithError(span, nil)
	if !handled {
		k.drop(a.name, e.Sig, "unhandled")
	}
	k.metrics.RecordDispatch(sctx, a.name, e.Sig, dur)
	observability.LogDispatch(k.logger, a.name, e.Sig, float64(dur.Microseconds())/1000.0)

	e.Release() // the consumed reference; frees the block on last holder

	for _, p := range k.pools.Pools() {
		k.metrics.RecordPoolUsage(sctx, p.BlockSize(), p.FreeCount(), p.MinFree())
	}

	k.mu.Lock()
	k.steps++
	if a.queue.Len() == 0 {
		k.ready &^= 1 << (prio - 1)
	}
	k.mu.Unlock()
	return true
}
