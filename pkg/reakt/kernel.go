package reakt

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ourran/reakt/pkg/reakt/event"
	"github.com/ourran/reakt/pkg/reakt/observability"
	"github.com/ourran/reakt/pkg/reakt/trace"
)

// MaxPriority is the highest actor priority. Priorities are unique per
// kernel and range over 1..MaxPriority; higher numbers run first.
const MaxPriority = 64

// Kernel owns one runtime instance: the registered active objects, the
// event pools, the publish-subscribe tables, and the priority scheduler.
// Several independent kernels may coexist in one process, which is what
// keeps the runtime unit-testable.
//
// All structural state (ready set, subscriber lists, registrations) is
// guarded by one short-held lock; it is never held across a dispatch
// step.
type Kernel struct {
	id string

	mu      sync.Mutex
	cond    *sync.Cond
	actors  [MaxPriority + 1]*Active
	ready   uint64 // bit p-1 set when actor at priority p has queued events
	nactors int

	subscribers map[event.Signal]uint64 // signal -> bitmask of priorities

	pools event.PoolSet

	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
	sink    trace.Sink
	onDrop  func(actor string, sig event.Signal)

	running bool
	steps   uint64
}

// New creates a kernel. Register pools and start actors before calling
// Run or Drain.
func New(opts ...Option) *Kernel {
	k := &Kernel{
		id:          uuid.New().String(),
		subscribers: make(map[event.Signal]uint64),
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		sink:        trace.NopSink{},
	}
	k.cond = sync.NewCond(&k.mu)
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// ID returns the kernel instance ID.
func (k *Kernel) ID() string { return k.id }

// RegisterPool creates an event pool over the supplied storage and adds
// it to the kernel's pool set. Pools must be registered in
// non-decreasing block-size order, before any allocation.
func (k *Kernel) RegisterPool(storage []byte, blockSize int) error {
	p, err := event.NewPool(storage, blockSize)
	if err != nil {
		return err
	}
	return k.pools.Register(p)
}

// NewEvent allocates a dynamic event of the given total size from the
// smallest suitable pool. Panics on exhaustion; exhaustion means the
// pools are undersized, which is a configuration error.
func (k *Kernel) NewEvent(sig event.Signal, size int) *event.Event {
	return k.pools.New(sig, size)
}

// TryNewEvent is the best-effort variant of NewEvent for call sites with
// their own backpressure policy.
func (k *Kernel) TryNewEvent(sig event.Signal, size int) (*event.Event, bool) {
	return k.pools.TryNew(sig, size)
}

// Pools returns the registered event pools, smallest block size first.
func (k *Kernel) Pools() []*event.Pool {
	return k.pools.Pools()
}

// Actor returns the active object registered at the given priority, or
// nil.
func (k *Kernel) Actor(priority uint8) *Active {
	if priority < 1 || priority > MaxPriority {
		return nil
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.actors[priority]
}

// register adds a started actor at its priority slot.
func (k *Kernel) register(a *Active) error {
	if a.prio < 1 || a.prio > MaxPriority {
		return fmt.Errorf("start %s: %w (got %d, want 1..%d)", a.name, ErrPriorityRange, a.prio, MaxPriority)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.actors[a.prio] != nil {
		return fmt.Errorf("start %s: %w (priority %d held by %s)", a.name, ErrPriorityInUse, a.prio, k.actors[a.prio].name)
	}
	k.actors[a.prio] = a
	k.nactors++
	return nil
}

// unregister removes a stopped actor.
func (k *Kernel) unregister(a *Active) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.actors[a.prio] == a {
		k.actors[a.prio] = nil
		k.ready &^= 1 << (a.prio - 1)
		k.nactors--
	}
}

// markReady flags the actor's priority in the ready set and wakes the
// scheduling loop. Called after every successful post.
func (k *Kernel) markReady(prio uint8) {
	k.mu.Lock()
	k.ready |= 1 << (prio - 1)
	k.cond.Signal()
	k.mu.Unlock()
}

// drop reports a rejected best-effort post or an event no state
// handled.
func (k *Kernel) drop(actor string, sig event.Signal, reason string) {
	observability.LogEventDropped(k.logger, actor, sig, reason)
	if k.onDrop != nil {
		k.onDrop(actor, sig)
	}
}
