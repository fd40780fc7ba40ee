package reakt

import (
	"context"
	"fmt"

	"github.com/ourran/reakt/pkg/reakt/event"
	"github.com/ourran/reakt/pkg/reakt/hsm"
	"github.com/ourran/reakt/pkg/reakt/observability"
	"github.com/ourran/reakt/pkg/reakt/queue"
)

// Active binds one event queue, one state machine instance, and one
// unique priority into an active object. Between dispatch steps an
// active object is always resting in exactly one leaf state; events
// reach it only through its queue, never by direct call.
type Active struct {
	name    string
	machine hsm.Instance

	kernel   *Kernel
	prio     uint8
	queue    *queue.Ring
	deferred *queue.Ring
	started  bool
}

// NewActive creates an active object around a state machine instance.
// It does nothing until Start is called.
func NewActive(name string, m hsm.Instance) *Active {
	if name == "" {
		panic("reakt: active object name cannot be empty")
	}
	if m == nil {
		panic("reakt: active object needs a state machine")
	}
	return &Active{name: name, machine: m}
}

// Name returns the actor's name.
func (a *Active) Name() string { return a.name }

// Priority returns the actor's priority; 0 before Start.
func (a *Active) Priority() uint8 { return a.prio }

// Machine returns the actor's state machine instance.
func (a *Active) Machine() hsm.Instance { return a.machine }

// QueueHighWater returns the maximum queue occupancy observed.
func (a *Active) QueueHighWater() int {
	if a.queue == nil {
		return 0
	}
	return a.queue.HighWater()
}

// Start registers the actor with the kernel at the given priority,
// initializes its event queue over the supplied storage, and runs the
// state machine's topmost initial transition with initEvt (which may be
// nil). Priorities are unique per kernel; duplicates and out-of-range
// values are configuration errors.
func (a *Active) Start(k *Kernel, priority uint8, queueStorage []*event.Event, initEvt *event.Event, opts ...StartOption) error {
	if a.started {
		return fmt.Errorf("start %s: %w", a.name, ErrAlreadyStarted)
	}

	var cfg startConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	q, err := queue.New(queueStorage)
	if err != nil {
		return fmt.Errorf("start %s: %w", a.name, err)
	}

	a.prio = priority
	if err := k.register(a); err != nil {
		return err
	}

	a.kernel = k
	a.queue = q
	if cfg.deferred != nil {
		dq, err := queue.New(cfg.deferred)
		if err != nil {
			k.unregister(a)
			return fmt.Errorf("start %s: deferred queue: %w", a.name, err)
		}
		a.deferred = dq
	}
	a.started = true

	observability.LogActorStart(k.logger, a.name, a.prio, q.Cap())

	a.machine.Bind(a.name, k.sink)
	a.machine.Init(initEvt)
	return nil
}

// Stop unsubscribes the actor from every signal and removes it from the
// kernel. Queued events are released. Embedded targets never tear
// actors down; hosts and tests do.
func (a *Active) Stop() {
	if !a.started {
		return
	}
	a.UnsubscribeAll()
	a.kernel.unregister(a)
	for e := a.queue.Get(); e != nil; e = a.queue.Get() {
		e.Release()
	}
	if a.deferred != nil {
		for e := a.deferred.Get(); e != nil; e = a.deferred.Get() {
			e.Release()
		}
	}
	a.started = false
}

// Post appends e to the actor's queue (FIFO). A full queue is treated as
// fatal: it means the queue is undersized for the load it was given.
// Producers that prefer to drop should use TryPost.
func (a *Active) Post(e *event.Event) {
	if !a.queue.PostFIFO(e) {
		panic(&PostError{Actor: a.name, Op: "post", Err: ErrQueueFull})
	}
	a.notify()
}

// TryPost is the best-effort variant of Post. On rejection the event
// reference is consumed (released) and false is returned; the kernel's
// drop handler, if any, is informed.
func (a *Active) TryPost(e *event.Event) bool {
	if a.queue.PostFIFO(e) {
		a.notify()
		return true
	}
	a.kernel.drop(a.name, e.Sig, "queue full")
	e.Release()
	return false
}

// PostLIFO inserts e at the front of the queue, ahead of everything
// already queued. For urgent events (errors, mode changes) that must be
// the next thing the actor sees. Fatal when full, like Post.
func (a *Active) PostLIFO(e *event.Event) {
	if !a.queue.PostLIFO(e) {
		panic(&PostError{Actor: a.name, Op: "postLIFO", Err: ErrQueueFull})
	}
	a.notify()
}

// PostFromISR posts without ever blocking beyond the queue's short
// critical section, reporting false when the queue is full. This is the
// variant for interrupt-like producer contexts (signal handlers, I/O
// callbacks) where a panic or wait is unacceptable. The event reference
// is consumed either way.
func (a *Active) PostFromISR(e *event.Event) bool {
	return a.TryPost(e)
}

// notify flags this actor ready and samples queue depth for metrics.
func (a *Active) notify() {
	a.kernel.markReady(a.prio)
	a.kernel.metrics.RecordQueueDepth(context.Background(), a.name, a.queue.Len(), a.queue.HighWater())
}

// Subscribe adds the actor to the subscriber set of sig. Published
// events with that signal are fanned out to its queue.
func (a *Active) Subscribe(sig event.Signal) {
	a.mustBeStarted("subscribe")
	a.kernel.subscribe(a, sig)
}

// Unsubscribe removes the actor from the subscriber set of sig.
func (a *Active) Unsubscribe(sig event.Signal) {
	a.mustBeStarted("unsubscribe")
	a.kernel.unsubscribe(a, sig)
}

// UnsubscribeAll removes the actor from every subscriber set.
func (a *Active) UnsubscribeAll() {
	a.mustBeStarted("unsubscribeAll")
	a.kernel.unsubscribeAll(a)
}

// Defer parks e on the actor's deferred queue to be recalled in a later
// state. Reports false when the deferred queue is full. Panics if the
// actor was started without deferred storage.
func (a *Active) Defer(e *event.Event) bool {
	if a.deferred == nil {
		panic(fmt.Sprintf("reakt: %s has no deferred storage (use WithDeferredStorage)", a.name))
	}
	return a.deferred.PostFIFO(e)
}

// Recall moves the oldest deferred event to the front of the actor's
// main queue, making it the next event dispatched. Reports false when
// nothing was deferred; the main queue is untouched in that case.
func (a *Active) Recall() bool {
	if a.deferred == nil {
		return false
	}
	e := a.deferred.Get()
	if e == nil {
		return false
	}
	if !a.queue.PostLIFO(e) {
		panic(&PostError{Actor: a.name, Op: "recall", Err: ErrQueueFull})
	}
	// Ownership moved from the deferred queue to the main queue; the
	// net reference count is unchanged.
	e.Release()
	a.notify()
	return true
}

func (a *Active) mustBeStarted(op string) {
	if !a.started {
		panic(fmt.Sprintf("reakt: %s on %s: %v", op, a.name, ErrNotStarted))
	}
}
