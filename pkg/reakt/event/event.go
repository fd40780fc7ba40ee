package event

// Event is an immutable tagged value delivered to active objects.
//
// A static event has no backing pool and no meaningful reference count;
// Retain and Release are no-ops on it, so the same instance may be posted
// any number of times. A dynamic event is allocated from a Pool, travels
// by reference, and is returned to its pool exactly once, when the last
// holder releases it.
type Event struct {
	// Sig names the meaning of the event.
	Sig Signal

	pool   *Pool // nil for static events
	block  int   // block index within pool
	refCnt int32 // guarded by pool.mu
	data   []byte
}

// Static returns a payload-less static event for the given signal.
// Static events are shared, never pooled, and never freed.
func Static(sig Signal) *Event {
	return &Event{Sig: sig}
}

// IsStatic reports whether e lives outside any pool.
func (e *Event) IsStatic() bool {
	return e.pool == nil
}

// Data returns the payload buffer of a dynamic event, or nil for a
// static event. The buffer is valid until the event is released.
func (e *Event) Data() []byte {
	return e.data
}

// RefCount returns the current reference count. Static events report 0.
func (e *Event) RefCount() int32 {
	if e.pool == nil {
		return 0
	}
	e.pool.mu.Lock()
	defer e.pool.mu.Unlock()
	return e.refCnt
}

// Retain adds one reference to a dynamic event. No-op on static events.
// Called by every structure that stores the event (queues, deferred
// queues, publish fan-out).
func (e *Event) Retain() {
	if e.pool == nil {
		return
	}
	e.pool.mu.Lock()
	e.refCnt++
	e.pool.mu.Unlock()
}

// Release drops one reference. When the count indicates no remaining
// holder the block is handed back to its pool. No-op on static events.
//
// The caller discipline is the usual one: each Retain is paired with
// exactly one Release, plus one final Release by whoever consumed the
// event last (the dispatcher after a run-to-completion step, or the
// publisher when there were no subscribers).
func (e *Event) Release() {
	if e.pool == nil {
		return
	}
	e.pool.mu.Lock()
	if e.refCnt > 1 {
		e.refCnt--
		e.pool.mu.Unlock()
		return
	}
	e.refCnt = 0
	e.pool.freeLocked(e.block)
	e.pool.mu.Unlock()
}
