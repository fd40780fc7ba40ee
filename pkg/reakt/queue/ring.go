// Package queue provides the bounded event ring buffer used by every
// active object: FIFO insert for normal posts, front insert for urgent
// posts, and a high-water mark for sizing diagnostics.
//
// The ring operates over caller-supplied storage and never grows. All
// operations hold the ring's own short lock only across the structural
// mutation, never across a dispatch step.
package queue

import (
	"errors"
	"sync"

	"github.com/ourran/reakt/pkg/reakt/event"
)

// ErrNoStorage indicates a ring was created without storage.
var ErrNoStorage = errors.New("ring needs at least one slot of storage")

// Ring is a bounded FIFO of event references with an urgent front-insert
// path. Each successful insert retains the event; Get transfers the
// reference to the caller, who is responsible for the eventual release.
type Ring struct {
	mu        sync.Mutex
	slots     []*event.Event
	head      int // next slot to Get
	tail      int // next slot to PostFIFO
	count     int
	highWater int
}

// New creates a ring over the supplied storage. The capacity is fixed at
// len(storage) for the life of the ring.
func New(storage []*event.Event) (*Ring, error) {
	if len(storage) == 0 {
		return nil, ErrNoStorage
	}
	return &Ring{slots: storage}, nil
}

// PostFIFO appends e at the tail. It reports false when the ring is full;
// the event is retained only on success.
func (r *Ring) PostFIFO(e *event.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == len(r.slots) {
		return false
	}
	r.slots[r.tail] = e
	r.tail++
	if r.tail == len(r.slots) {
		r.tail = 0
	}
	r.bump()
	e.Retain()
	return true
}

// PostLIFO inserts e at the head, ahead of everything already queued.
// Used for urgent events that must be the next one dispatched.
func (r *Ring) PostLIFO(e *event.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == len(r.slots) {
		return false
	}
	r.head--
	if r.head < 0 {
		r.head = len(r.slots) - 1
	}
	r.slots[r.head] = e
	r.bump()
	e.Retain()
	return true
}

// Get pops the event at the head, or nil when the ring is empty. The
// reference held by the ring moves to the caller; no count is changed.
func (r *Ring) Get() *event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.count == 0 {
		return nil
	}
	e := r.slots[r.head]
	r.slots[r.head] = nil
	r.head++
	if r.head == len(r.slots) {
		r.head = 0
	}
	r.count--
	return e
}

// bump increments count and tracks the high-water mark. Caller holds mu.
func (r *Ring) bump() {
	r.count++
	if r.count > r.highWater {
		r.highWater = r.count
	}
}

// Len returns the number of queued events.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap returns the fixed capacity of the ring.
func (r *Ring) Cap() int { return len(r.slots) }

// HighWater returns the maximum occupancy ever observed.
func (r *Ring) HighWater() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.highWater
}
