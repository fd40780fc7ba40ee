package reakt

import (
	"context"
	"fmt"
	"math/bits"

	"github.com/ourran/reakt/pkg/reakt/event"
	"github.com/ourran/reakt/pkg/reakt/observability"
)

// Publish-subscribe: each signal maps to a bitmask of subscribed
// priorities. The whole multicast runs under the kernel lock, so no
// subscriber can begin dispatching the event while the fan-out is in
// progress; every subscriber observes it logically at once.

// Publish multicasts e to every actor currently subscribed to e.Sig,
// highest priority first. Each delivery retains the event; a publish
// with no subscribers consumes the reference and recycles a dynamic
// event immediately. A full subscriber queue is fatal, as with Post.
func (k *Kernel) Publish(e *event.Event) {
	k.mu.Lock()
	mask := k.subscribers[e.Sig]
	fanout := 0
	for m := mask; m != 0; {
		prio := highestBit(m)
		m &^= 1 << (prio - 1)
		a := k.actors[prio]
		if a == nil {
			continue
		}
		if !a.queue.PostFIFO(e) {
			k.mu.Unlock()
			panic(&PostError{Actor: a.name, Op: "publish", Err: ErrQueueFull})
		}
		k.ready |= 1 << (prio - 1)
		fanout++
	}
	if fanout > 0 {
		k.cond.Signal()
	}
	k.mu.Unlock()

	if fanout == 0 {
		e.Release()
	}
	k.metrics.RecordPublish(context.Background(), e.Sig, fanout)
	observability.LogPublish(k.logger, e.Sig, fanout)
}

// subscribe adds the actor's priority to the signal's subscriber set.
// Reserved signals cannot be subscribed to.
func (k *Kernel) subscribe(a *Active, sig event.Signal) {
	if sig.IsReserved() {
		panic(fmt.Sprintf("reakt: cannot subscribe %s to reserved signal %d", a.name, sig))
	}
	k.mu.Lock()
	k.subscribers[sig] |= 1 << (a.prio - 1)
	k.mu.Unlock()
}

func (k *Kernel) unsubscribe(a *Active, sig event.Signal) {
	k.mu.Lock()
	k.subscribers[sig] &^= 1 << (a.prio - 1)
	k.mu.Unlock()
}

func (k *Kernel) unsubscribeAll(a *Active) {
	k.mu.Lock()
	for sig := range k.subscribers {
		k.subscribers[sig] &^= 1 << (a.prio - 1)
	}
	k.mu.Unlock()
}

// Subscribers returns the priorities currently subscribed to sig, in
// descending order.
func (k *Kernel) Subscribers(sig event.Signal) []uint8 {
	k.mu.Lock()
	mask := k.subscribers[sig]
	k.mu.Unlock()

	var out []uint8
	for m := mask; m != 0; {
		prio := highestBit(m)
		m &^= 1 << (prio - 1)
		out = append(out, prio)
	}
	return out
}

// highestBit returns the 1-based position of the highest set bit of a
// non-zero mask.
func highestBit(m uint64) uint8 {
	return uint8(bits.Len64(m))
}
