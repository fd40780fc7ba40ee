package reakt

import (
	"sync"
	"time"

	"github.com/ourran/reakt/pkg/reakt/event"
)

// TimeEvent is a time-based event producer: armed with a delay (and an
// optional repeat interval) it posts its signal to one actor, or
// publishes it kernel-wide, on every expiry. To the runtime core it is
// an ordinary producer; expiry delivery follows the same queue and
// priority rules as any other post.
//
// The produced event is a static instance owned by the TimeEvent, so
// arming and expiring allocate nothing.
type TimeEvent struct {
	evt    *event.Event
	kernel *Kernel
	target *Active // nil means publish

	mu       sync.Mutex
	timer    *time.Timer
	interval time.Duration
	armed    bool
}

// NewTimeEvent creates a time event producing sig. If target is nil the
// signal is published to subscribers; otherwise it is posted directly
// to target.
func NewTimeEvent(k *Kernel, sig event.Signal, target *Active) *TimeEvent {
	if sig.IsReserved() {
		panic("reakt: time event cannot carry a reserved signal")
	}
	return &TimeEvent{
		evt:    event.Static(sig),
		kernel: k,
		target: target,
	}
}

// Arm schedules the first expiry after the given delay. A non-zero
// interval re-arms the event after every expiry until Disarm. Arming an
// already armed time event is a programming error and panics.
func (t *TimeEvent) Arm(delay, interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.armed {
		panic("reakt: time event armed twice")
	}
	t.armed = true
	t.interval = interval
	t.timer = time.AfterFunc(delay, t.expire)
}

// Disarm cancels a pending expiry. Reports false when the event was not
// armed (or had already fired its one-shot).
func (t *TimeEvent) Disarm() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return false
	}
	t.armed = false
	t.timer.Stop()
	return true
}

// Rearm restarts the delay of an armed one-shot, or arms a disarmed
// one with the given delay. Reports whether the event was armed before
// the call.
func (t *TimeEvent) Rearm(delay time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	was := t.armed
	if t.armed {
		t.timer.Reset(delay)
		return was
	}
	t.armed = true
	t.timer = time.AfterFunc(delay, t.expire)
	return was
}

// Armed reports whether an expiry is pending.
func (t *TimeEvent) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}

func (t *TimeEvent) expire() {
	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return
	}
	if t.interval > 0 {
		t.timer.Reset(t.interval)
	} else {
		t.armed = false
	}
	t.mu.Unlock()

	if t.target != nil {
		t.target.Post(t.evt)
		return
	}
	t.kernel.Publish(t.evt)
}
