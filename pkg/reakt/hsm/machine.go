package hsm

import (
	"fmt"
	"time"

	"github.com/ourran/reakt/pkg/reakt/event"
	"github.com/ourran/reakt/pkg/reakt/trace"
)

// Reserved probe events delivered through state handlers. Shared static
// instances; handlers must not hold on to them.
var (
	entryEvt = event.Static(event.EntrySig)
	exitEvt  = event.Static(event.ExitSig)
	initEvt  = event.Static(event.InitSig)
)

// Instance is the non-generic view of a state machine held by the
// kernel: one init, one event at a time, run to completion.
type Instance interface {
	// Init executes the topmost initial transition. Must be called
	// exactly once, before any Dispatch.
	Init(e *event.Event)

	// Dispatch delivers one event to the current leaf state and runs
	// the resulting entry/exit/init sequence to completion. Reports
	// whether any state on the ancestor chain handled the event.
	Dispatch(e *event.Event) bool

	// Current returns the current leaf state.
	Current() StateID

	// StateName resolves a state ID to its registered name.
	StateName(id StateID) string

	// Bind attaches the actor label and instrumentation sink. Called by
	// the kernel when the owning active object starts.
	Bind(actor string, sink trace.Sink)
}

// Machine executes one actor's hierarchical state machine over a shared
// compiled topology. Not safe for concurrent use: the run-to-completion
// discipline of the kernel is what serializes access.
type Machine[A any] struct {
	topo    *Topology[A]
	owner   A
	actor   string
	sink    trace.Sink
	cur     StateID
	running bool
}

// New creates a machine for owner over the compiled topology.
func New[A any](topo *Topology[A], owner A) *Machine[A] {
	return &Machine[A]{
		topo:  topo,
		owner: owner,
		actor: "hsm",
		sink:  trace.NopSink{},
		cur:   Top,
	}
}

// Bind implements Instance.
func (m *Machine[A]) Bind(actor string, sink trace.Sink) {
	if actor != "" {
		m.actor = actor
	}
	if sink != nil {
		m.sink = sink
	}
}

// Current implements Instance.
func (m *Machine[A]) Current() StateID { return m.cur }

// StateName implements Instance.
func (m *Machine[A]) StateName(id StateID) string { return m.topo.Name(id) }

// Init executes the topmost initial transition: it enters every state on
// the path from the root to the declared initial target, then follows
// nested initial transitions until a leaf is reached. The optional e is
// forwarded to the first init probe so setup parameters can reach the
// machine; pass nil when there are none.
func (m *Machine[A]) Init(e *event.Event) {
	if m.running {
		panic("hsm: Init called twice")
	}
	m.running = true

	m.emit(trace.KindInitial, Top, m.topo.initial)
	m.enterPath(Top, m.topo.initial)
	m.cur = m.topo.initial
	m.drill(m.topo.initial, e)
}

// Dispatch delivers e to the current leaf state. The handler search
// walks the ancestor chain until some state handles the event; an event
// ignored all the way to the root is dropped, reported by the false
// return so the caller can surface it.
func (m *Machine[A]) Dispatch(e *event.Event) bool {
	if !m.running {
		panic("hsm: Dispatch before Init")
	}

	// Find the handling state.
	src := m.cur
	var out Outcome
	for {
		if src == Top {
			return false // unhandled
		}
		out = m.invoke(src, e)
		if out.kind != kindIgnored {
			break
		}
		src = m.topo.states[src].parent
	}

	switch out.kind {
	case kindHandled:
		// Internal transition: side effects only, no entry/exit.
		return true
	case kindTransition:
		target := out.target
		if !m.topo.Contains(target) {
			panic(fmt.Sprintf("hsm: transition from %q to unregistered state %d", m.topo.Name(src), target))
		}
		m.emit(trace.KindTransition, src, target)
		// Exit from the current leaf up to the handling state.
		for s := m.cur; s != src; s = m.topo.states[s].parent {
			m.exitState(s)
		}
		m.transit(src, target)
		m.drill(target, nil)
		return true
	default:
		panic(fmt.Sprintf("hsm: state %q returned an initial outcome for signal %d", m.topo.Name(src), e.Sig))
	}
}

// transit executes the transition proper from src to target. The same
// least-common-ancestor resolution covers ancestor targets, descendant
// targets, and unrelated branches; the self-transition is the one
// degenerate case, which exits and re-enters the state.
func (m *Machine[A]) transit(src, target StateID) {
	if src == target {
		m.exitState(src)
		m.enterState(src)
		m.cur = target
		return
	}

	lca := m.lca(src, target)
	for s := src; s != lca; s = m.topo.states[s].parent {
		m.exitState(s)
	}
	m.enterPath(lca, target)
	m.cur = target
}

// drill follows nested initial transitions from s down to a leaf. Each
// round probes the state with InitSig; an InitialTo answer names a
// strict descendant to enter. Bounded by MaxDepth as loop protection.
func (m *Machine[A]) drill(s StateID, first *event.Event) {
	probe := first
	if probe == nil {
		probe = initEvt
	}
	for hops := 0; ; hops++ {
		if hops > MaxDepth {
			panic(fmt.Sprintf("hsm: initial transition chain from %q exceeds max depth", m.topo.Name(s)))
		}
		out := m.invoke(s, probe)
		probe = initEvt
		if out.kind != kindInitial {
			return
		}
		child := out.target
		if !m.isDescendant(child, s) {
			panic(fmt.Sprintf("hsm: initial target %q is not nested in %q", m.topo.Name(child), m.topo.Name(s)))
		}
		m.emit(trace.KindInitial, s, child)
		m.enterPath(s, child)
		m.cur = child
		s = child
	}
}

// enterPath enters every state strictly below from on the path down to
// target, in ancestor-to-leaf order.
func (m *Machine[A]) enterPath(from, target StateID) {
	var path [MaxDepth]StateID
	n := 0
	for s := target; s != from; s = m.topo.states[s].parent {
		path[n] = s
		n++
	}
	for i := n - 1; i >= 0; i-- {
		m.enterState(path[i])
	}
}

// lca returns the least common ancestor of a and b, possibly Top.
func (m *Machine[A]) lca(a, b StateID) StateID {
	for m.depth(a) > m.depth(b) {
		a = m.topo.states[a].parent
	}
	for m.depth(b) > m.depth(a) {
		b = m.topo.states[b].parent
	}
	for a != b {
		a = m.topo.states[a].parent
		b = m.topo.states[b].parent
	}
	return a
}

func (m *Machine[A]) depth(s StateID) int {
	if s == Top {
		return 0
	}
	return m.topo.states[s].depth
}

// isDescendant reports whether s is a strict descendant of ancestor.
func (m *Machine[A]) isDescendant(s, ancestor StateID) bool {
	if !m.topo.Contains(s) || s == ancestor {
		return false
	}
	for p := m.topo.states[s].parent; ; p = m.topo.states[p].parent {
		if p == ancestor {
			return true
		}
		if p == Top {
			return ancestor == Top
		}
	}
}

func (m *Machine[A]) enterState(s StateID) {
	out := m.invoke(s, entryEvt)
	if out.kind == kindTransition || out.kind == kindInitial {
		panic(fmt.Sprintf("hsm: entry action of %q attempted a transition", m.topo.Name(s)))
	}
	m.emit(trace.KindEntry, Top, s)
}

func (m *Machine[A]) exitState(s StateID) {
	out := m.invoke(s, exitEvt)
	if out.kind == kindTransition || out.kind == kindInitial {
		panic(fmt.Sprintf("hsm: exit action of %q attempted a transition", m.topo.Name(s)))
	}
	m.emit(trace.KindExit, s, Top)
}

func (m *Machine[A]) invoke(s StateID, e *event.Event) Outcome {
	return m.topo.states[s].handler(m.owner, e)
}

func (m *Machine[A]) emit(kind trace.Kind, from, to StateID) {
	var fromName, toName string
	switch kind {
	case trace.KindEntry:
		toName = m.topo.Name(to)
	case trace.KindExit:
		fromName = m.topo.Name(from)
	default:
		fromName = m.topo.Name(from)
		toName = m.topo.Name(to)
	}
	m.sink.Emit(trace.Record{
		Kind:      kind,
		Actor:     m.actor,
		From:      fromName,
		To:        toName,
		Timestamp: time.Now(),
	})
}
