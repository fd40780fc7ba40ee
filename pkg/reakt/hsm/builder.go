package hsm

import (
	"errors"
	"fmt"

	"github.com/ourran/reakt/pkg/reakt/event"
)

// Sentinel errors for topology compilation.
var (
	// ErrNoStates indicates Compile() was called on an empty builder.
	ErrNoStates = errors.New("topology has no states")

	// ErrNoInitial indicates Initial() was not called before Compile().
	ErrNoInitial = errors.New("topmost initial transition not set")

	// ErrInitialNotFound indicates the topmost initial target is not a
	// registered state.
	ErrInitialNotFound = errors.New("initial target state not found")

	// ErrParentNotFound indicates a state references an unregistered parent.
	ErrParentNotFound = errors.New("parent state not found")

	// ErrDepthExceeded indicates nesting beyond MaxDepth, which also
	// covers ancestor cycles.
	ErrDepthExceeded = errors.New("state nesting exceeds maximum depth")
)

// maxStates caps the descriptor arena. State IDs are small integers by
// design; anything larger is a misuse of the API.
const maxStates = 256

// Handler is the state-handler contract, polymorphic over the owning
// actor type A. One topology is shared by every instance of A.
type Handler[A any] func(owner A, e *event.Event) Outcome

// Builder assembles a state topology. Like every builder in this module
// it is not safe for concurrent use; build on one goroutine, then share
// the compiled Topology freely.
//
// Example:
//
//	topo, err := hsm.NewTopology[*Oven]().
//	    State(StHeating, "heating", hsm.Top, (*Oven).heating).
//	    State(StToasting, "toasting", StHeating, (*Oven).toasting).
//	    State(StBaking, "baking", StHeating, (*Oven).baking).
//	    Initial(StToasting).
//	    Compile()
type Builder[A any] struct {
	descs   []desc[A]
	byID    map[StateID]int
	initial StateID
	hasInit bool
}

type desc[A any] struct {
	id      StateID
	name    string
	parent  StateID
	handler Handler[A]
}

// NewTopology creates a topology builder for actor type A.
func NewTopology[A any]() *Builder[A] {
	return &Builder[A]{byID: make(map[StateID]int)}
}

// State registers a state with its parent and handler. Use hsm.Top as
// the parent of top-level states. Returns the builder for chaining.
//
// Panics if:
//   - id is Top, negative, or not below the arena cap
//   - name is empty
//   - handler is nil
//   - id is already registered
func (b *Builder[A]) State(id StateID, name string, parent StateID, h Handler[A]) *Builder[A] {
	if id <= Top || id >= maxStates {
		panic(fmt.Sprintf("hsm: state ID must be in 1..%d, got %d", maxStates-1, id))
	}
	if name == "" {
		panic("hsm: state name cannot be empty")
	}
	if h == nil {
		panic("hsm: state handler cannot be nil")
	}
	if _, exists := b.byID[id]; exists {
		panic(fmt.Sprintf("hsm: duplicate state ID: %d (%s)", id, name))
	}

	b.byID[id] = len(b.descs)
	b.descs = append(b.descs, desc[A]{id: id, name: name, parent: parent, handler: h})
	return b
}

// Initial declares the target of the topmost initial transition. The
// target may be nested arbitrarily deep; init enters every state on the
// path root-to-target in order.
func (b *Builder[A]) Initial(target StateID) *Builder[A] {
	b.initial = target
	b.hasInit = true
	return b
}

// Compile validates the topology and freezes it into an immutable
// arena. The state graph must be a tree rooted at Top with depth at
// most MaxDepth; parent links must resolve; the topmost initial target
// must exist.
func (b *Builder[A]) Compile() (*Topology[A], error) {
	if len(b.descs) == 0 {
		return nil, ErrNoStates
	}
	if !b.hasInit {
		return nil, ErrNoInitial
	}
	if _, ok := b.byID[b.initial]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrInitialNotFound, b.initial)
	}

	maxID := StateID(0)
	for _, d := range b.descs {
		if d.id > maxID {
			maxID = d.id
		}
	}

	t := &Topology[A]{
		states:  make([]state[A], maxID+1),
		initial: b.initial,
	}
	for _, d := range b.descs {
		if d.parent != Top {
			if _, ok := b.byID[d.parent]; !ok {
				return nil, fmt.Errorf("%w: state %q references parent %d", ErrParentNotFound, d.name, d.parent)
			}
		}
		t.states[d.id] = state[A]{
			name:    d.name,
			parent:  d.parent,
			handler: d.handler,
			present: true,
		}
	}

	// Depth check doubles as cycle detection: a parent loop never
	// reaches Top within MaxDepth hops.
	for _, d := range b.descs {
		depth := 0
		for s := d.id; s != Top; s = t.states[s].parent {
			depth++
			if depth > MaxDepth {
				return nil, fmt.Errorf("%w: state %q", ErrDepthExceeded, d.name)
			}
		}
		t.states[d.id].depth = depth
	}

	return t, nil
}

// Topology is a compiled, immutable state tree shared by all machine
// instances built over it.
type Topology[A any] struct {
	states  []state[A] // arena indexed by StateID; Top is slot 0
	initial StateID
}

type state[A any] struct {
	name    string
	parent  StateID
	handler Handler[A]
	depth   int
	present bool
}

// Name returns the registered name of a state, or "top" for Top.
func (t *Topology[A]) Name(id StateID) string {
	if id == Top {
		return "top"
	}
	if int(id) < len(t.states) && t.states[id].present {
		return t.states[id].name
	}
	return fmt.Sprintf("state(%d)", id)
}

// Contains reports whether id names a registered state.
func (t *Topology[A]) Contains(id StateID) bool {
	return id > Top && int(id) < len(t.states) && t.states[id].present
}

// Parent returns the parent of a registered state.
func (t *Topology[A]) Parent(id StateID) StateID {
	return t.states[id].parent
}
