// Package hsm implements the hierarchical state machine engine of the
// runtime: a state topology compiled into an arena of descriptors with
// parent links, and a dispatch engine executing run-to-completion
// semantics with least-common-ancestor transition resolution.
//
// States are identified by small integer IDs chosen by the application.
// A state's behavior is a handler returning one of four outcomes:
//
//   - Handled():        the event is consumed, no state change
//   - Ignored():        the event propagates to the parent state
//   - TransitionTo(t):  a transition to state t is taken
//   - InitialTo(t):     answer to an init probe, naming the substate to
//     drill into (valid only for the InitSig probe)
//
// Entry, exit, and init hooks reach the handler as events carrying the
// reserved EntrySig, ExitSig, and InitSig signals; those never propagate
// to ancestors.
package hsm

// StateID identifies a state within a topology.
type StateID int

// Top is the implicit root of every topology. It has no handler and
// silently drops events that no ancestor handled.
const Top StateID = 0

// MaxDepth bounds state nesting and the length of every ancestor walk.
// Topologies deeper than this fail to compile; init chains longer than
// this indicate a loop and are fatal.
const MaxDepth = 16

type outcomeKind uint8

const (
	kindHandled outcomeKind = iota
	kindIgnored
	kindTransition
	kindInitial
)

// Outcome is a state handler's verdict on one event.
type Outcome struct {
	kind   outcomeKind
	target StateID
}

// Handled reports the event as consumed with no transition.
func Handled() Outcome {
	return Outcome{kind: kindHandled}
}

// Ignored propagates the event to the parent state. An event ignored by
// every ancestor is silently dropped; that is a normal outcome, not an
// error.
func Ignored() Outcome {
	return Outcome{kind: kindIgnored}
}

// TransitionTo requests a transition to the target state.
func TransitionTo(target StateID) Outcome {
	return Outcome{kind: kindTransition, target: target}
}

// InitialTo names the substate a composite state drills into when it
// becomes the target of a transition. Only meaningful as the answer to
// an InitSig probe; returning it for any other signal is a topology bug
// and fatal.
func InitialTo(target StateID) Outcome {
	return Outcome{kind: kindInitial, target: target}
}
