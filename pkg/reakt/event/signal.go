// Package event provides the event model of the reakt runtime: signals,
// reference-counted immutable events, and the fixed-block memory pools
// that back dynamically allocated events.
//
// Events are either static (declared once, never pooled, never freed) or
// dynamic (carved out of a registered Pool and returned to it when the
// last reference is dropped). The reserved signals below are used by the
// state machine engine itself and are never delivered to application
// handlers except through the entry/exit/init hooks.
package event

// Signal identifies the meaning of an event.
type Signal uint16

// Reserved signals. Application signals must start at UserSig.
const (
	// EmptySig marks an unused event slot. Never dispatched.
	EmptySig Signal = iota

	// EntrySig is delivered to a state handler when the state is entered.
	EntrySig

	// ExitSig is delivered to a state handler when the state is exited.
	ExitSig

	// InitSig probes a state for its nested initial transition.
	InitSig

	// UserSig is the first signal available to applications.
	UserSig
)

// IsReserved reports whether s is one of the engine-internal signals.
func (s Signal) IsReserved() bool {
	return s < UserSig
}
