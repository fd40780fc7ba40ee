// Package trace defines the instrumentation hook of the runtime: a
// structured record emitted by the state machine engine on every state
// entry, state exit, initial transition, and transition taken.
//
// The engine only guarantees that records fire at the correct points and
// in the correct order. What happens to them is the sink's business:
// NopSink discards, MemorySink collects for tests and interleaving
// assertions, SQLiteSink persists for offline inspection.
package trace

import (
	"sync"
	"time"
)

// Kind classifies an instrumentation record.
type Kind uint8

const (
	// KindEntry records a state entry action.
	KindEntry Kind = iota

	// KindExit records a state exit action.
	KindExit

	// KindInitial records a nested initial transition being taken.
	KindInitial

	// KindTransition records a state transition being taken.
	KindTransition
)

// String returns the record kind as a short stable label.
func (k Kind) String() string {
	switch k {
	case KindEntry:
		return "entry"
	case KindExit:
		return "exit"
	case KindInitial:
		return "initial"
	case KindTransition:
		return "transition"
	default:
		return "unknown"
	}
}

// Record is one instrumentation event.
type Record struct {
	Kind      Kind
	Actor     string
	From      string
	To        string
	Timestamp time.Time
}

// Sink receives instrumentation records. Implementations must be safe
// for concurrent use and must not block for unbounded time: Emit is
// called from inside dispatch steps.
type Sink interface {
	Emit(rec Record)
}

// NopSink discards all records.
type NopSink struct{}

// Emit does nothing.
func (NopSink) Emit(Record) {}

// MemorySink collects records in order. Intended for tests, where the
// recorded sequence doubles as an interleaving trace.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// Emit appends the record.
func (s *MemorySink) Emit(rec Record) {
	s.mu.Lock()
	s.records = append(s.records, rec)
	s.mu.Unlock()
}

// Records returns a copy of everything emitted so far.
func (s *MemorySink) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Reset discards all collected records.
func (s *MemorySink) Reset() {
	s.mu.Lock()
	s.records = s.records[:0]
	s.mu.Unlock()
}
