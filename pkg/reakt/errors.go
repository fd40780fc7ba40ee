package reakt

import (
	"errors"
	"fmt"
)

// Sentinel errors for actor registration and startup.
var (
	// ErrPriorityRange indicates a priority outside 1..MaxPriority.
	ErrPriorityRange = errors.New("priority out of range")

	// ErrPriorityInUse indicates the priority is already registered.
	ErrPriorityInUse = errors.New("priority already in use")

	// ErrAlreadyStarted indicates Start() was called twice on one actor.
	ErrAlreadyStarted = errors.New("actor already started")

	// ErrNotStarted indicates an operation that requires a started actor.
	ErrNotStarted = errors.New("actor not started")
)

// Sentinel errors for the scheduling loop.
var (
	// ErrKernelRunning indicates Run() was called while already running.
	ErrKernelRunning = errors.New("kernel already running")
)

// PostError wraps a failed post with actor context.
type PostError struct {
	// Actor is the destination active object.
	Actor string
	// Op is the operation that failed ("post", "postLIFO", "recall", "publish").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PostError) Error() string {
	return fmt.Sprintf("%s to %s: %v", e.Op, e.Actor, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *PostError) Unwrap() error {
	return e.Err
}

// ErrQueueFull indicates a bounded event queue rejected an insert.
// The fatal post paths panic with a PostError wrapping it; the Try
// paths report it to the drop handler instead.
var ErrQueueFull = errors.New("event queue full")
