package leadtrack

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/leadtrack/pkg/leadtrack/destination"
	"github.com/randalmurphal/leadtrack/pkg/leadtrack/normalize"
)

// Sentinel errors. None of them is ever returned to a dispatch caller; they
// appear as skip reasons in a Report and in logs.
var (
	// ErrNoWindow indicates the tracker has no window or document to
	// bootstrap into, as in server-side rendering.
	ErrNoWindow = errors.New("no window or document")

	// ErrDestinationNotLoaded indicates a destination's global function
	// has not been installed by its loader yet.
	ErrDestinationNotLoaded = destination.ErrDestinationNotLoaded

	// ErrQueueUnavailable indicates the shared event queue does not exist.
	ErrQueueUnavailable = destination.ErrQueueUnavailable
)

// AdapterError wraps a failure reported by an adapter.
type AdapterError struct {
	// Adapter is the adapter name.
	Adapter string
	// Event is the event being dispatched.
	Event normalize.Kind
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s failed on %s: %v", e.Adapter, e.Event, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *AdapterError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside an adapter.
// It includes the stack trace for debugging.
type PanicError struct {
	// Adapter is the adapter that panicked.
	Adapter string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("adapter %s panicked: %v", e.Adapter, e.Value)
}
