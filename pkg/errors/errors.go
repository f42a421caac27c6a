// Package errors provides structured error handling for the reactive engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Kind identifies the category of an engine error.
type Kind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown Kind = iota
	// KindReadOnly indicates a write to a variable without write capability.
	KindReadOnly
	// KindTypeMismatch indicates a type-erased downcast failure. These are
	// unreachable through the typed front-end and indicate an internal bug.
	KindTypeMismatch
	// KindShutdown indicates a cross-thread operation after the owning
	// update context shut down.
	KindShutdown
	// KindTimeout indicates a blocking receive that exceeded its deadline.
	KindTimeout
	// KindInternal indicates a broken engine invariant.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindReadOnly:
		return "read-only"
	case KindTypeMismatch:
		return "type-mismatch"
	case KindShutdown:
		return "shutdown"
	case KindTimeout:
		return "timeout"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Sentinel errors returned by variable and channel operations.
// Wrap-aware: test with errors.Is.
var (
	// ErrReadOnly is returned by TrySet/TryModify on a read-only variable.
	ErrReadOnly = stderrors.New("variable is read-only")
	// ErrTypeMismatch is returned when a type-erased handle is downcast to
	// the wrong payload type.
	ErrTypeMismatch = stderrors.New("variable type mismatch")
	// ErrAppShutdown is returned by channel endpoints once the owning
	// Updates context has shut down.
	ErrAppShutdown = stderrors.New("update context has shut down")
	// ErrTimeoutOrShutdown is returned by deadline receives that expired
	// before a value arrived, or observed shutdown first.
	ErrTimeoutOrShutdown = stderrors.New("receive deadline elapsed or context shut down")
)

// VarError represents a structured error in the reactive engine.
type VarError struct {
	// Op is the operation that failed (e.g., "vars.Var.Set").
	Op string
	// Kind categorizes the error.
	Kind Kind
	// Err is the underlying error.
	Err error
	// VarType is the payload type name of the variable, if applicable.
	VarType string
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *VarError) Error() string {
	if e.VarType != "" {
		return fmt.Sprintf("%s [%s] var=%s: %v", e.Op, e.Kind, e.VarType, e.Err)
	}
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *VarError) Unwrap() error {
	return e.Err
}

// New builds a VarError for the given operation and kind.
func New(op string, kind Kind, err error) *VarError {
	return &VarError{Op: op, Kind: kind, Err: err, Timestamp: time.Now()}
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }

// IsReadOnly reports whether err represents a rejected write to a
// read-only variable.
func IsReadOnly(err error) bool { return stderrors.Is(err, ErrReadOnly) }

// IsShutdown reports whether err represents an operation against a
// shut-down update context.
func IsShutdown(err error) bool { return stderrors.Is(err, ErrAppShutdown) }

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "vars.Updates.Apply").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Handler receives errors reported by the engine.
type Handler interface {
	// HandleError is called when an error occurs. Absorbed same-thread
	// write failures arrive here too, so implementations should treat
	// KindReadOnly as a debug-level diagnostic rather than a failure.
	HandleError(err *VarError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
}
