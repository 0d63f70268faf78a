// Package errs defines the engine's typed error kinds (spec §7). The
// teacher repo never introduces an errors package of its own — every
// failure path in wgpu_renderer_backend.go is a bare errors.New or a
// fmt.Errorf("...: %w", err) — so this package follows that idiom and
// adds only the minimal Kind wrapper spec §7 requires for callers to
// distinguish fatal construction errors from per-frame transient ones.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which of the five error categories spec §7 defines a
// given Error belongs to.
type Kind int

const (
	// UnsupportedDevice: no GPU adapter/device available — fatal at construction.
	UnsupportedDevice Kind = iota

	// CapacityExceeded: a snapshot's live counts exceed the current device's
	// MaxParticles/MaxBeams — surfaced as a load failure; simulation state unchanged.
	CapacityExceeded

	// InvalidConfiguration: non-positive radius or non-positive sub-ticks —
	// rejected at construction.
	InvalidConfiguration

	// Transient: a device submission failed but the device survived — the
	// frame is dropped, the next frame proceeds.
	Transient

	// DeviceLost: treated as terminal; the engine self-destroys.
	DeviceLost
)

// String returns a human-readable name for the Kind.
//
// Returns:
//   - string: the kind's name
func (k Kind) String() string {
	switch k {
	case UnsupportedDevice:
		return "UnsupportedDevice"
	case CapacityExceeded:
		return "CapacityExceeded"
	case InvalidConfiguration:
		return "InvalidConfiguration"
	case Transient:
		return "Transient"
	case DeviceLost:
		return "DeviceLost"
	default:
		return "Unknown"
	}
}

// Error is a typed engine error carrying a Kind and an optional
// underlying cause. It implements the standard error interface and
// supports errors.Is/errors.As via Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
//
// Returns:
//   - string: the formatted error message
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any, enabling errors.Is/errors.As.
//
// Returns:
//   - error: the wrapped cause, or nil
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same Kind, enabling
// errors.Is(err, errs.New(errs.CapacityExceeded, "")) style checks
// against a sentinel of the same kind.
//
// Parameters:
//   - target: the error to compare against
//
// Returns:
//   - bool: true if target is an *Error with the same Kind
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// New creates an *Error of the given Kind with a message and no cause.
//
// Parameters:
//   - kind: the error category
//   - message: a human-readable description
//
// Returns:
//   - *Error: the constructed error
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error of the given Kind, wrapping an underlying cause.
//
// Parameters:
//   - kind: the error category
//   - message: a human-readable description
//   - cause: the underlying error being wrapped
//
// Returns:
//   - *Error: the constructed error
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err is (or wraps) an *Error of the given Kind.
//
// Parameters:
//   - err: the error to inspect
//   - kind: the kind to test for
//
// Returns:
//   - bool: true if err is an *Error of the given Kind
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
