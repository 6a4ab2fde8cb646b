// Package apperr is the error vocabulary shared by the core services.
// Services return errors carrying a Kind; the HTTP layer maps kinds to
// status codes so the core never depends on transport types.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	// Unknown covers unexpected internal failures (decode errors, bugs).
	Unknown Kind = iota
	// InvalidArgument: malformed or missing required field. Not retried.
	InvalidArgument
	// NotFound: product/hub/driver/vehicle/dispatch absent.
	NotFound
	// InsufficientStock: requested quantity exceeds available stock.
	InsufficientStock
	// InvalidState: operation not allowed in the entity's current state.
	InvalidState
	// Conflict: a concurrent modification won; uniqueness or conditional
	// update races that could not be recovered locally.
	Conflict
	// Unavailable: storage or a collaborator is unreachable. Fatal for the
	// request, not retried by the core.
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case NotFound:
		return "not_found"
	case InsufficientStock:
		return "insufficient_stock"
	case InvalidState:
		return "invalid_state"
	case Conflict:
		return "conflict"
	case Unavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error pairs a kind with a human-readable reason.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap keeps the underlying error for logs while presenting the message.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain; Unknown if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// MessageOf returns the client-facing reason, falling back to a generic
// one so internal details never leak to responses.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
