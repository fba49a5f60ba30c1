// Package apperr classifies command failures and maps them to exit codes.
package apperr

import (
	"errors"
	"fmt"
)

// Kind is the category of a failure
type Kind int

const (
	KindBackend Kind = iota // generic remote/server error
	KindAuth
	KindNotFound
	KindPermission
	KindValidation
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not-found"
	case KindPermission:
		return "permission"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	default:
		return "backend"
	}
}

// exitCodes maps each kind to the process exit code
var exitCodes = map[Kind]int{
	KindBackend:    1,
	KindNotFound:   1,
	KindPermission: 1,
	KindAuth:       2,
	KindValidation: 3,
	KindConflict:   3,
}

// Error is a classified failure. Err is the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so callers can
// write errors.Is(err, &apperr.Error{Kind: apperr.KindConflict}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// New creates an error of the given kind
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given kind around a cause
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation is shorthand for a local validation failure
func Validation(format string, args ...any) *Error {
	return New(KindValidation, format, args...)
}

// Conflict is shorthand for a stale-baseline failure
func Conflict(format string, args ...any) *Error {
	return New(KindConflict, format, args...)
}

// KindOf returns the kind of err, or KindBackend when err is unclassified
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackend
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// ExitCode maps err to a process exit code. nil maps to 0.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return exitCodes[KindOf(err)]
}
