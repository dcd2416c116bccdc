// Package apperr defines the failure kinds returned by the resolution engine
// and the message channel. Callers match kinds with errors.Is.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidInput = errors.New("invalid input")
	ErrStorage      = errors.New("storage failure")
)

// Error is a failure of a known kind with a human-readable message and an
// optional underlying cause.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind.Error()
	if e.Msg != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFound reports an unresolved item, claim or message id.
func NotFound(format string, args ...any) error { return newf(ErrNotFound, format, args...) }

// Forbidden reports an actor lacking rights for a mutation.
func Forbidden(format string, args ...any) error { return newf(ErrForbidden, format, args...) }

// InvalidState reports a transition that is illegal from the current state.
func InvalidState(format string, args ...any) error { return newf(ErrInvalidState, format, args...) }

// InvalidInput reports a malformed or empty required field.
func InvalidInput(format string, args ...any) error { return newf(ErrInvalidInput, format, args...) }

// Storage wraps an error from the underlying store. Errors that already carry
// a kind and context cancellation errors are returned unchanged.
func Storage(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: ErrStorage, Msg: op, Err: err}
}

// Kind returns the failure kind of err, or nil if err carries none.
func Kind(err error) error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return nil
}
