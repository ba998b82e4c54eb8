// Package result provides a two-variant outcome type used at every fallible
// boundary of the hint pipeline: parsing, file access, test execution,
// profile persistence and provider configuration.
//
// A Result is either Ok (carrying a value) or Err (carrying an *Error with a
// Kind and a context string). Results are immutable; composition goes through
// the explicit combinators in this package.
package result

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	ParseError Kind = iota + 1
	FileError
	TestError
	ProfileError
	GraphError
	ValidationError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case FileError:
		return "FileError"
	case TestError:
		return "TestError"
	case ProfileError:
		return "ProfileError"
	case GraphError:
		return "GraphError"
	case ValidationError:
		return "ValidationError"
	default:
		return "UnknownError"
	}
}

// Error is the failure payload of a Result.
type Error struct {
	Kind    Kind
	Context string
	Err     error // optional underlying cause
}

func (e *Error) Error() string {
	if e.Context == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds an Error with the given kind and context message.
func NewError(kind Kind, context string) *Error {
	return &Error{Kind: kind, Context: context}
}

// Wrap builds an Error of the given kind around err. If err already is an
// *Error it is returned unchanged so the original kind survives.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	var re *Error
	if errors.As(err, &re) {
		return re
	}
	return &Error{Kind: kind, Context: err.Error(), Err: err}
}

// KindOf reports the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return 0, false
}

// Result is either Ok(value) or Err(error). The zero value is Ok with the
// zero value of T.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err builds a failed Result.
func Err[T any](kind Kind, context string) Result[T] {
	return Result[T]{err: NewError(kind, context)}
}

// Fail builds a failed Result from an existing Error. A nil error becomes a
// ValidationError so an Err always carries a payload.
func Fail[T any](err *Error) Result[T] {
	if err == nil {
		err = NewError(ValidationError, "nil error")
	}
	return Result[T]{err: err}
}

// From bridges an idiomatic (value, error) pair into a Result. Errors that
// are not already *Error are wrapped with kind.
func From[T any](v T, err error, kind Kind) Result[T] {
	if err != nil {
		return Result[T]{err: Wrap(kind, err)}
	}
	return Ok(v)
}

// IsOk reports whether r is the success variant.
func (r Result[T]) IsOk() bool { return r.err == nil }

// IsErr reports whether r is the failure variant.
func (r Result[T]) IsErr() bool { return r.err != nil }

// Value returns the success value and true, or the zero value and false.
func (r Result[T]) Value() (T, bool) {
	if r.err != nil {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Error returns the failure payload, or nil for Ok.
func (r Result[T]) Error() *Error { return r.err }

// Get converts r back into an idiomatic (value, error) pair.
func (r Result[T]) Get() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}

// UnwrapOr returns the success value, or def on failure.
func (r Result[T]) UnwrapOr(def T) T {
	if r.err != nil {
		return def
	}
	return r.value
}

func (r Result[T]) String() string {
	if r.err != nil {
		return fmt.Sprintf("Err(%s)", r.err)
	}
	return fmt.Sprintf("Ok(%v)", r.value)
}
