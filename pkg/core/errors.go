package core

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure surfaced by a pipeline stage wraps exactly one
// of these so callers can classify it with errors.Is.
var (
	// ErrLoad is returned when an input file is missing or unreadable.
	ErrLoad = errors.New("load error")
	// ErrSchema is returned when an expected column or table is absent.
	ErrSchema = errors.New("schema error")
	// ErrParse is returned when a date or numeric value cannot be parsed.
	ErrParse = errors.New("parse error")
	// ErrWrite is returned on destination schema mismatch or write failure.
	ErrWrite = errors.New("write error")
	// ErrQuery is returned when a read-only query is malformed or fails.
	ErrQuery = errors.New("query error")
	// ErrVerification is returned after a run whose verification checks failed.
	ErrVerification = errors.New("verification failed")
)

// Error carries the kind of a stage failure, the operation that failed and
// the underlying cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Errorf builds an *Error of the given kind with a formatted cause.
// The format may use %w to keep the cause inspectable.
func Errorf(kind error, op string, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap builds an *Error of the given kind around err. A nil err yields nil.
func Wrap(kind error, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the error kind carried by err, or nil when err is not a
// classified stage error.
func KindOf(err error) error {
	for _, kind := range []error{ErrLoad, ErrSchema, ErrParse, ErrWrite, ErrQuery, ErrVerification} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
