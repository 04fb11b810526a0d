package chaterr

import (
	"errors"
	"fmt"
)

// Kind is the stable category of a chat failure.
type Kind string

const (
	// KindValidation marks input rejected before any side effect.
	KindValidation Kind = "validation"
	// KindExecution marks a plugin or external call that failed.
	KindExecution Kind = "execution"
	// KindPersistence marks stored data that could not be decoded.
	KindPersistence Kind = "persistence"
	// KindLookup marks a plugin name that does not resolve.
	KindLookup Kind = "lookup"
)

// Error is a categorized failure. Detail is the user-visible text.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail == "" {
		return string(e.Kind)
	}

	return e.Detail
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// Is matches any *Error with the same Kind, so errors.Is(err, &Error{Kind: KindLookup}) works.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}

	return other.Detail == "" && other.Err == nil && other.Kind == e.Kind
}

func newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(format string, args ...any) error {
	return newf(KindValidation, format, args...)
}

// Execution creates an execution error.
func Execution(format string, args ...any) error {
	return newf(KindExecution, format, args...)
}

// Lookup creates a lookup error for an unknown plugin name.
func Lookup(name string) error {
	return &Error{Kind: KindLookup, Detail: fmt.Sprintf("Plugin %s not found.", name)}
}

// Persistence wraps a decode failure for the given storage key.
func Persistence(key string, err error) error {
	return &Error{Kind: KindPersistence, Detail: fmt.Sprintf("decode %s: %v", key, err), Err: err}
}

// WrapExecution keeps err in the chain while presenting detail to users.
func WrapExecution(detail string, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: KindExecution, Detail: detail, Err: err}
}

// KindOf returns the category of err. Uncategorized errors count as execution failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var categorized *Error
	if errors.As(err, &categorized) {
		return categorized.Kind
	}

	return KindExecution
}
