package ports

import (
	"errors"
	"fmt"
)

// Errors returned by check registries.
var (
	// ErrUnknownCheck indicates that a problem refers to a check that was
	// never registered.
	ErrUnknownCheck = errors.New("unknown check")

	// ErrUnknownHook indicates that a problem refers to a hook that was
	// never registered.
	ErrUnknownHook = errors.New("unknown hook")

	// ErrDuplicateRegistration indicates that a name was registered twice.
	ErrDuplicateRegistration = errors.New("name already registered")

	// ErrUnexpectedParams indicates that a test passes params to a check
	// registered without a factory.
	ErrUnexpectedParams = errors.New("check takes no params")
)

// ReferenceError ties a failed registry lookup, or a check factory that
// rejected its params, to the problem file field involved, for example
// tests[2].check or tests[2].params.
type ReferenceError struct {
	// Field is the path of the offending field within the problem file.
	Field string

	// Err is usually a *LookupError.
	Err error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// NewReferenceError creates a ReferenceError for field.
func NewReferenceError(field string, err error) *ReferenceError {
	return &ReferenceError{Field: field, Err: err}
}

// LookupError reports a registry lookup for a name that does not exist,
// with the closest registered name when one is near enough.
type LookupError struct {
	// Name is the requested name.
	Name string

	// Suggestion is the closest registered name, or "".
	Suggestion string

	// Err is ErrUnknownCheck or ErrUnknownHook.
	Err error
}

// Error implements the error interface for LookupError.
func (e *LookupError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("%v: %q", e.Err, e.Name)
	}
	return fmt.Sprintf("%v: %q (did you mean %q?)", e.Err, e.Name, e.Suggestion)
}

// Unwrap returns the underlying error.
func (e *LookupError) Unwrap() error { return e.Err }
