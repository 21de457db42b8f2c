package application

import (
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/ahrav/go-grader/internal/domain"
)

// Declaration and loading errors.
var (
	// ErrBuilderConsumed indicates a ProblemBuilder was used after Build.
	ErrBuilderConsumed = errors.New("problem builder already consumed")

	// ErrNilUnit indicates a nil test, hook or body was declared.
	ErrNilUnit = errors.New("nil unit")
)

// PanicError is the failure recorded for a unit whose body panicked.
type PanicError struct {
	// Unit is the test or hook name.
	Unit string

	// Value is the recovered panic value.
	Value any

	// Stack is the goroutine stack at the point of recovery.
	Stack []byte
}

// Error implements the error interface for PanicError.
func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Unit, e.Value)
}

// safeCall runs fn and converts a panic into a *PanicError.
func safeCall(unit string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Unit: unit, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// recordFailure captures a user-level failure on res. Assertion failures
// mark the record failed; anything else marks it errored.
func recordFailure(res *domain.Outcome, err error) {
	if res == nil || err == nil {
		return
	}
	res.AddError(err)

	var assertion *domain.AssertionError
	if !errors.As(err, &assertion) {
		res.SetStatus(domain.StatusErrored)
	}
}
