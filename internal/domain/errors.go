package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Common domain errors that can occur while recording outcomes and
// synthesizing a grade. Every synthesis rule violation wraps exactly one
// of these sentinels so callers can branch with errors.Is.
var (
	// ErrAmbiguousAllocation indicates that a record carries both a max
	// score and a weight, so there is no single way to allocate its points.
	ErrAmbiguousAllocation = errors.New("max score and weight are both set")

	// ErrUnscoreable indicates that a record has no max score, no weight
	// and no score set by a custom check.
	ErrUnscoreable = errors.New("max score, weight and score are all unset")

	// ErrOverAllocated indicates that the fixed max scores add up to more
	// than the total score of the assignment.
	ErrOverAllocated = errors.New("fixed max scores exceed the total score")

	// ErrNegativeScore indicates that a score set by a custom check is
	// negative.
	ErrNegativeScore = errors.New("negative score")

	// ErrAmbiguousExtraScore indicates that a record carries both a score
	// set by a custom check and an extra score.
	ErrAmbiguousExtraScore = errors.New("extra score set alongside a custom score")

	// ErrEmptyWeightPool indicates that weighted records exist but their
	// weights sum to zero.
	ErrEmptyWeightPool = errors.New("weighted records have zero total weight")

	// ErrInvalidTotalScore indicates that the total score is negative,
	// NaN or infinite.
	ErrInvalidTotalScore = errors.New("invalid total score")

	// ErrTotalScoreUnavailable indicates that neither an explicit total
	// score nor submission metadata was provided.
	ErrTotalScoreUnavailable = errors.New("total score and submission metadata are both unset")

	// ErrMissingOutcome indicates that a hook declared as a test case did
	// not hand an outcome record back to the runner.
	ErrMissingOutcome = errors.New("outcome-producing hook returned no outcome")

	// ErrNegativeValue indicates that a scoring field was given a negative
	// value.
	ErrNegativeValue = errors.New("value must be non-negative")

	// ErrNonFiniteValue indicates that a scoring field, or a sum of them,
	// is NaN or infinite.
	ErrNonFiniteValue = errors.New("value must be finite")

	// ErrOutcomeFinalized indicates an attempt to change a scoring field
	// after the synthesizer resolved the record's score.
	ErrOutcomeFinalized = errors.New("outcome scoring fields are finalized")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// InternalError reports a defect in the scoring configuration or in the
// runner's own bookkeeping. It is fatal for the run: no score is produced
// when one is returned. InternalErrors are meant for the operator, not the
// student.
type InternalError struct {
	// Record is the rich name of the offending record. It is empty when
	// the violation concerns the result set as a whole.
	Record string

	// Detail carries the numbers involved, if any.
	Detail string

	// Err is the rule that was violated.
	Err error
}

// Error implements the error interface for InternalError.
func (e *InternalError) Error() string {
	var b strings.Builder
	b.WriteString("internal error: ")
	if e.Record != "" {
		fmt.Fprintf(&b, "record=%q, ", e.Record)
	}
	fmt.Fprintf(&b, "err=%v", e.Err)
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the violated rule.
func (e *InternalError) Unwrap() error { return e.Err }

// NewInternalError creates a new InternalError with the given details.
func NewInternalError(record string, err error, detail string) *InternalError {
	return &InternalError{
		Record: record,
		Detail: detail,
		Err:    err,
	}
}

// IsInternalError reports whether err is, or wraps, an InternalError.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}

// ScoreInvariantViolation reports a negative or non-finite value in one of
// a record's scoring fields.
type ScoreInvariantViolation struct {
	// Record is the rich name of the offending record.
	Record string

	// Field names the scoring field, e.g. "max_score".
	Field string

	// Value is the rejected value.
	Value float64
}

// Error implements the error interface for ScoreInvariantViolation.
func (e *ScoreInvariantViolation) Error() string {
	return fmt.Sprintf("score invariant violation: record=%q, field=%s, value=%g",
		e.Record, e.Field, e.Value)
}

// Unwrap returns ErrNonFiniteValue for NaN and infinities and
// ErrNegativeValue otherwise, so callers can match on the sentinel.
func (e *ScoreInvariantViolation) Unwrap() error {
	if math.IsNaN(e.Value) || math.IsInf(e.Value, 0) {
		return ErrNonFiniteValue
	}
	return ErrNegativeValue
}

// AssertionError is the failure a check reports when the submission
// behaves incorrectly. It downgrades a record to failed rather than
// errored.
type AssertionError struct {
	// Message is the human readable failure.
	Message string

	// Expected and Actual are optional renderings of the compared values.
	Expected string
	Actual   string
}

// Error implements the error interface for AssertionError.
func (e *AssertionError) Error() string {
	if e.Expected == "" && e.Actual == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: expected %s, got %s", e.Message, e.Expected, e.Actual)
}

// Detail renders the error for the student-facing report.
func (e *AssertionError) Detail() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Expected != "" {
		b.WriteString("\n  expected: ")
		b.WriteString(e.Expected)
	}
	if e.Actual != "" {
		b.WriteString("\n  actual:   ")
		b.WriteString(e.Actual)
	}
	return b.String()
}

// NewAssertionError creates an AssertionError with the given message.
func NewAssertionError(format string, args ...any) *AssertionError {
	return &AssertionError{Message: fmt.Sprintf(format, args...)}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Unwrap lets ValidationError match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error { return ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
