package application

import (
	"context"
	"fmt"
	"slices"

	"github.com/ahrav/go-grader/internal/domain"
	"github.com/ahrav/go-grader/internal/ports"
)

var _ ports.TestCase = (*TestSpec)(nil)

// TestSpec is a declared battery test: a check body plus the scoring
// fields and presentation applied to its record before the body runs.
type TestSpec struct {
	name         string
	displayName  string
	maxScore     *float64
	weight       *float64
	extraScore   *float64
	hidden       bool
	descriptions []string
	check        ports.CheckFunc
}

// TestOption configures a TestSpec.
type TestOption func(*TestSpec)

// WithMaxScore gives the test a fixed point value.
func WithMaxScore(v float64) TestOption { return func(t *TestSpec) { t.maxScore = &v } }

// WithWeight gives the test a share of the points left after fixed tests.
func WithWeight(v float64) TestOption { return func(t *TestSpec) { t.weight = &v } }

// WithExtraScore sets the score awarded on a pass in place of the max score.
func WithExtraScore(v float64) TestOption { return func(t *TestSpec) { t.extraScore = &v } }

// WithDisplayName sets the human-readable name shown in reports.
func WithDisplayName(name string) TestOption { return func(t *TestSpec) { t.displayName = name } }

// WithDescription appends description lines.
func WithDescription(lines ...string) TestOption {
	return func(t *TestSpec) { t.descriptions = append(t.descriptions, lines...) }
}

// Hidden hides the test's record from students.
func Hidden() TestOption { return func(t *TestSpec) { t.hidden = true } }

// NewTestCase declares a test. It rejects negative or non-finite scoring
// values and a test that carries both a max score and a weight.
func NewTestCase(name string, check ports.CheckFunc, opts ...TestOption) (*TestSpec, error) {
	if name == "" {
		return nil, fmt.Errorf("test name cannot be empty")
	}
	if check == nil {
		return nil, fmt.Errorf("test %s: %w", name, ErrNilUnit)
	}

	t := &TestSpec{name: name, check: check}
	for _, opt := range opts {
		opt(t)
	}

	verr := domain.NewValidationError("test " + name)
	for field, v := range map[string]*float64{
		"max_score":   t.maxScore,
		"weight":      t.weight,
		"extra_score": t.extraScore,
	} {
		if v != nil && !domain.IsValidScoreValue(*v) {
			verr.AddError(fmt.Sprintf("%s must be finite and non-negative, got %g", field, *v))
		}
	}
	if t.maxScore != nil && t.weight != nil {
		verr.AddError("max_score and weight are mutually exclusive")
	}
	if verr.HasErrors() {
		slices.Sort(verr.Errors)
		return nil, verr
	}
	return t, nil
}

// Name returns the test identifier.
func (t *TestSpec) Name() string { return t.name }

// NewOutcome creates the test's record with its declared fields applied.
func (t *TestSpec) NewOutcome() (*domain.Outcome, error) {
	res := domain.NewOutcome(t.name)
	res.SetName(t.displayName)
	res.SetHidden(t.hidden)
	res.SetDescriptions(t.descriptions)

	if t.maxScore != nil {
		if err := res.SetMaxScore(*t.maxScore); err != nil {
			return nil, err
		}
	}
	if t.weight != nil {
		if err := res.SetWeight(*t.weight); err != nil {
			return nil, err
		}
	}
	if t.extraScore != nil {
		if err := res.SetExtraScore(*t.extraScore); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Run executes the check body against result. The runner records the
// returned error on result and recovers panics.
func (t *TestSpec) Run(ctx context.Context, result *domain.Outcome) error {
	return t.check(ctx, result)
}
