// Package domain contains pure, dependency-free domain models and the
// score synthesis rules for the grading engine.
package domain

import (
	"errors"
	"math"
	"slices"
	"strings"
)

// PassStatus is the pass state of a single test or hook outcome.
type PassStatus string

// Supported pass states. A fresh outcome starts as StatusPassed and is only
// ever downgraded by its owning check.
const (
	StatusPassed  PassStatus = "passed"
	StatusFailed  PassStatus = "failed"
	StatusErrored PassStatus = "errored"
)

// Passed reports whether s counts as a pass when resolving scores.
func (s PassStatus) Passed() bool { return s == StatusPassed }

// DetailedError is implemented by errors that render a richer,
// student-facing description than their Error string.
type DetailedError interface {
	error
	Detail() string
}

// FormatError renders err for a report, preferring Detail when available.
func FormatError(err error) string {
	var de DetailedError
	if errors.As(err, &de) {
		return de.Detail()
	}
	return err.Error()
}

// Outcome is the mutable result of one test case or outcome-producing hook.
// It carries the identity of the unit, its scoring fields, its pass status
// and the diagnostics collected while it ran.
//
// An Outcome is owned by exactly one execution context and is never
// mutated concurrently. Once the synthesizer resolves its score the scoring
// fields are frozen and the setters return ErrOutcomeFinalized.
type Outcome struct {
	defaultName string
	name        string

	score      *float64
	maxScore   *float64
	weight     *float64
	extraScore *float64

	errors       []error
	status       PassStatus
	hidden       bool
	descriptions []string

	// finalized is set once the synthesizer resolved score. A score set
	// by a custom check leaves it false.
	finalized bool
}

// NewOutcome creates an Outcome with the given fallback name. The record
// starts out passed, visible and without any scoring information.
func NewOutcome(defaultName string) *Outcome {
	return &Outcome{
		defaultName: defaultName,
		status:      StatusPassed,
	}
}

// DefaultName returns the name the record was created with.
func (o *Outcome) DefaultName() string { return o.defaultName }

// Name returns the display override, or "" when none was set.
func (o *Outcome) Name() string { return o.name }

// SetName sets the display override.
func (o *Outcome) SetName(name string) { o.name = name }

// RichName concatenates the display override with the default name.
func (o *Outcome) RichName() string {
	if o.name == "" {
		return o.defaultName
	}
	return o.name + " " + o.defaultName
}

// Descriptions returns a copy of the free-text notes.
func (o *Outcome) Descriptions() []string { return slices.Clone(o.descriptions) }

// AddDescription appends notes to the record.
func (o *Outcome) AddDescription(details ...string) {
	o.descriptions = append(o.descriptions, details...)
}

// SetDescriptions replaces all notes on the record.
func (o *Outcome) SetDescriptions(details []string) {
	o.descriptions = slices.Clone(details)
}

// Hidden reports whether the record is hidden from the student.
func (o *Outcome) Hidden() bool { return o.hidden }

// SetHidden sets the visibility flag.
func (o *Outcome) SetHidden(hidden bool) { o.hidden = hidden }

// Status returns the pass status.
func (o *Outcome) Status() PassStatus { return o.status }

// SetStatus overrides the pass status.
func (o *Outcome) SetStatus(status PassStatus) { o.status = status }

// Errors returns a copy of the collected errors in the order they were added.
func (o *Outcome) Errors() []error { return slices.Clone(o.errors) }

// AddError appends err and downgrades a passed record to failed. An errored
// record stays errored.
func (o *Outcome) AddError(err error) { o.addError(err, true) }

// AddErrorKeepStatus appends err without touching the pass status.
func (o *Outcome) AddErrorKeepStatus(err error) { o.addError(err, false) }

func (o *Outcome) addError(err error, downgrade bool) {
	if err == nil {
		return
	}
	o.errors = append(o.errors, err)
	if downgrade && o.status == StatusPassed {
		o.status = StatusFailed
	}
}

// Score returns the resolved or custom-set score.
func (o *Outcome) Score() (float64, bool) { return deref(o.score) }

// MaxScore returns the absolute ceiling of the record.
func (o *Outcome) MaxScore() (float64, bool) { return deref(o.maxScore) }

// Weight returns the relative share of the remaining score pool.
func (o *Outcome) Weight() (float64, bool) { return deref(o.weight) }

// ExtraScore returns the extra-credit score used instead of the max score
// when the record passes.
func (o *Outcome) ExtraScore() (float64, bool) { return deref(o.extraScore) }

// Finalized reports whether the synthesizer has resolved the score.
func (o *Outcome) Finalized() bool { return o.finalized }

// SetScore sets the score directly, as a custom check does. A record with a
// custom score is passed through the synthesizer untouched.
func (o *Outcome) SetScore(score float64) error { return o.setField("score", &o.score, score) }

// SetMaxScore sets the absolute ceiling of the record.
func (o *Outcome) SetMaxScore(maxScore float64) error {
	return o.setField("max_score", &o.maxScore, maxScore)
}

// SetWeight sets the relative share of the remaining score pool.
func (o *Outcome) SetWeight(weight float64) error { return o.setField("weight", &o.weight, weight) }

// SetExtraScore sets the extra-credit score.
func (o *Outcome) SetExtraScore(extraScore float64) error {
	return o.setField("extra_score", &o.extraScore, extraScore)
}

func (o *Outcome) setField(field string, dst **float64, v float64) error {
	if o.finalized {
		return ErrOutcomeFinalized
	}
	if !IsValidScoreValue(v) {
		return &ScoreInvariantViolation{Record: o.RichName(), Field: field, Value: v}
	}
	*dst = &v
	return nil
}

// IsValidScoreValue reports whether v may be stored in a scoring field:
// finite and non-negative.
func IsValidScoreValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

// CheckValid verifies that every set scoring field is finite and
// non-negative.
func (o *Outcome) CheckValid() error {
	fields := []struct {
		name string
		v    *float64
	}{
		{"score", o.score},
		{"max_score", o.maxScore},
		{"weight", o.weight},
		{"extra_score", o.extraScore},
	}
	for _, f := range fields {
		if f.v != nil && !IsValidScoreValue(*f.v) {
			return &ScoreInvariantViolation{Record: o.RichName(), Field: f.name, Value: *f.v}
		}
	}
	return nil
}

// RichOutput renders the descriptions followed by the formatted errors.
func (o *Outcome) RichOutput() string {
	var b strings.Builder
	b.WriteString("Description(s): ")
	b.WriteString(strings.Join(o.descriptions, "\n"))
	b.WriteString("\nError(s): \n")
	for i, err := range o.errors {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(FormatError(err))
	}
	return b.String()
}

// allocate turns a weighted record into a fixed one.
func (o *Outcome) allocate(maxScore float64) {
	o.maxScore = &maxScore
	o.weight = nil
}

// finalize stores the resolved score and freezes the scoring fields.
func (o *Outcome) finalize(score float64) {
	o.score = &score
	o.finalized = true
}

func deref(p *float64) (float64, bool) {
	if p == nil {
		return 0, false
	}
	return *p, true
}
