package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOutcome_Defaults(t *testing.T) {
	o := NewOutcome("test_reverse")

	assert.Equal(t, "test_reverse", o.DefaultName())
	assert.Equal(t, "test_reverse", o.RichName())
	assert.Equal(t, StatusPassed, o.Status())
	assert.False(t, o.Hidden())
	assert.Empty(t, o.Errors())
	assert.Empty(t, o.Descriptions())

	for _, get := range []func() (float64, bool){o.Score, o.MaxScore, o.Weight, o.ExtraScore} {
		_, ok := get()
		assert.False(t, ok)
	}
}

func TestOutcome_RichName(t *testing.T) {
	o := NewOutcome("test_reverse")
	o.SetName("Reverse handles empty input")

	assert.Equal(t, "Reverse handles empty input test_reverse", o.RichName())
	assert.Equal(t, "test_reverse", o.DefaultName())
}

func TestOutcome_AddError(t *testing.T) {
	t.Run("downgrades to failed", func(t *testing.T) {
		o := NewOutcome("t")
		o.AddError(errors.New("boom"))

		assert.Equal(t, StatusFailed, o.Status())
		assert.Len(t, o.Errors(), 1)
	})

	t.Run("keep status leaves passed record passed", func(t *testing.T) {
		o := NewOutcome("t")
		o.AddErrorKeepStatus(errors.New("warning only"))

		assert.Equal(t, StatusPassed, o.Status())
		assert.Len(t, o.Errors(), 1)
	})

	t.Run("does not upgrade errored record", func(t *testing.T) {
		o := NewOutcome("t")
		o.SetStatus(StatusErrored)
		o.AddError(errors.New("boom"))

		assert.Equal(t, StatusErrored, o.Status())
	})

	t.Run("nil error is ignored", func(t *testing.T) {
		o := NewOutcome("t")
		o.AddError(nil)

		assert.Equal(t, StatusPassed, o.Status())
		assert.Empty(t, o.Errors())
	})

	t.Run("errors keep insertion order", func(t *testing.T) {
		o := NewOutcome("t")
		first, second := errors.New("first"), errors.New("second")
		o.AddError(first)
		o.AddError(second)

		assert.Equal(t, []error{first, second}, o.Errors())
	})
}

func TestOutcome_Descriptions(t *testing.T) {
	o := NewOutcome("t")
	o.AddDescription("first")
	o.AddDescription("second", "third")
	assert.Equal(t, []string{"first", "second", "third"}, o.Descriptions())

	replacement := []string{"only"}
	o.SetDescriptions(replacement)
	replacement[0] = "mutated"
	assert.Equal(t, []string{"only"}, o.Descriptions(), "SetDescriptions must copy its input")
}

func TestOutcome_Setters(t *testing.T) {
	tests := []struct {
		name  string
		set   func(o *Outcome, v float64) error
		get   func(o *Outcome) (float64, bool)
		field string
	}{
		{"score", (*Outcome).SetScore, (*Outcome).Score, "score"},
		{"max score", (*Outcome).SetMaxScore, (*Outcome).MaxScore, "max_score"},
		{"weight", (*Outcome).SetWeight, (*Outcome).Weight, "weight"},
		{"extra score", (*Outcome).SetExtraScore, (*Outcome).ExtraScore, "extra_score"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOutcome("t")

			require.NoError(t, tt.set(o, 2.5))
			v, ok := tt.get(o)
			require.True(t, ok)
			assert.Equal(t, 2.5, v)

			require.NoError(t, tt.set(o, 0))
			v, ok = tt.get(o)
			require.True(t, ok)
			assert.Zero(t, v)

			err := tt.set(o, -1)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrNegativeValue)
			var violation *ScoreInvariantViolation
			require.ErrorAs(t, err, &violation)
			assert.Equal(t, tt.field, violation.Field)
			assert.Equal(t, "t", violation.Record)

			for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
				err := tt.set(o, bad)
				require.Error(t, err, "value %g", bad)
				assert.ErrorIs(t, err, ErrNonFiniteValue)
				require.ErrorAs(t, err, &violation)
				assert.Equal(t, tt.field, violation.Field)
			}

			v, _ = tt.get(o)
			assert.Zero(t, v, "rejected value must not be stored")
		})
	}
}

func TestOutcome_CheckValid(t *testing.T) {
	neg := -0.5
	tests := []struct {
		name    string
		mutate  func(o *Outcome)
		field   string
		wantErr bool
	}{
		{name: "empty record is valid", mutate: func(o *Outcome) {}},
		{name: "negative score", mutate: func(o *Outcome) { o.score = &neg }, field: "score", wantErr: true},
		{name: "negative max score", mutate: func(o *Outcome) { o.maxScore = &neg }, field: "max_score", wantErr: true},
		{name: "negative weight", mutate: func(o *Outcome) { o.weight = &neg }, field: "weight", wantErr: true},
		{name: "negative extra score", mutate: func(o *Outcome) { o.extraScore = &neg }, field: "extra_score", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOutcome("record")
			tt.mutate(o)

			err := o.CheckValid()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var violation *ScoreInvariantViolation
			require.ErrorAs(t, err, &violation)
			assert.Equal(t, tt.field, violation.Field)
			assert.Equal(t, "record", violation.Record)
			assert.Equal(t, neg, violation.Value)
		})
	}
}

func TestOutcome_CheckValidRejectsNonFinite(t *testing.T) {
	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		o := NewOutcome("record")
		o.weight = &bad

		err := o.CheckValid()
		require.Error(t, err, "value %g", bad)
		assert.ErrorIs(t, err, ErrNonFiniteValue)
		assert.NotErrorIs(t, err, ErrNegativeValue)
	}
}

func TestOutcome_RichOutput(t *testing.T) {
	o := NewOutcome("t")
	o.AddDescription("checks reversal", "of empty lists")
	o.AddError(&AssertionError{Message: "mismatch", Expected: "[]", Actual: "nil"})
	o.AddError(errors.New("second"))

	want := "Description(s): checks reversal\nof empty lists\n" +
		"Error(s): \nmismatch\n  expected: []\n  actual:   nil\nsecond"
	assert.Equal(t, want, o.RichOutput())
}

func TestOutcome_RichOutputWithoutErrors(t *testing.T) {
	o := NewOutcome("t")
	assert.Equal(t, "Description(s): \nError(s): \n", o.RichOutput())
}
