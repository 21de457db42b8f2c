package application

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-grader/internal/domain"
)

func TestNewTestCase(t *testing.T) {
	tests := []struct {
		name    string
		opts    []TestOption
		wantErr bool
	}{
		{name: "fixed", opts: []TestOption{WithMaxScore(5)}},
		{name: "weighted", opts: []TestOption{WithWeight(2)}},
		{name: "custom score only"},
		{name: "fixed with extra credit", opts: []TestOption{WithMaxScore(5), WithExtraScore(7)}},
		{name: "max score and weight", opts: []TestOption{WithMaxScore(5), WithWeight(1)}, wantErr: true},
		{name: "negative max score", opts: []TestOption{WithMaxScore(-1)}, wantErr: true},
		{name: "negative weight", opts: []TestOption{WithWeight(-1)}, wantErr: true},
		{name: "negative extra score", opts: []TestOption{WithExtraScore(-1)}, wantErr: true},
		{name: "infinite weight", opts: []TestOption{WithWeight(math.Inf(1))}, wantErr: true},
		{name: "NaN max score", opts: []TestOption{WithMaxScore(math.NaN())}, wantErr: true},
		{name: "infinite extra score", opts: []TestOption{WithMaxScore(1), WithExtraScore(math.Inf(1))}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc, err := NewTestCase("t", passCheck, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "t", tc.Name())
		})
	}

	_, err := NewTestCase("", passCheck)
	assert.Error(t, err)
	_, err = NewTestCase("t", nil)
	assert.ErrorIs(t, err, ErrNilUnit)
}

func TestTestSpec_NewOutcome(t *testing.T) {
	tc := mustTest(t, "test_reverse", passCheck,
		WithDisplayName("Reverse"),
		WithMaxScore(5),
		WithExtraScore(7),
		WithDescription("reverses a list", "in place"),
		Hidden(),
	)

	res, err := tc.NewOutcome()
	require.NoError(t, err)

	assert.Equal(t, "test_reverse", res.DefaultName())
	assert.Equal(t, "Reverse test_reverse", res.RichName())
	assert.True(t, res.Hidden())
	assert.Equal(t, []string{"reverses a list", "in place"}, res.Descriptions())
	maxScore, _ := res.MaxScore()
	assert.Equal(t, 5.0, maxScore)
	extra, _ := res.ExtraScore()
	assert.Equal(t, 7.0, extra)
	_, hasWeight := res.Weight()
	assert.False(t, hasWeight)

	other, err := tc.NewOutcome()
	require.NoError(t, err)
	assert.NotSame(t, res, other, "each call creates a fresh record")
}

func TestTestSpec_RunCustomScore(t *testing.T) {
	tc := mustTest(t, "partial", func(_ context.Context, res *domain.Outcome) error {
		return res.SetScore(2.5)
	})

	res, err := tc.NewOutcome()
	require.NoError(t, err)
	require.NoError(t, tc.Run(context.Background(), res))

	score, ok := res.Score()
	require.True(t, ok)
	assert.Equal(t, 2.5, score)
}

func TestProblemBuilder(t *testing.T) {
	b := NewProblemBuilder("lab1")
	pre := mustHook(t, "setup", domain.HookPre, func(context.Context, domain.HookContext, *domain.Outcome) error { return nil })
	post := mustHook(t, "teardown", domain.HookPost, func(context.Context, domain.HookContext, *domain.Outcome) error { return nil })
	first := mustTest(t, "same", passCheck, WithMaxScore(1))
	second := mustTest(t, "same", passCheck, WithMaxScore(2))

	require.NoError(t, b.AddHook(post))
	require.NoError(t, b.AddHook(pre))
	require.NoError(t, b.AddTest(first))
	require.NoError(t, b.AddTest(second), "tests may share a name")
	assert.ErrorIs(t, b.AddTest(nil), ErrNilUnit)
	assert.ErrorIs(t, b.AddHook(nil), ErrNilUnit)

	p, err := b.Build()
	require.NoError(t, err)

	assert.Equal(t, "lab1", p.Name())
	require.Len(t, p.Tests(), 2)
	assert.Same(t, first, p.Tests()[0])
	assert.Same(t, second, p.Tests()[1])
	require.Len(t, p.PreHooks(), 1)
	assert.Equal(t, "setup", p.PreHooks()[0].Name())
	require.Len(t, p.PostHooks(), 1)
	assert.Equal(t, "teardown", p.PostHooks()[0].Name())

	t.Run("builder is consumed", func(t *testing.T) {
		assert.ErrorIs(t, b.AddTest(first), ErrBuilderConsumed)
		assert.ErrorIs(t, b.AddHook(pre), ErrBuilderConsumed)
		_, err := b.Build()
		assert.ErrorIs(t, err, ErrBuilderConsumed)
		assert.Len(t, p.Tests(), 2, "built problem is unaffected")
	})

	t.Run("accessors return copies", func(t *testing.T) {
		tests := p.Tests()
		tests[0] = nil
		assert.NotNil(t, p.Tests()[0])
	})
}
