package application

import (
	"context"
	"errors"
	"iter"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-grader/internal/domain"
)

type progressRecorder struct {
	messages []string
}

func (p *progressRecorder) Progress(_ context.Context, hook string, message string) {
	p.messages = append(p.messages, hook+": "+message)
}

func TestNewHook_Validation(t *testing.T) {
	noop := func(context.Context, domain.HookContext, *domain.Outcome) error { return nil }

	tests := []struct {
		name  string
		hook  string
		kind  domain.HookKind
		valid bool
	}{
		{name: "empty name", hook: "", kind: domain.HookPre},
		{name: "invalid kind", hook: "setup", kind: "during"},
		{name: "valid", hook: "setup", kind: domain.HookPost, valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHook(tt.hook, tt.kind, noop)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, tt.hook, h.Name())
				assert.Equal(t, tt.kind, h.Kind())
				assert.False(t, h.ProducesOutcome())
				return
			}
			assert.Error(t, err)
		})
	}

	_, err := NewHook("setup", domain.HookPre, nil)
	assert.ErrorIs(t, err, ErrNilUnit)
}

func TestFuncHook_Run(t *testing.T) {
	hc := domain.NewHookContext("run", nil, nil)

	t.Run("produces a record named after itself", func(t *testing.T) {
		h, err := NewHook("compile", domain.HookPre, func(_ context.Context, _ domain.HookContext, res *domain.Outcome) error {
			return res.SetMaxScore(3)
		}, AsTestCase())
		require.NoError(t, err)

		res, err := h.Run(context.Background(), hc)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, "compile", res.DefaultName())
		maxScore, ok := res.MaxScore()
		assert.True(t, ok)
		assert.Equal(t, 3.0, maxScore)
	})

	t.Run("returns the record even when untouched", func(t *testing.T) {
		h, err := NewHook("noop", domain.HookPost, func(context.Context, domain.HookContext, *domain.Outcome) error {
			return nil
		}, AsTestCase())
		require.NoError(t, err)

		res, err := h.Run(context.Background(), hc)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, domain.StatusPassed, res.Status())
	})

	t.Run("side effect hook returns no record", func(t *testing.T) {
		var gotResult *domain.Outcome
		called := false
		h, err := NewHook("cleanup", domain.HookPost, func(_ context.Context, _ domain.HookContext, res *domain.Outcome) error {
			called = true
			gotResult = res
			return nil
		})
		require.NoError(t, err)

		res, err := h.Run(context.Background(), hc)
		require.NoError(t, err)
		assert.Nil(t, res)
		assert.Nil(t, gotResult)
		assert.True(t, called)
	})

	t.Run("panic is recorded as errored", func(t *testing.T) {
		h, err := NewHook("explode", domain.HookPre, func(context.Context, domain.HookContext, *domain.Outcome) error {
			panic("kaboom")
		}, AsTestCase())
		require.NoError(t, err)

		res, err := h.Run(context.Background(), hc)
		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "kaboom", panicErr.Value)
		require.NotNil(t, res)
		assert.Equal(t, domain.StatusErrored, res.Status())
	})
}

func TestStreamHook_Run(t *testing.T) {
	hc := domain.NewHookContext("run", nil, nil)

	t.Run("drains every notification before returning", func(t *testing.T) {
		rec := &progressRecorder{}
		h, err := NewStreamHook("install", domain.HookPre,
			func(_ context.Context, _ domain.HookContext, res *domain.Outcome) iter.Seq2[string, error] {
				return func(yield func(string, error) bool) {
					for _, step := range []string{"download", "unpack", "link"} {
						if !yield(step, nil) {
							return
						}
					}
					res.AddDescription("installed")
				}
			}, rec, AsTestCase())
		require.NoError(t, err)

		res, err := h.Run(context.Background(), hc)
		require.NoError(t, err)
		assert.Equal(t, []string{"install: download", "install: unpack", "install: link"}, rec.messages)
		assert.Equal(t, []string{"installed"}, res.Descriptions(), "body code after the last yield runs")
	})

	t.Run("error in the stream ends the hook", func(t *testing.T) {
		rec := &progressRecorder{}
		boom := errors.New("network down")
		h, err := NewStreamHook("fetch", domain.HookPre,
			func(context.Context, domain.HookContext, *domain.Outcome) iter.Seq2[string, error] {
				return func(yield func(string, error) bool) {
					if !yield("connecting", nil) {
						return
					}
					if !yield("", boom) {
						return
					}
					yield("unreachable", nil)
				}
			}, rec, AsTestCase())
		require.NoError(t, err)

		res, err := h.Run(context.Background(), hc)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{"fetch: connecting"}, rec.messages)
		assert.Equal(t, domain.StatusErrored, res.Status())
	})

	t.Run("nil sequence and nil observer", func(t *testing.T) {
		h, err := NewStreamHook("quiet", domain.HookPost,
			func(context.Context, domain.HookContext, *domain.Outcome) iter.Seq2[string, error] {
				return nil
			}, nil)
		require.NoError(t, err)

		res, err := h.Run(context.Background(), hc)
		assert.NoError(t, err)
		assert.Nil(t, res)
	})

	t.Run("nil body", func(t *testing.T) {
		_, err := NewStreamHook("quiet", domain.HookPost, nil, nil)
		assert.ErrorIs(t, err, ErrNilUnit)
	})
}
