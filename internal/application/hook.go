package application

import (
	"context"
	"fmt"
	"iter"

	"github.com/ahrav/go-grader/internal/domain"
	"github.com/ahrav/go-grader/internal/ports"
)

// Verify interface compliance at compile time.
var (
	_ ports.Hook = (*FuncHook)(nil)
	_ ports.Hook = (*StreamHook)(nil)
)

// StreamFunc is the body of a streaming hook. It returns a lazy sequence of
// progress notifications; a non-nil error in the sequence ends the hook.
type StreamFunc func(ctx context.Context, hc domain.HookContext, result *domain.Outcome) iter.Seq2[string, error]

// HookOption configures a hook at construction time.
type HookOption func(*hookBase)

// AsTestCase makes the hook produce an outcome record named after itself.
func AsTestCase() HookOption {
	return func(h *hookBase) { h.producesOutcome = true }
}

type hookBase struct {
	name            string
	kind            domain.HookKind
	producesOutcome bool
}

func newHookBase(name string, kind domain.HookKind, opts []HookOption) (hookBase, error) {
	if name == "" {
		return hookBase{}, fmt.Errorf("hook name cannot be empty")
	}
	if !kind.Valid() {
		return hookBase{}, fmt.Errorf("hook %s: invalid kind %q", name, kind)
	}
	h := hookBase{name: name, kind: kind}
	for _, opt := range opts {
		opt(&h)
	}
	return h, nil
}

func (h *hookBase) Name() string          { return h.name }
func (h *hookBase) Kind() domain.HookKind { return h.kind }
func (h *hookBase) ProducesOutcome() bool { return h.producesOutcome }

// newResult creates the record an outcome-producing hook hands back.
func (h *hookBase) newResult() *domain.Outcome {
	if !h.producesOutcome {
		return nil
	}
	return domain.NewOutcome(h.name)
}

// FuncHook runs a single HookFunc to completion.
type FuncHook struct {
	hookBase
	fn ports.HookFunc
}

// NewHook creates a hook that runs fn once per grading run.
func NewHook(name string, kind domain.HookKind, fn ports.HookFunc, opts ...HookOption) (*FuncHook, error) {
	if fn == nil {
		return nil, fmt.Errorf("hook %s: %w", name, ErrNilUnit)
	}
	base, err := newHookBase(name, kind, opts)
	if err != nil {
		return nil, err
	}
	return &FuncHook{hookBase: base, fn: fn}, nil
}

// Run executes the hook body. Failures are recorded on the hook's record
// when it produces one and are returned either way.
func (h *FuncHook) Run(ctx context.Context, hc domain.HookContext) (*domain.Outcome, error) {
	res := h.newResult()
	err := safeCall(h.name, func() error { return h.fn(ctx, hc, res) })
	recordFailure(res, err)
	return res, err
}

// StreamHook runs a StreamFunc and drains every notification it yields
// before returning.
type StreamHook struct {
	hookBase
	fn       StreamFunc
	observer ports.ProgressObserver
}

// NewStreamHook creates a streaming hook. observer may be nil, in which
// case notifications are drained and discarded.
func NewStreamHook(
	name string,
	kind domain.HookKind,
	fn StreamFunc,
	observer ports.ProgressObserver,
	opts ...HookOption,
) (*StreamHook, error) {
	if fn == nil {
		return nil, fmt.Errorf("hook %s: %w", name, ErrNilUnit)
	}
	base, err := newHookBase(name, kind, opts)
	if err != nil {
		return nil, err
	}
	return &StreamHook{hookBase: base, fn: fn, observer: observer}, nil
}

// Run executes the stream body and consumes it to exhaustion.
func (h *StreamHook) Run(ctx context.Context, hc domain.HookContext) (*domain.Outcome, error) {
	res := h.newResult()
	err := safeCall(h.name, func() error {
		seq := h.fn(ctx, hc, res)
		if seq == nil {
			return nil
		}
		for msg, err := range seq {
			if err != nil {
				return err
			}
			if h.observer != nil {
				h.observer.Progress(ctx, h.name, msg)
			}
		}
		return nil
	})
	recordFailure(res, err)
	return res, err
}
