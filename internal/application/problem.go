package application

import (
	"fmt"
	"slices"

	"github.com/ahrav/go-grader/internal/domain"
	"github.com/ahrav/go-grader/internal/ports"
)

// Problem is an immutable, ordered declaration of the pre-hooks, battery
// tests and post-hooks that make up one graded assignment.
type Problem struct {
	name      string
	tests     []ports.TestCase
	preHooks  []ports.Hook
	postHooks []ports.Hook
}

// Name returns the problem name.
func (p *Problem) Name() string { return p.name }

// Tests returns the battery in declaration order.
func (p *Problem) Tests() []ports.TestCase { return slices.Clone(p.tests) }

// PreHooks returns the pre-test hooks in declaration order.
func (p *Problem) PreHooks() []ports.Hook { return slices.Clone(p.preHooks) }

// PostHooks returns the post-test hooks in declaration order.
func (p *Problem) PostHooks() []ports.Hook { return slices.Clone(p.postHooks) }

// ProblemBuilder collects declarations for a Problem. Build consumes the
// builder; every later call returns ErrBuilderConsumed.
type ProblemBuilder struct {
	problem  *Problem
	consumed bool
}

// NewProblemBuilder starts a new problem declaration.
func NewProblemBuilder(name string) *ProblemBuilder {
	return &ProblemBuilder{problem: &Problem{name: name}}
}

// AddTest appends a test to the battery. Names need not be unique; tests
// sharing a name keep their declaration order.
func (b *ProblemBuilder) AddTest(tc ports.TestCase) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	if tc == nil {
		return fmt.Errorf("test: %w", ErrNilUnit)
	}
	b.problem.tests = append(b.problem.tests, tc)
	return nil
}

// AddHook appends a hook to the pre or post list according to its kind.
func (b *ProblemBuilder) AddHook(h ports.Hook) error {
	if b.consumed {
		return ErrBuilderConsumed
	}
	if h == nil {
		return fmt.Errorf("hook: %w", ErrNilUnit)
	}

	switch h.Kind() {
	case domain.HookPre:
		b.problem.preHooks = append(b.problem.preHooks, h)
	case domain.HookPost:
		b.problem.postHooks = append(b.problem.postHooks, h)
	default:
		return fmt.Errorf("hook %s: invalid kind %q", h.Name(), h.Kind())
	}
	return nil
}

// Build finalizes the declaration.
func (b *ProblemBuilder) Build() (*Problem, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true

	p := b.problem
	b.problem = nil
	return p, nil
}
