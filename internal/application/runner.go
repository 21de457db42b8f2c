// Package application provides the orchestration layer of the grading
// engine: problem declaration and loading, the hook and test runner, and
// grade synthesis.
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-grader/internal/domain"
	"github.com/ahrav/go-grader/internal/ports"
)

var tracer = otel.Tracer("github.com/ahrav/go-grader/internal/application")

// Phase is a stage of a grading run. Phases always run in the order
// PRE_HOOKS, BATTERY, POST_HOOKS, DONE.
type Phase string

// Run phases.
const (
	PhasePreHooks  Phase = "PRE_HOOKS"
	PhaseBattery   Phase = "BATTERY"
	PhasePostHooks Phase = "POST_HOOKS"
	PhaseDone      Phase = "DONE"
)

// Run is the product of one pass of a Runner over a Problem.
type Run struct {
	// ID is the unique identifier of the run.
	ID string

	// Problem is the name of the problem that was run.
	Problem string

	// Results holds the collected records: outcome-producing pre-hooks,
	// then one per battery test, then outcome-producing post-hooks.
	Results []*domain.Outcome

	// Metadata is the submission metadata the run was given, if any.
	Metadata *domain.SubmissionMetadata

	// StartedAt is when the run began.
	StartedAt time.Time

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}

// Runner executes the hook and test pipeline of a Problem. A Runner holds
// no per-run state and may be reused; each Run call is sequential.
type Runner struct {
	logger  *slog.Logger
	metrics ports.MetricsCollector
	newID   func() string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger. A nil logger selects slog.Default().
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics ports.MetricsCollector) RunnerOption {
	return func(r *Runner) {
		if metrics != nil {
			r.metrics = metrics
		}
	}
}

// WithRunIDGenerator overrides how run identifiers are produced.
func WithRunIDGenerator(gen func() string) RunnerOption {
	return func(r *Runner) {
		if gen != nil {
			r.newID = gen
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger:  slog.Default(),
		metrics: ports.NopMetrics{},
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes every unit of problem exactly once, in phase order. User
// failures are captured on the failing unit's record and the run moves on.
// An *domain.InternalError from any unit, or an outcome-producing hook that
// yields no record, aborts the run and no results are returned.
//
// Run does not observe ctx cancellation itself; ctx is handed to every
// unit body.
func (r *Runner) Run(ctx context.Context, problem *Problem, metadata *domain.SubmissionMetadata) (*Run, error) {
	if problem == nil {
		return nil, fmt.Errorf("cannot run nil problem")
	}

	run := &Run{
		ID:        r.newID(),
		Problem:   problem.Name(),
		Metadata:  metadata,
		StartedAt: time.Now(),
	}

	ctx, span := tracer.Start(ctx, "grader.Run", trace.WithAttributes(
		attribute.String("run.id", run.ID),
		attribute.String("problem", run.Problem),
	))
	defer span.End()

	logger := r.logger.With("run_id", run.ID, "problem", run.Problem)
	logger.Info("grading run started",
		"pre_hooks", len(problem.preHooks),
		"tests", len(problem.tests),
		"post_hooks", len(problem.postHooks),
	)

	steps := []struct {
		phase Phase
		exec  func(context.Context, *slog.Logger, *Run) error
	}{
		{PhasePreHooks, func(ctx context.Context, l *slog.Logger, run *Run) error {
			return r.runHooks(ctx, l, run, PhasePreHooks, problem.preHooks)
		}},
		{PhaseBattery, func(ctx context.Context, l *slog.Logger, run *Run) error {
			return r.runBattery(ctx, l, run, problem.tests)
		}},
		{PhasePostHooks, func(ctx context.Context, l *slog.Logger, run *Run) error {
			return r.runHooks(ctx, l, run, PhasePostHooks, problem.postHooks)
		}},
	}

	for _, step := range steps {
		if err := r.runPhase(ctx, logger, run, step.phase, step.exec); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.metrics.RecordCounter("grading_internal_errors_total", 1, map[string]string{"phase": string(step.phase)})
			logger.Error("grading run aborted", "phase", step.phase, "error", err)
			return nil, err
		}
	}

	span.AddEvent("phase", trace.WithAttributes(attribute.String("phase", string(PhaseDone))))
	run.Duration = time.Since(run.StartedAt)
	r.metrics.RecordLatency("grading_run", run.Duration, map[string]string{"unit": run.Problem})
	span.SetAttributes(attribute.Int("results", len(run.Results)))
	logger.Info("grading run finished", "results", len(run.Results), "duration", run.Duration)
	return run, nil
}

func (r *Runner) runPhase(
	ctx context.Context,
	logger *slog.Logger,
	run *Run,
	phase Phase,
	exec func(context.Context, *slog.Logger, *Run) error,
) error {
	ctx, span := tracer.Start(ctx, "grader.phase", trace.WithAttributes(attribute.String("phase", string(phase))))
	defer span.End()

	logger = logger.With("phase", phase)
	logger.Debug("phase started")

	if err := exec(ctx, logger, run); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (r *Runner) runHooks(ctx context.Context, logger *slog.Logger, run *Run, phase Phase, hooks []ports.Hook) error {
	for _, h := range hooks {
		if err := r.runHook(ctx, logger, run, phase, h); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runHook(ctx context.Context, logger *slog.Logger, run *Run, phase Phase, h ports.Hook) error {
	name := h.Name()
	ctx, span := tracer.Start(ctx, "grader.hook", trace.WithAttributes(
		attribute.String("hook.name", name),
		attribute.String("hook.kind", string(h.Kind())),
		attribute.Bool("hook.produces_outcome", h.ProducesOutcome()),
	))
	defer span.End()

	hc := domain.NewHookContext(run.ID, run.Metadata, run.Results)
	start := time.Now()

	var res *domain.Outcome
	err := safeCall(name, func() error {
		var runErr error
		res, runErr = h.Run(ctx, hc)
		return runErr
	})
	r.metrics.RecordLatency("grading_unit", time.Since(start), map[string]string{"unit": name, "phase": string(phase)})

	if domain.IsInternalError(err) {
		return err
	}

	if h.ProducesOutcome() {
		if res == nil {
			if err == nil {
				return domain.NewInternalError(name, domain.ErrMissingOutcome, "outcome-producing hook returned no record")
			}
			// A hook that failed before building its record still owes one.
			res = domain.NewOutcome(name)
			recordFailure(res, err)
		}
		run.Results = append(run.Results, res)
		r.observeOutcome(logger, phase, res)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.metrics.RecordCounter("grading_hook_failures_total", 1, map[string]string{"unit": name, "phase": string(phase)})
		logger.Warn("hook failed", "hook", name, "error", err)
	}
	return nil
}

func (r *Runner) runBattery(ctx context.Context, logger *slog.Logger, run *Run, tests []ports.TestCase) error {
	for _, tc := range tests {
		if err := r.runTest(ctx, logger, run, tc); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runTest(ctx context.Context, logger *slog.Logger, run *Run, tc ports.TestCase) error {
	name := tc.Name()
	ctx, span := tracer.Start(ctx, "grader.test", trace.WithAttributes(attribute.String("test.name", name)))
	defer span.End()

	res, err := tc.NewOutcome()
	if err != nil {
		return domain.NewInternalError(name, err, "cannot create outcome")
	}
	if res == nil {
		return domain.NewInternalError(name, domain.ErrMissingOutcome, "test returned no record")
	}

	start := time.Now()
	err = safeCall(name, func() error { return tc.Run(ctx, res) })
	r.metrics.RecordLatency("grading_unit", time.Since(start), map[string]string{"unit": name, "phase": string(PhaseBattery)})

	if domain.IsInternalError(err) {
		return err
	}

	recordFailure(res, err)
	run.Results = append(run.Results, res)
	r.observeOutcome(logger, PhaseBattery, res)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		var panicErr *PanicError
		if errors.As(err, &panicErr) {
			logger.Warn("test panicked", "test", name, "panic", panicErr.Value)
		} else {
			logger.Debug("test failed", "test", name, "error", err)
		}
	}
	return nil
}

func (r *Runner) observeOutcome(logger *slog.Logger, phase Phase, res *domain.Outcome) {
	r.metrics.RecordCounter("grading_outcomes_total", 1, map[string]string{
		"phase":  string(phase),
		"status": string(res.Status()),
	})
	logger.Debug("outcome recorded", "unit", res.DefaultName(), "status", res.Status())
}
