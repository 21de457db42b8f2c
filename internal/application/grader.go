package application

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ahrav/go-grader/internal/domain"
	"github.com/ahrav/go-grader/internal/ports"
)

// GradeRequest carries the per-submission inputs of a grading run.
type GradeRequest struct {
	// TotalScore is the explicit score ceiling. Ignored when Metadata is set.
	TotalScore *float64

	// Metadata is the submission metadata from the grading platform.
	Metadata *domain.SubmissionMetadata
}

// GraderConfig holds the dependencies of a Grader. Zero fields select
// defaults.
type GraderConfig struct {
	Runner      *Runner
	Synthesizer domain.Synthesizer
	Logger      *slog.Logger
	Metrics     ports.MetricsCollector
}

// Grader runs a problem and turns its results into a report.
type Grader struct {
	runner  *Runner
	synth   domain.Synthesizer
	logger  *slog.Logger
	metrics ports.MetricsCollector
}

// NewGrader creates a Grader from cfg.
func NewGrader(cfg GraderConfig) *Grader {
	g := &Grader{
		runner:  cfg.Runner,
		synth:   cfg.Synthesizer,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	if g.metrics == nil {
		g.metrics = ports.NopMetrics{}
	}
	if g.runner == nil {
		g.runner = NewRunner(WithLogger(g.logger), WithMetrics(g.metrics))
	}
	if g.synth == nil {
		g.synth = domain.ScoreSynthesizer{}
	}
	return g
}

// Grade runs problem and synthesizes its grade.
func (g *Grader) Grade(ctx context.Context, problem *Problem, req GradeRequest) (*domain.Report, error) {
	run, err := g.runner.Run(ctx, problem, req.Metadata)
	if err != nil {
		return nil, err
	}

	report, err := g.Synthesize(ctx, run.ID, run.Results, req)
	if err != nil {
		return nil, err
	}
	report.ExecutionTime = run.Duration.Seconds()
	return report, nil
}

// Synthesize grades an already collected result set. On failure no
// record is modified and no report is produced.
func (g *Grader) Synthesize(
	ctx context.Context,
	runID string,
	results []*domain.Outcome,
	req GradeRequest,
) (*domain.Report, error) {
	_, span := tracer.Start(ctx, "grader.Synthesize", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("results", len(results)),
	))
	defer span.End()

	logger := g.logger.With("run_id", runID)
	sc := NewSynthesisContext(results, req.TotalScore, req.Metadata)

	total, err := sc.TotalScore()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		logger.Error("cannot resolve total score", "error", err)
		return nil, err
	}

	score, err := sc.Synthesize(g.synth)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.metrics.RecordCounter("grading_internal_errors_total", 1, map[string]string{"phase": "SYNTHESIS"})
		logger.Error("score synthesis failed", "total_score", total, "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.Float64("score", score), attribute.Float64("total_score", total))
	g.metrics.RecordGauge("grading_last_score", score, nil)
	g.metrics.RecordHistogram("grading_score", score, nil)
	logger.Info("grade synthesized", "score", score, "total_score", total)

	report := domain.NewReport(results, score)
	report.RunID = runID
	report.TotalScore = total
	return report, nil
}
