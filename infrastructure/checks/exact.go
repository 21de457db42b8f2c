package checks

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-grader/internal/domain"
	"github.com/ahrav/go-grader/internal/ports"
)

// MatchConfig controls normalization for ExactMatch. The zero value is a
// case-insensitive comparison without trimming.
type MatchConfig struct {
	// CaseSensitive disables Unicode case folding.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`

	// TrimWhitespace strips leading and trailing whitespace from both sides.
	TrimWhitespace bool `yaml:"trim_whitespace" json:"trim_whitespace"`
}

// DefaultMatchConfig returns a case-insensitive, whitespace-trimming config.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{TrimWhitespace: true}
}

// ExactMatch returns a check that passes when the produced output equals
// want after normalization. A mismatch fails the record with an
// *domain.AssertionError carrying both values.
func ExactMatch(produce Producer, want string, config MatchConfig) (ports.CheckFunc, error) {
	if produce == nil {
		return nil, ErrNilProducer
	}
	if err := checkLength("reference", want); err != nil {
		return nil, err
	}
	norm := normalizer{caseSensitive: config.CaseSensitive, trimWhitespace: config.TrimWhitespace}
	prepared := norm.apply(want)

	return func(ctx context.Context, res *domain.Outcome) error {
		ctx, span := tracer.Start(ctx, "checks.ExactMatch",
			trace.WithAttributes(
				attribute.String("check.record", res.DefaultName()),
				attribute.Bool("config.case_sensitive", config.CaseSensitive),
				attribute.Bool("config.trim_whitespace", config.TrimWhitespace),
			),
		)
		defer span.End()

		got, err := produce(ctx)
		if err == nil {
			err = checkLength("output", got)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		passed := norm.apply(got) == prepared
		span.SetAttributes(attribute.Bool("check.passed", passed))
		if !passed {
			return &domain.AssertionError{Message: "output mismatch", Expected: want, Actual: got}
		}
		return nil
	}, nil
}

// ExactMatchFactory returns a factory for registries. Each test's params
// are decoded as a MatchConfig on top of DefaultMatchConfig.
func ExactMatchFactory(produce Producer, want string) ports.CheckFactory {
	return func(params *yaml.Node) (ports.CheckFunc, error) {
		config, err := DecodeConfig(params, DefaultMatchConfig())
		if err != nil {
			return nil, err
		}
		return ExactMatch(produce, want, config)
	}
}
