package checks

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-grader/internal/domain"
	"github.com/ahrav/go-grader/internal/ports"
)

// FuzzyConfig controls FuzzyMatch.
type FuzzyConfig struct {
	// Threshold is the minimum similarity, in [0, 1], for the check to pass.
	Threshold float64 `yaml:"threshold" json:"threshold" validate:"min=0,max=1"`

	// CaseSensitive disables Unicode case folding.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`

	// TrimWhitespace strips leading and trailing whitespace from both sides.
	TrimWhitespace bool `yaml:"trim_whitespace" json:"trim_whitespace"`

	// PartialCredit makes the check set the record's score to
	// similarity * Points instead of leaving scoring to the synthesizer.
	// Records below the threshold score zero.
	PartialCredit bool `yaml:"partial_credit" json:"partial_credit"`

	// Points is the ceiling used with PartialCredit.
	Points float64 `yaml:"points" json:"points" validate:"gte=0,required_if=PartialCredit true"`
}

// DefaultFuzzyConfig returns a case-insensitive config passing at 80%
// similarity.
func DefaultFuzzyConfig() FuzzyConfig {
	return FuzzyConfig{Threshold: 0.8, TrimWhitespace: true}
}

// FuzzyMatch returns a check that passes when the Levenshtein similarity
// between the produced output and want reaches the configured threshold.
func FuzzyMatch(produce Producer, want string, config FuzzyConfig) (ports.CheckFunc, error) {
	if produce == nil {
		return nil, ErrNilProducer
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if err := checkLength("reference", want); err != nil {
		return nil, err
	}
	norm := normalizer{caseSensitive: config.CaseSensitive, trimWhitespace: config.TrimWhitespace}
	prepared := norm.apply(want)

	return func(ctx context.Context, res *domain.Outcome) error {
		ctx, span := tracer.Start(ctx, "checks.FuzzyMatch",
			trace.WithAttributes(
				attribute.String("check.record", res.DefaultName()),
				attribute.Float64("config.threshold", config.Threshold),
				attribute.Bool("config.partial_credit", config.PartialCredit),
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

		similarity := Similarity(norm.apply(got), prepared)
		passed := similarity >= config.Threshold
		span.SetAttributes(
			attribute.Float64("check.similarity", similarity),
			attribute.Bool("check.passed", passed),
		)

		if config.PartialCredit {
			score := 0.0
			if passed {
				score = similarity * config.Points
			}
			if err := res.SetScore(score); err != nil {
				return err
			}
		}
		if !passed {
			return &domain.AssertionError{
				Message:  fmt.Sprintf("output similarity %.2f%% below threshold %.2f%%", similarity*100, config.Threshold*100),
				Expected: want,
				Actual:   got,
			}
		}
		return nil
	}, nil
}

// Similarity returns 1 - distance/maxLen over runes, so identical strings
// score 1 and strings sharing nothing score 0. Two empty strings are
// identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	similarity := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	return max(similarity, 0)
}

// FuzzyMatchFactory is ExactMatchFactory for FuzzyMatch, decoding params
// on top of DefaultFuzzyConfig.
func FuzzyMatchFactory(produce Producer, want string) ports.CheckFactory {
	return func(params *yaml.Node) (ports.CheckFunc, error) {
		config, err := DecodeConfig(params, DefaultFuzzyConfig())
		if err != nil {
			return nil, err
		}
		return FuzzyMatch(produce, want, config)
	}
}
