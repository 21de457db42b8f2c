// Package checks provides reusable check bodies that compare the output of
// a submission against a reference answer.
package checks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

// MaxOutputLength is the largest output a check will compare (10MB).
const MaxOutputLength = 10 * 1024 * 1024

var (
	// ErrNilProducer is returned when a check is built without a producer.
	ErrNilProducer = errors.New("output producer cannot be nil")

	// ErrOutputTooLong is returned when the produced or reference output
	// exceeds MaxOutputLength.
	ErrOutputTooLong = errors.New("output exceeds length limit")
)

var (
	validate = validator.New()
	tracer   = otel.Tracer("github.com/ahrav/go-grader/infrastructure/checks")
)

// Producer runs the part of the submission under test and returns the
// output to compare. A returned error marks the record errored.
type Producer func(ctx context.Context) (string, error)

// normalizer applies case folding and whitespace trimming before comparison.
type normalizer struct {
	caseSensitive  bool
	trimWhitespace bool
}

func (n normalizer) apply(s string) string {
	if n.trimWhitespace {
		s = strings.TrimSpace(s)
	}
	if !n.caseSensitive {
		// cases.Caser is stateful, so each call gets its own.
		s = cases.Fold().String(s)
	}
	return s
}

func checkLength(what string, s string) error {
	if len(s) > MaxOutputLength {
		return fmt.Errorf("%s: %w: %d bytes, limit %d", what, ErrOutputTooLong, len(s), MaxOutputLength)
	}
	return nil
}

// DecodeConfig decodes a check's parameters from a YAML node on top of
// defaults. Unknown fields are rejected so typos are not silently ignored.
func DecodeConfig[T any](node *yaml.Node, defaults T) (T, error) {
	config := defaults
	if node == nil {
		return config, validateConfig(config)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	if err := enc.Encode(node); err != nil {
		return config, fmt.Errorf("failed to encode YAML node: %w", err)
	}
	if err := enc.Close(); err != nil {
		return config, fmt.Errorf("failed to close YAML encoder: %w", err)
	}

	dec := yaml.NewDecoder(&buf)
	dec.KnownFields(true)
	if err := dec.Decode(&config); err != nil {
		return defaults, fmt.Errorf("failed to decode parameters (check for typos): %w", err)
	}
	if err := validateConfig(config); err != nil {
		return defaults, err
	}
	return config, nil
}

func validateConfig(config any) error {
	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("parameter validation failed: %w", err)
	}
	return nil
}
