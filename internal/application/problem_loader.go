package application

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-grader/internal/domain"
	"github.com/ahrav/go-grader/internal/ports"
)

// maxConcurrentLoads bounds how many files LoadFromFiles reads at once.
const maxConcurrentLoads = 8

// LoadedProblem is a compiled problem file.
type LoadedProblem struct {
	// Problem is the immutable declaration.
	Problem *Problem
	// TotalScore is the file's default total score, or nil.
	TotalScore *float64
	// Config is the validated source configuration.
	Config *ProblemConfig
}

// ProblemLoader parses, validates and compiles YAML problem files against
// a CheckRegistry. Compiled problems are cached by the SHA-256 of their
// normalized configuration.
type ProblemLoader struct {
	// validator performs struct field validation and the custom
	// semver and checkname rules.
	validator *validator.Validate
	// registry resolves check and hook names to bodies.
	registry ports.CheckRegistry
	logger   *slog.Logger
	// cache stores compiled problems indexed by config hash.
	cache   map[string]*LoadedProblem
	cacheMu sync.RWMutex
	// sf prevents duplicate compilation when several goroutines load the
	// same configuration at once.
	sf singleflight.Group
}

// NewProblemLoader creates a loader that resolves names through registry.
// A nil logger selects slog.Default().
func NewProblemLoader(registry ports.CheckRegistry, logger *slog.Logger) (*ProblemLoader, error) {
	if registry == nil {
		return nil, fmt.Errorf("check registry cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	return &ProblemLoader{
		validator: v,
		registry:  registry,
		logger:    logger,
		cache:     make(map[string]*LoadedProblem),
	}, nil
}

// LoadFromFile loads and compiles a problem file.
func (pl *ProblemLoader) LoadFromFile(ctx context.Context, path string) (*LoadedProblem, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	lp, err := pl.load(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return lp, nil
}

// LoadFromReader loads and compiles a problem from r.
func (pl *ProblemLoader) LoadFromReader(ctx context.Context, r io.Reader) (*LoadedProblem, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	return pl.load(ctx, data)
}

// LoadFromFiles loads several problem files concurrently. Results are in
// the order of paths; the first failure cancels the remaining loads.
func (pl *ProblemLoader) LoadFromFiles(ctx context.Context, paths []string) ([]*LoadedProblem, error) {
	out := make([]*LoadedProblem, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			lp, err := pl.LoadFromFile(gctx, path)
			if err != nil {
				return err
			}
			out[i] = lp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (pl *ProblemLoader) load(ctx context.Context, data []byte) (*LoadedProblem, error) {
	config, err := parseProblemYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	hash, err := configHash(config)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate hash: %w", err)
	}

	v, err, shared := pl.sf.Do(hash, func() (any, error) {
		if lp, ok := pl.cached(hash); ok {
			return lp, nil
		}

		if err := pl.validateConfig(config); err != nil {
			return nil, fmt.Errorf("validation failed: %w", err)
		}

		lp, err := pl.compile(config)
		if err != nil {
			return nil, fmt.Errorf("failed to build problem: %w", err)
		}

		pl.store(hash, lp)
		pl.logger.Debug("problem compiled", "problem", config.Metadata.Name, "hash", hash[:12])
		return lp, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		pl.logger.Debug("problem load shared", "hash", hash[:12])
	}
	return v.(*LoadedProblem), nil
}

// parseProblemYAML decodes data strictly; unknown fields are errors.
func parseProblemYAML(data []byte) (*ProblemConfig, error) {
	var config ProblemConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("YAML decode failed: %w", err)
	}
	return &config, nil
}

func (pl *ProblemLoader) validateConfig(config *ProblemConfig) error {
	if err := pl.validator.Struct(config); err != nil {
		return fmt.Errorf("struct validation failed: %w", err)
	}
	if err := pl.validateSemantics(config); err != nil {
		return fmt.Errorf("semantic validation failed: %w", err)
	}
	return nil
}

// validateSemantics checks the scoring rules, that every referenced check
// and hook body is registered and that each check accepts its params.
func (pl *ProblemLoader) validateSemantics(config *ProblemConfig) error {
	verr := validateScoring(config)

	for i := range config.Tests {
		tc := &config.Tests[i]
		if _, err := pl.registry.NewCheck(tc.Check, tc.params()); err != nil {
			field := fmt.Sprintf("tests[%d].check", i)
			var lookup *ports.LookupError
			if !errors.As(err, &lookup) {
				field = fmt.Sprintf("tests[%d].params", i)
			}
			verr.AddError(ports.NewReferenceError(field, err).Error())
		}
	}
	for i, hc := range config.Hooks {
		if _, err := pl.registry.Hook(hc.Hook); err != nil {
			verr.AddError(ports.NewReferenceError(fmt.Sprintf("hooks[%d].hook", i), err).Error())
		}
	}

	if verr.HasErrors() {
		return verr
	}
	return nil
}

// validateScoring checks the scoring rules struct tags cannot express:
// every score is finite, max_score and weight are exclusive, and fixed
// points fit total_score.
func validateScoring(config *ProblemConfig) *domain.ValidationError {
	verr := domain.NewValidationError("problem " + config.Metadata.Name)

	if config.TotalScore != nil && !domain.IsValidScoreValue(*config.TotalScore) {
		verr.AddError(fmt.Sprintf("total_score must be finite, got %g", *config.TotalScore))
	}

	var fixedSum float64
	for _, tc := range config.Tests {
		for _, f := range []struct {
			name string
			v    *float64
		}{
			{"max_score", tc.MaxScore},
			{"weight", tc.Weight},
			{"extra_score", tc.ExtraScore},
		} {
			if f.v != nil && !domain.IsValidScoreValue(*f.v) {
				verr.AddError(fmt.Sprintf("test %q: %s must be finite, got %g", tc.Name, f.name, *f.v))
			}
		}
		if tc.MaxScore != nil && tc.Weight != nil {
			verr.AddError(fmt.Sprintf("test %q: max_score and weight are mutually exclusive", tc.Name))
		}
		if tc.MaxScore != nil {
			fixedSum += *tc.MaxScore
		}
	}
	if config.TotalScore != nil && fixedSum > *config.TotalScore {
		verr.AddError(fmt.Sprintf("fixed max scores sum to %g, above total_score %g", fixedSum, *config.TotalScore))
	}
	return verr
}

// ValidateProblemConfig parses and validates a problem file without
// resolving its check and hook names. Hosts that only need to lint a file
// use this instead of a ProblemLoader.
func ValidateProblemConfig(r io.Reader) (*ProblemConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	config, err := parseProblemYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	v := validator.New()
	if err := registerCustomValidators(v); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}
	if err := v.Struct(config); err != nil {
		return nil, fmt.Errorf("struct validation failed: %w", err)
	}
	if verr := validateScoring(config); verr.HasErrors() {
		return nil, fmt.Errorf("semantic validation failed: %w", verr)
	}
	return config, nil
}

// compile turns a validated configuration into a Problem.
func (pl *ProblemLoader) compile(config *ProblemConfig) (*LoadedProblem, error) {
	b := NewProblemBuilder(config.Metadata.Name)

	for _, hc := range config.Hooks {
		fn, err := pl.registry.Hook(hc.Hook)
		if err != nil {
			return nil, err
		}
		var opts []HookOption
		if hc.AsTestCase {
			opts = append(opts, AsTestCase())
		}
		h, err := NewHook(hc.Name, domain.HookKind(hc.Kind), fn, opts...)
		if err != nil {
			return nil, err
		}
		if err := b.AddHook(h); err != nil {
			return nil, err
		}
	}

	for i := range config.Tests {
		tc := config.Tests[i]
		check, err := pl.registry.NewCheck(tc.Check, tc.params())
		if err != nil {
			return nil, err
		}
		test, err := NewTestCase(tc.Name, check, testOptions(tc)...)
		if err != nil {
			return nil, err
		}
		if err := b.AddTest(test); err != nil {
			return nil, err
		}
	}

	problem, err := b.Build()
	if err != nil {
		return nil, err
	}

	lp := &LoadedProblem{Problem: problem, Config: config}
	if config.TotalScore != nil {
		v := *config.TotalScore
		lp.TotalScore = &v
	}
	return lp, nil
}

func testOptions(tc TestConfig) []TestOption {
	var opts []TestOption
	if tc.DisplayName != "" {
		opts = append(opts, WithDisplayName(tc.DisplayName))
	}
	if tc.MaxScore != nil {
		opts = append(opts, WithMaxScore(*tc.MaxScore))
	}
	if tc.Weight != nil {
		opts = append(opts, WithWeight(*tc.Weight))
	}
	if tc.ExtraScore != nil {
		opts = append(opts, WithExtraScore(*tc.ExtraScore))
	}
	if tc.Hidden {
		opts = append(opts, Hidden())
	}
	if len(tc.Descriptions) > 0 {
		opts = append(opts, WithDescription(tc.Descriptions...))
	}
	return opts
}

// configHash computes the SHA-256 of config re-encoded with consistent
// formatting, so whitespace and comment changes share a cache entry.
func configHash(config *ProblemConfig) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)

	if err := encoder.Encode(config); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to encode config for hashing: %w", err)
	}

	hash := sha256.Sum256(buf.Bytes())
	return hex.EncodeToString(hash[:]), nil
}

func (pl *ProblemLoader) cached(hash string) (*LoadedProblem, bool) {
	pl.cacheMu.RLock()
	defer pl.cacheMu.RUnlock()

	lp, ok := pl.cache[hash]
	return lp, ok
}

func (pl *ProblemLoader) store(hash string, lp *LoadedProblem) {
	pl.cacheMu.Lock()
	defer pl.cacheMu.Unlock()

	pl.cache[hash] = lp
}

// ClearCache drops every compiled problem.
func (pl *ProblemLoader) ClearCache() {
	pl.cacheMu.Lock()
	defer pl.cacheMu.Unlock()

	pl.cache = make(map[string]*LoadedProblem)
}
