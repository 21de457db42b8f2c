// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the system testable.
package ports

import (
	"context"

	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-grader/internal/domain"
)

// Hook is a named unit of work that runs before or after the test battery.
// Hooks run one at a time, in declaration order within their kind, and
// never concurrently with each other or with the battery.
type Hook interface {
	// Name returns the hook's identifier. Outcome-producing hooks name
	// their record after it.
	Name() string

	// Kind says whether the hook runs before or after the battery.
	Kind() domain.HookKind

	// ProducesOutcome reports whether Run hands back an outcome record
	// that belongs in the final result set.
	ProducesOutcome() bool

	// Run executes the hook to completion. An outcome-producing hook
	// returns its record even when the hook body failed; the failure is
	// recorded on the record and also returned so the runner can log it.
	// A hook that does not produce an outcome returns a nil record.
	//
	// Example:
	//
	//	res, err := hook.Run(ctx, hc)
	//	if hook.ProducesOutcome() && res == nil && err == nil {
	//	    // runner bookkeeping defect
	//	}
	//
	// A nil record with a non-nil error, a panic included, is recorded on
	// a fresh record named after the hook.
	Run(ctx context.Context, hc domain.HookContext) (*domain.Outcome, error)
}

// TestCase is one declared test of the battery. Every test case yields
// exactly one outcome record per run.
type TestCase interface {
	// Name returns the test's identifier, used as the record's default name.
	Name() string

	// NewOutcome creates the record for this test with its declared
	// scoring fields, display name, descriptions and visibility applied.
	NewOutcome() (*domain.Outcome, error)

	// Run executes the test body against result. Returning an error
	// reports a failure; the runner records it on result.
	Run(ctx context.Context, result *domain.Outcome) error
}

// CheckFunc is the body of a battery test.
type CheckFunc func(ctx context.Context, result *domain.Outcome) error

// HookFunc is the body of a hook. result is nil for hooks that do not
// produce an outcome.
type HookFunc func(ctx context.Context, hc domain.HookContext, result *domain.Outcome) error

// CheckFactory builds a check body from the params block a test declares
// in a problem file. params is nil when the test declares none.
type CheckFactory func(params *yaml.Node) (CheckFunc, error)

// CheckRegistry is the capability a host passes to the problem loader so
// that declarative problem files can refer to Go check and hook bodies by
// name.
type CheckRegistry interface {
	// RegisterCheck makes fn available under name.
	RegisterCheck(name string, fn CheckFunc) error

	// RegisterCheckFactory makes a parameterised check available under
	// name. Checks and factories share one namespace.
	RegisterCheckFactory(name string, factory CheckFactory) error

	// RegisterHook makes fn available under name.
	RegisterHook(name string, fn HookFunc) error

	// Check looks up a check body that takes no params.
	Check(name string) (CheckFunc, error)

	// NewCheck looks up name and builds its body from params.
	NewCheck(name string, params *yaml.Node) (CheckFunc, error)

	// Hook looks up a hook body.
	Hook(name string) (HookFunc, error)

	// CheckNames returns the registered check names in sorted order.
	CheckNames() []string

	// HookNames returns the registered hook names in sorted order.
	HookNames() []string
}
