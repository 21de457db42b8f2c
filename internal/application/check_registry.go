package application

import (
	"fmt"
	"slices"
	"sync"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-grader/internal/ports"
)

// Verify interface compliance at compile time.
var _ ports.CheckRegistry = (*DefaultCheckRegistry)(nil)

// maxSuggestionDistance bounds how far a misspelt name may be from a
// registered one before no suggestion is offered.
const maxSuggestionDistance = 3

// DefaultCheckRegistry implements ports.CheckRegistry with two name-keyed
// maps. Problem files refer to check and hook bodies registered here.
type DefaultCheckRegistry struct {
	// checks maps check names to the factories that build their bodies.
	// Plain checks are stored as factories that reject params.
	checks map[string]ports.CheckFactory
	// hooks maps hook names to their bodies.
	hooks map[string]ports.HookFunc
	// mu protects concurrent access to both maps.
	mu sync.RWMutex
}

// NewCheckRegistry creates an empty registry.
func NewCheckRegistry() *DefaultCheckRegistry {
	return &DefaultCheckRegistry{
		checks: make(map[string]ports.CheckFactory),
		hooks:  make(map[string]ports.HookFunc),
	}
}

// RegisterCheck makes fn available under name. Registering a name twice
// returns ports.ErrDuplicateRegistration.
func (r *DefaultCheckRegistry) RegisterCheck(name string, fn ports.CheckFunc) error {
	if name == "" {
		return fmt.Errorf("check name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("check %s: %w", name, ErrNilUnit)
	}
	return r.addCheck(name, func(params *yaml.Node) (ports.CheckFunc, error) {
		if params != nil {
			return nil, ports.ErrUnexpectedParams
		}
		return fn, nil
	})
}

// RegisterCheckFactory makes a parameterised check available under name.
// The factory runs once per test that names it, with that test's params.
func (r *DefaultCheckRegistry) RegisterCheckFactory(name string, factory ports.CheckFactory) error {
	if name == "" {
		return fmt.Errorf("check name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("check %s: %w", name, ErrNilUnit)
	}
	return r.addCheck(name, factory)
}

func (r *DefaultCheckRegistry) addCheck(name string, factory ports.CheckFactory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.checks[name]; exists {
		return fmt.Errorf("check %s: %w", name, ports.ErrDuplicateRegistration)
	}
	r.checks[name] = factory
	return nil
}

// RegisterHook makes fn available under name.
func (r *DefaultCheckRegistry) RegisterHook(name string, fn ports.HookFunc) error {
	if name == "" {
		return fmt.Errorf("hook name cannot be empty")
	}
	if fn == nil {
		return fmt.Errorf("hook %s: %w", name, ErrNilUnit)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.hooks[name]; exists {
		return fmt.Errorf("hook %s: %w", name, ports.ErrDuplicateRegistration)
	}
	r.hooks[name] = fn
	return nil
}

// Check looks up a check body that takes no params. An unknown name yields
// a *ports.LookupError carrying the closest registered name, if any.
func (r *DefaultCheckRegistry) Check(name string) (ports.CheckFunc, error) {
	return r.NewCheck(name, nil)
}

// NewCheck looks up name and builds its body from params. Lookup failures
// are *ports.LookupError; anything else is a factory failure.
func (r *DefaultCheckRegistry) NewCheck(name string, params *yaml.Node) (ports.CheckFunc, error) {
	r.mu.RLock()
	factory, ok := r.checks[name]
	if !ok {
		defer r.mu.RUnlock()
		return nil, &ports.LookupError{
			Name:       name,
			Suggestion: closestName(name, sortedKeys(r.checks)),
			Err:        ports.ErrUnknownCheck,
		}
	}
	r.mu.RUnlock()

	fn, err := factory(params)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", name, err)
	}
	if fn == nil {
		return nil, fmt.Errorf("check %s: %w", name, ErrNilUnit)
	}
	return fn, nil
}

// Hook looks up a hook body.
func (r *DefaultCheckRegistry) Hook(name string) (ports.HookFunc, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if fn, ok := r.hooks[name]; ok {
		return fn, nil
	}
	return nil, &ports.LookupError{
		Name:       name,
		Suggestion: closestName(name, sortedKeys(r.hooks)),
		Err:        ports.ErrUnknownHook,
	}
}

// CheckNames returns the registered check names in sorted order.
func (r *DefaultCheckRegistry) CheckNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.checks)
}

// HookNames returns the registered hook names in sorted order.
func (r *DefaultCheckRegistry) HookNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.hooks)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// closestName returns the candidate with the smallest edit distance to
// name, or "" when none is within maxSuggestionDistance. Ties go to the
// earlier candidate.
func closestName(name string, candidates []string) string {
	best, bestDist := "", maxSuggestionDistance+1
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}
