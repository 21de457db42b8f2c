package application

import "gopkg.in/yaml.v3"

// ProblemConfig is the declarative form of a Problem and the root of a
// problem file.
type ProblemConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the problem.
	Metadata Metadata `yaml:"metadata" validate:"required"`
	// TotalScore is the default score ceiling used when the submission
	// carries no metadata and the caller gives no explicit total.
	TotalScore *float64 `yaml:"total_score,omitempty" validate:"omitempty,gte=0"`
	// Tests declares the battery in run order.
	Tests []TestConfig `yaml:"tests" validate:"required,min=1,dive"`
	// Hooks declares pre and post hooks; order within a kind is run order.
	Hooks []HookConfig `yaml:"hooks,omitempty" validate:"dive"`
}

// Metadata provides descriptive information about a problem.
type Metadata struct {
	// Name is the human-readable identifier of the problem.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description explains what the problem grades.
	Description string `yaml:"description,omitempty" validate:"max=1000"`
	// Tags are categorical labels for grouping problems.
	Tags []string `yaml:"tags,omitempty" validate:"max=20,dive,min=1,max=50"`
}

// TestConfig declares one battery test.
type TestConfig struct {
	// Name is the test identifier and the default name of its record.
	Name string `yaml:"name" validate:"required,checkname"`
	// Check is the registered name of the check body.
	Check string `yaml:"check" validate:"required,checkname"`
	// DisplayName overrides the name shown in reports.
	DisplayName string `yaml:"display_name,omitempty" validate:"max=255"`
	// MaxScore gives the test a fixed point value.
	MaxScore *float64 `yaml:"max_score,omitempty" validate:"omitempty,gte=0"`
	// Weight gives the test a share of the points the fixed tests leave.
	Weight *float64 `yaml:"weight,omitempty" validate:"omitempty,gte=0"`
	// ExtraScore replaces the max score when the test passes.
	ExtraScore *float64 `yaml:"extra_score,omitempty" validate:"omitempty,gte=0"`
	// Hidden hides the test's record from students.
	Hidden bool `yaml:"hidden,omitempty"`
	// Descriptions are shown with the test's output.
	Descriptions []string `yaml:"descriptions,omitempty" validate:"max=20,dive,max=1000"`
	// Params is handed to the check's factory. Checks registered without
	// a factory reject it.
	Params yaml.Node `yaml:"params,omitempty" validate:"-"`
}

// params returns the test's params block, or nil when it declares none.
func (tc *TestConfig) params() *yaml.Node {
	if tc.Params.IsZero() {
		return nil
	}
	return &tc.Params
}

// HookConfig declares one hook.
type HookConfig struct {
	// Name identifies the hook and names its record when it has one.
	Name string `yaml:"name" validate:"required,checkname"`
	// Kind is pre or post.
	Kind string `yaml:"kind" validate:"required,oneof=pre post"`
	// Hook is the registered name of the hook body.
	Hook string `yaml:"hook" validate:"required,checkname"`
	// AsTestCase makes the hook produce an outcome record.
	AsTestCase bool `yaml:"as_test_case,omitempty"`
}
