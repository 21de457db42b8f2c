package domain

import "slices"

// HookKind says when a hook runs relative to the test battery.
type HookKind string

// Supported hook kinds.
const (
	HookPre  HookKind = "pre"
	HookPost HookKind = "post"
)

// Valid reports whether k is a known hook kind.
func (k HookKind) Valid() bool { return k == HookPre || k == HookPost }

// HookContext is what a hook sees of the run it belongs to. Metadata is
// shared read-only between all units; Results is a snapshot of the records
// collected before the hook started.
type HookContext struct {
	// RunID identifies the grading run.
	RunID string

	// Metadata is the submission metadata, nil when none was supplied.
	Metadata *SubmissionMetadata

	results []*Outcome
}

// NewHookContext creates a HookContext over a snapshot of results.
func NewHookContext(runID string, metadata *SubmissionMetadata, results []*Outcome) HookContext {
	return HookContext{
		RunID:    runID,
		Metadata: metadata,
		results:  slices.Clone(results),
	}
}

// Results returns the records collected before the hook started, in run
// order. Appending to the returned slice does not affect the run.
func (hc HookContext) Results() []*Outcome { return slices.Clone(hc.results) }
