package domain

import "time"

// Visibility controls when a report or test entry is shown to the student.
type Visibility string

// Visibility values understood by the grading platform.
const (
	VisibilityVisible        Visibility = "visible"
	VisibilityHidden         Visibility = "hidden"
	VisibilityAfterDueDate   Visibility = "after_due_date"
	VisibilityAfterPublished Visibility = "after_published"
)

// TestReport is the serialisable form of one finalized Outcome.
type TestReport struct {
	// Name is the rich name of the record.
	Name string `json:"name"`

	// Score is the resolved score.
	Score float64 `json:"score"`

	// MaxScore is the resolved ceiling. It is omitted for records whose
	// score came from a custom check without a ceiling.
	MaxScore *float64 `json:"max_score,omitempty"`

	// Status is the pass status.
	Status PassStatus `json:"status"`

	// Output holds the rendered descriptions and errors.
	Output string `json:"output,omitempty"`

	// Visibility is hidden for hidden records and visible otherwise.
	Visibility Visibility `json:"visibility"`
}

// Report is the final outcome of a grading run: the aggregate score and
// one entry per collected record, in run order.
type Report struct {
	// RunID identifies the grading run that produced the report.
	RunID string `json:"-"`

	// Score is the synthesized grade.
	Score float64 `json:"score"`

	// TotalScore is the ceiling the grade was synthesized against.
	TotalScore float64 `json:"-"`

	// ExecutionTime is the wall-clock duration of the run in seconds.
	ExecutionTime float64 `json:"execution_time,omitempty"`

	// Output is a free-text message shown above the tests.
	Output string `json:"output,omitempty"`

	// Visibility controls when the whole report is shown.
	Visibility Visibility `json:"visibility,omitempty"`

	// StdoutVisibility controls when captured stdout is shown.
	StdoutVisibility Visibility `json:"stdout_visibility,omitempty"`

	// Tests holds one entry per record.
	Tests []TestReport `json:"tests"`

	// Timestamp records when this report was created.
	Timestamp time.Time `json:"-"`
}

// NewReport builds a Report from finalized results. Records without a
// resolved score are reported with a zero score.
func NewReport(results []*Outcome, score float64) *Report {
	tests := make([]TestReport, 0, len(results))
	for _, res := range results {
		tests = append(tests, NewTestReport(res))
	}
	return &Report{
		Score:     score,
		Tests:     tests,
		Timestamp: time.Now(),
	}
}

// NewTestReport converts a single record.
func NewTestReport(res *Outcome) TestReport {
	tr := TestReport{
		Name:       res.RichName(),
		Status:     res.Status(),
		Output:     res.RichOutput(),
		Visibility: VisibilityVisible,
	}
	if score, ok := res.Score(); ok {
		tr.Score = score
	}
	if maxScore, ok := res.MaxScore(); ok {
		tr.MaxScore = &maxScore
	}
	if res.Hidden() {
		tr.Visibility = VisibilityHidden
	}
	return tr
}
