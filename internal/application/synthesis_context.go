package application

import (
	"slices"

	"github.com/ahrav/go-grader/internal/domain"
)

// SynthesisContext pairs an ordered result set with the source of its
// total score. The total is resolved lazily: submission metadata takes
// precedence over an explicit total, and having neither is an error.
type SynthesisContext struct {
	results    []*domain.Outcome
	totalScore *float64
	metadata   *domain.SubmissionMetadata
}

// NewSynthesisContext creates a SynthesisContext. totalScore and metadata
// may each be nil.
func NewSynthesisContext(
	results []*domain.Outcome,
	totalScore *float64,
	metadata *domain.SubmissionMetadata,
) *SynthesisContext {
	sc := &SynthesisContext{
		results:  slices.Clone(results),
		metadata: metadata,
	}
	if totalScore != nil {
		v := *totalScore
		sc.totalScore = &v
	}
	return sc
}

// Results returns the result set in run order.
func (sc *SynthesisContext) Results() []*domain.Outcome { return slices.Clone(sc.results) }

// TotalScore resolves the score ceiling.
func (sc *SynthesisContext) TotalScore() (float64, error) {
	switch {
	case sc.metadata != nil:
		return float64(sc.metadata.Assignment.TotalPoints), nil
	case sc.totalScore != nil:
		return *sc.totalScore, nil
	default:
		return 0, domain.ErrTotalScoreUnavailable
	}
}

// Synthesize resolves the total and runs synth over the result set. A nil
// synth selects domain.ScoreSynthesizer.
func (sc *SynthesisContext) Synthesize(synth domain.Synthesizer) (float64, error) {
	total, err := sc.TotalScore()
	if err != nil {
		return 0, err
	}
	if synth == nil {
		synth = domain.ScoreSynthesizer{}
	}
	return synth.Synthesize(sc.results, total)
}
