package domain

import (
	"fmt"
	"math"
)

// Synthesizer converts a finished, ordered set of outcomes into a single
// grade. Implementations must either resolve every record and return the
// grade or return an *InternalError and leave every record untouched.
type Synthesizer interface {
	// Synthesize validates results against totalScore, allocates the
	// remaining pool across weighted records, resolves every record's
	// score from its pass status and returns the sum of all scores.
	Synthesize(results []*Outcome, totalScore float64) (float64, error)
}

// Verify interface compliance at compile time.
var _ Synthesizer = ScoreSynthesizer{}

// ScoreSynthesizer is the default Synthesizer. It mixes fixed-score records
// (max score set) with weighted records (weight set) that split whatever
// the fixed records leave of the total score, and passes records whose
// score was set by a custom check through unchanged.
//
// Validation runs to completion before any record is mutated, so a failed
// synthesis never leaves a half-resolved result set behind.
type ScoreSynthesizer struct{}

// allocation is the outcome of the validation pass.
type allocation struct {
	fixedSum  float64
	weightSum float64
	weighted  []*Outcome
}

// Validate checks results against the synthesis rules without mutating
// any record. The rules are checked in this order, each across the whole
// result set before the next:
//
//  1. no record has both a max score and a weight
//  2. every record has a max score, a weight or a custom score
//  3. the fixed max scores do not exceed totalScore (extra score exempt)
//  4. no custom score is negative
//  5. no record has both a custom score and an extra score
//
// followed by the finite, non-negative invariants of every record, the
// non-empty weight pool check and a check that no sum overflows.
func (ScoreSynthesizer) Validate(results []*Outcome, totalScore float64) error {
	_, err := plan(results, totalScore)
	return err
}

// Synthesize implements Synthesizer.
func (ScoreSynthesizer) Synthesize(results []*Outcome, totalScore float64) (float64, error) {
	alloc, err := plan(results, totalScore)
	if err != nil {
		return 0, err
	}

	remaining := totalScore - alloc.fixedSum
	for _, res := range alloc.weighted {
		w, _ := res.Weight()
		res.allocate(remaining * (w / alloc.weightSum))
	}

	var total float64
	for _, res := range results {
		if _, hasScore := res.Score(); !hasScore {
			res.finalize(resolve(res))
		}
		score, _ := res.Score()
		total += score
	}
	return total, nil
}

// resolve interprets a record's pass status. Extra credit replaces the max
// score rather than adding to it.
func resolve(res *Outcome) float64 {
	if !res.Status().Passed() {
		return 0
	}
	if extra, ok := res.ExtraScore(); ok {
		return extra
	}
	maxScore, _ := res.MaxScore()
	return maxScore
}

// hasCustomScore reports whether the record's score came from a custom
// check rather than from a previous synthesis.
func hasCustomScore(res *Outcome) bool {
	_, ok := res.Score()
	return ok && !res.Finalized()
}

func plan(results []*Outcome, totalScore float64) (allocation, error) {
	var alloc allocation

	if math.IsNaN(totalScore) || math.IsInf(totalScore, 0) || totalScore < 0 {
		return alloc, NewInternalError("", ErrInvalidTotalScore, fmt.Sprintf("total=%g", totalScore))
	}

	for _, res := range results {
		_, hasMax := res.MaxScore()
		_, hasWeight := res.Weight()
		if hasMax && hasWeight {
			return alloc, NewInternalError(res.RichName(), ErrAmbiguousAllocation, "")
		}
	}

	for _, res := range results {
		_, hasMax := res.MaxScore()
		_, hasWeight := res.Weight()
		_, hasScore := res.Score()
		if !hasMax && !hasWeight && !hasScore {
			return alloc, NewInternalError(res.RichName(), ErrUnscoreable, "")
		}
	}

	for _, res := range results {
		if maxScore, ok := res.MaxScore(); ok && !res.Finalized() {
			alloc.fixedSum += maxScore
		}
	}
	if alloc.fixedSum > totalScore {
		return alloc, NewInternalError("", ErrOverAllocated,
			fmt.Sprintf("sum=%g, total=%g", alloc.fixedSum, totalScore))
	}

	for _, res := range results {
		if score, ok := res.Score(); ok && score < 0 {
			return alloc, NewInternalError(res.RichName(), ErrNegativeScore, fmt.Sprintf("score=%g", score))
		}
	}

	for _, res := range results {
		if _, hasExtra := res.ExtraScore(); hasExtra && hasCustomScore(res) {
			return alloc, NewInternalError(res.RichName(), ErrAmbiguousExtraScore, "")
		}
	}

	for _, res := range results {
		if err := res.CheckValid(); err != nil {
			return alloc, NewInternalError(res.RichName(), err, "")
		}
	}

	for _, res := range results {
		if w, ok := res.Weight(); ok {
			alloc.weighted = append(alloc.weighted, res)
			alloc.weightSum += w
		}
	}
	if len(alloc.weighted) > 0 && alloc.weightSum == 0 {
		return alloc, NewInternalError("", ErrEmptyWeightPool,
			fmt.Sprintf("weighted records=%d", len(alloc.weighted)))
	}
	if math.IsInf(alloc.weightSum, 0) {
		return alloc, NewInternalError("", ErrNonFiniteValue, fmt.Sprintf("weight sum=%g", alloc.weightSum))
	}

	// Every resolved score is bounded by its custom score, its extra score
	// or its share of the total, so a finite ceiling means a finite grade.
	ceiling := totalScore
	for _, res := range results {
		if score, ok := res.Score(); ok {
			ceiling += score
		}
		if extra, ok := res.ExtraScore(); ok {
			ceiling += extra
		}
	}
	if math.IsInf(ceiling, 0) {
		return alloc, NewInternalError("", ErrNonFiniteValue, fmt.Sprintf("score ceiling=%g", ceiling))
	}

	return alloc, nil
}
