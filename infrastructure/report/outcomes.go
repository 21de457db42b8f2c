package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ahrav/go-grader/internal/domain"
)

// OutcomeRecord is the interchange form of an outcome produced outside the
// engine, for example by a test harness in another process.
type OutcomeRecord struct {
	Name         string            `json:"name"`
	DisplayName  string            `json:"display_name,omitempty"`
	Score        *float64          `json:"score,omitempty"`
	MaxScore     *float64          `json:"max_score,omitempty"`
	Weight       *float64          `json:"weight,omitempty"`
	ExtraScore   *float64          `json:"extra_score,omitempty"`
	Status       domain.PassStatus `json:"status,omitempty"`
	Errors       []string          `json:"errors,omitempty"`
	Hidden       bool              `json:"hidden,omitempty"`
	Descriptions []string          `json:"descriptions,omitempty"`
}

// DecodeOutcomes reads a JSON array of OutcomeRecord and converts it into
// unresolved outcomes, keeping input order. A record with errors and no
// explicit status is failed.
func DecodeOutcomes(r io.Reader) ([]*domain.Outcome, error) {
	var records []OutcomeRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode outcomes: %w", err)
	}

	results := make([]*domain.Outcome, 0, len(records))
	for i, rec := range records {
		res, err := rec.toOutcome()
		if err != nil {
			return nil, fmt.Errorf("outcome %d (%s): %w", i, rec.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// LoadOutcomes reads outcomes from path.
func LoadOutcomes(path string) ([]*domain.Outcome, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open outcomes: %w", err)
	}
	defer f.Close()

	return DecodeOutcomes(f)
}

func (rec OutcomeRecord) toOutcome() (*domain.Outcome, error) {
	if rec.Name == "" {
		return nil, fmt.Errorf("name is required")
	}

	res := domain.NewOutcome(rec.Name)
	res.SetName(rec.DisplayName)
	res.SetHidden(rec.Hidden)
	res.SetDescriptions(rec.Descriptions)

	setters := []struct {
		v   *float64
		set func(float64) error
	}{
		{rec.Score, res.SetScore},
		{rec.MaxScore, res.SetMaxScore},
		{rec.Weight, res.SetWeight},
		{rec.ExtraScore, res.SetExtraScore},
	}
	for _, s := range setters {
		if s.v == nil {
			continue
		}
		if err := s.set(*s.v); err != nil {
			return nil, err
		}
	}

	for _, msg := range rec.Errors {
		res.AddError(errors.New(msg))
	}

	switch rec.Status {
	case "":
	case domain.StatusPassed, domain.StatusFailed, domain.StatusErrored:
		res.SetStatus(rec.Status)
	default:
		return nil, fmt.Errorf("unknown status %q", rec.Status)
	}
	return res, nil
}
