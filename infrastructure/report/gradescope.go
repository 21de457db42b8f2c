// Package report serialises grading results for the grading platform and
// for people, and reads the platform's submission metadata.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ahrav/go-grader/internal/domain"
)

// DefaultResultsPath is where the grading platform expects the results file.
const DefaultResultsPath = "/autograder/results/results.json"

// WriteJSON encodes r as an indented results document.
func WriteJSON(w io.Writer, r *domain.Report) error {
	if r == nil {
		return fmt.Errorf("cannot write nil report")
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteFile writes r to path, creating parent directories as needed. The
// file is written to a temporary sibling first and renamed into place.
func WriteFile(path string, r *domain.Report) error {
	cleanPath := filepath.Clean(path)
	dir := filepath.Dir(cleanPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".results-*.json")
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, r); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close results file: %w", err)
	}
	if err := os.Rename(tmp.Name(), cleanPath); err != nil {
		return fmt.Errorf("failed to move results file into place: %w", err)
	}
	return nil
}
