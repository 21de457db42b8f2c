package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ahrav/go-grader/internal/domain"
)

// DefaultMetadataPath is where the grading platform places submission metadata.
const DefaultMetadataPath = "/autograder/submission_metadata.json"

// DecodeMetadata reads submission metadata from r.
func DecodeMetadata(r io.Reader) (*domain.SubmissionMetadata, error) {
	var meta domain.SubmissionMetadata
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode submission metadata: %w", err)
	}
	return &meta, nil
}

// LoadMetadata reads submission metadata from path.
func LoadMetadata(path string) (*domain.SubmissionMetadata, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open submission metadata: %w", err)
	}
	defer f.Close()

	return DecodeMetadata(f)
}
