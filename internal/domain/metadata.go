package domain

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"
)

// SubmissionMetadata describes the submission being graded as reported by
// the grading platform. Only the fields the engine reads are modelled; the
// platform may send more.
type SubmissionMetadata struct {
	// ID identifies the submission on the platform.
	ID int64 `json:"id"`

	// CreatedAt is when the submission was uploaded.
	CreatedAt time.Time `json:"created_at"`

	// Assignment describes the assignment the submission belongs to.
	Assignment AssignmentMetadata `json:"assignment"`

	// Users lists the submitters.
	Users []Submitter `json:"users"`

	// PreviousSubmissions lists earlier attempts by the same submitters.
	PreviousSubmissions []PreviousSubmission `json:"previous_submissions"`
}

// AssignmentMetadata describes the graded assignment.
type AssignmentMetadata struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	TotalPoints Points     `json:"total_points"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
}

// Submitter is one student attached to the submission.
type Submitter struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	SID   string `json:"sid"`
}

// PreviousSubmission summarises an earlier attempt.
type PreviousSubmission struct {
	SubmissionTime time.Time `json:"submission_time"`
	Score          Points    `json:"score"`
}

// Points is a point value the platform sends either as a JSON number or as
// a quoted number.
type Points float64

// UnmarshalJSON accepts 20, 20.5, "20" and "20.5". null leaves p unchanged.
// NaN and infinities are rejected.
func (p *Points) UnmarshalJSON(data []byte) error {
	s := string(bytes.TrimSpace(data))
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid points %s: %w", data, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid points %s: %w", data, ErrNonFiniteValue)
	}
	*p = Points(v)
	return nil
}

// MarshalJSON writes the quoted form the platform uses.
func (p Points) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatFloat(float64(p), 'f', -1, 64))), nil
}
