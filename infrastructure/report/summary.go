package report

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ahrav/go-grader/internal/domain"
)

// WriteSummary prints one line per test followed by the total, for people
// reading a terminal rather than the grading platform.
func WriteSummary(w io.Writer, r *domain.Report) error {
	if r == nil {
		return fmt.Errorf("cannot summarise nil report")
	}

	caser := cases.Title(language.English)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range r.Tests {
		name := t.Name
		if t.Visibility == domain.VisibilityHidden {
			name += " (hidden)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", caser.String(string(t.Status)), name, points(t.Score, t.MaxScore))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	total := r.TotalScore
	_, err := fmt.Fprintf(w, "Score: %s\n", points(r.Score, &total))
	return err
}

func points(score float64, maxScore *float64) string {
	s := strconv.FormatFloat(score, 'f', -1, 64)
	if maxScore == nil {
		return s
	}
	return s + "/" + strconv.FormatFloat(*maxScore, 'f', -1, 64)
}
