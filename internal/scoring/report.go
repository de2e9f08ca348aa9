package scoring

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// WriteReport prints one line per alternative ordered by rank: the rank, the
// label, the raw score and the score min-max scaled across all alternatives.
// Missing labels default to A1..Am.
func WriteReport(w io.Writer, title string, labels []string, scores []float64, ranks []int) error {
	if len(ranks) != len(scores) {
		return shapeErrorf("ranks", len(ranks), len(scores))
	}
	if labels != nil && len(labels) != len(scores) {
		return shapeErrorf("labels", len(labels), len(scores))
	}

	type line struct {
		Label    string
		Score    float64
		Relative float64
		Rank     int
	}

	relative := MinMaxScale(scores)
	lines := make([]line, len(scores))
	width := len("Alternative")
	for i := range scores {
		label := fmt.Sprintf("A%d", i+1)
		if labels != nil {
			label = labels[i]
		}
		width = max(width, len(label))
		lines[i] = line{Label: label, Score: scores[i], Relative: relative[i], Rank: ranks[i]}
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].Rank < lines[j].Rank
	})

	if _, err := fmt.Fprintf(w, "\n%s:\n", title); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Rank | %-*s | Score     | Relative\n", width, "Alternative"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "-----|-%s-|-----------|---------\n", strings.Repeat("-", width)); err != nil {
		return err
	}

	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%4d | %-*s | %9.4f | %.4f\n", l.Rank, width, l.Label, l.Score, l.Relative); err != nil {
			return fmt.Errorf("rank %d: %w", l.Rank, err)
		}
	}

	if len(scores) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\nScale: Min=%.4f, Max=%.4f\n", floats.Min(scores), floats.Max(scores))
	return err
}
