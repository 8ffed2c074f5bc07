package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/lexiread/internal/align"
)

// ResultTableLines formats one row per expected word: position, expected
// text, what was heard for it and its class.
func ResultTableLines(r align.Result) []string {
	rows := make([][]string, len(r))
	for i, e := range r {
		heard := e.Spoken
		if e.SpokenIndex < 0 {
			heard = "-"
		}
		rows[i] = []string{strconv.Itoa(i + 1), e.Expected.Raw, heard, e.Class.String()}
	}
	return formatTable([]string{"#", "Expected", "Heard", "Result"}, rows, map[int]bool{0: true})
}

// RenderResult prints the per-word table followed by the attempt metrics.
func RenderResult(w io.Writer, r align.Result, m Metrics) error {
	for _, line := range ResultTableLines(r) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\nAccuracy: %d%%\nWPM: %d\nExact: %d  Near: %d  Expected: %d\n",
		m.Accuracy, m.WordsPerMinute, m.CorrectCount, m.NearCount, m.TotalExpected)
	return err
}
