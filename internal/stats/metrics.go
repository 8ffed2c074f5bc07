// Package stats contains reading metrics and history reporting.
package stats

import (
	"math"
	"time"

	"github.com/verte-zerg/lexiread/internal/align"
)

// minElapsedMinutes floors elapsed time at one second.
const minElapsedMinutes = 1.0 / 60.0

// Metrics summarizes one attempt.
type Metrics struct {
	// Accuracy is a percentage in [0, 100]; near matches earn half credit.
	Accuracy       int
	WordsPerMinute int
	CorrectCount   int
	NearCount      int
	TotalExpected  int
}

// Compute derives metrics from an alignment, the number of spoken words and
// the listening window. A zero stop means the attempt is still running.
func Compute(r align.Result, spokenCount int, start, stop time.Time) Metrics {
	exact, near, _ := r.Counts()
	m := Metrics{
		CorrectCount:  exact,
		NearCount:     near,
		TotalExpected: len(r),
	}
	m.Accuracy = Accuracy(exact, near, len(r))
	if stop.IsZero() {
		stop = time.Now()
	}
	m.WordsPerMinute = WordsPerMinute(spokenCount, ElapsedMinutes(start, stop))
	return m
}

// Accuracy returns round((exact + near/2) / total * 100), or 0 without words.
func Accuracy(exact, near, total int) int {
	if total <= 0 {
		return 0
	}
	credit := float64(exact) + 0.5*float64(near)
	return int(math.Round(credit / float64(total) * 100))
}

// ElapsedMinutes returns the listening time in minutes, at least one second.
func ElapsedMinutes(start, stop time.Time) float64 {
	minutes := float64(stop.Sub(start).Milliseconds()) / 60000.0
	return math.Max(minutes, minElapsedMinutes)
}

// WordsPerMinute returns round(spoken / minutes).
func WordsPerMinute(spoken int, minutes float64) int {
	if spoken <= 0 || minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(spoken) / minutes))
}
