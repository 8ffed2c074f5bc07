package recorder

import (
	"github.com/antzucaro/matchr"

	"github.com/verte-zerg/lexiread/internal/align"
	"github.com/verte-zerg/lexiread/internal/words"
)

const maxErrors = 10

// Performance levels.
const (
	LevelGood          = "Good Performance"
	LevelAverage       = "Average"
	LevelNeedsPractice = "Needs Practice"
)

type paceBand struct {
	good, average int
}

// paceBands holds WPM cut-offs per lesson difficulty.
var paceBands = map[int]paceBand{
	1: {good: 70, average: 45},
	2: {good: 90, average: 55},
	3: {good: 110, average: 70},
}

// Recommendation returns a tip for the given accuracy.
func Recommendation(accuracy int) string {
	switch {
	case accuracy > 85:
		return "Excellent reading! Keep it up!"
	case accuracy > 60:
		return "Good effort! Try reading a bit more slowly and clearly."
	default:
		return "Keep practicing. Focus on pronunciation and pacing."
	}
}

// PerformanceLevel grades reading pace against the lesson difficulty (1..3).
func PerformanceLevel(wpm, difficulty int) string {
	band, ok := paceBands[difficulty]
	if !ok {
		band = paceBands[2]
	}
	switch {
	case wpm >= band.good:
		return LevelGood
	case wpm >= band.average:
		return LevelAverage
	default:
		return LevelNeedsPractice
	}
}

// MissedWords returns skipped words, normalized, first occurrence order,
// at most ten.
func MissedWords(r align.Result) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, w := range r.Missed() {
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
		if len(out) == maxErrors {
			break
		}
	}
	return out
}

// SoundsAlike lists near matches whose Double Metaphone codes agree, as
// "expected~heard". These are more likely recognizer confusions than
// mispronunciations.
func SoundsAlike(r align.Result) []string {
	out := []string{}
	seen := map[string]struct{}{}
	for _, e := range r.Mispronounced() {
		heard := words.Normalize(e.Spoken)
		if !PhoneticMatch(e.Expected.Norm, heard) {
			continue
		}
		pair := e.Expected.Norm + "~" + heard
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		out = append(out, pair)
	}
	return out
}

// PhoneticMatch reports whether two words share a Double Metaphone code.
func PhoneticMatch(a, b string) bool {
	a1, a2 := matchr.DoubleMetaphone(a)
	b1, b2 := matchr.DoubleMetaphone(b)
	if a1 == "" || b1 == "" {
		return false
	}
	return a1 == b1 || (a2 != "" && a2 == b1) || (b2 != "" && a1 == b2) || (a2 != "" && a2 == b2)
}
