// Package match decides whether a spoken word is the expected word, a near
// miss, or something else.
package match

import "unicode/utf8"

// Kind is the outcome of comparing an expected word with a spoken word.
type Kind int

const (
	None Kind = iota
	Exact
	Near
)

// Policy holds the edit-distance tolerances for near matches.
type Policy struct {
	// ShortLen is the longest expected word (in runes) that gets ShortTolerance.
	ShortLen       int
	ShortTolerance int
	LongTolerance  int
}

// DefaultPolicy allows one edit for words of up to four letters and two edits
// for longer words.
func DefaultPolicy() Policy {
	return Policy{ShortLen: 4, ShortTolerance: 1, LongTolerance: 2}
}

// Threshold returns the maximum edit distance tolerated for expected.
func (p Policy) Threshold(expected string) int {
	if utf8.RuneCountInString(expected) <= p.ShortLen {
		return p.ShortTolerance
	}
	return p.LongTolerance
}

// Compare classifies spoken against expected. Both must already be normalized.
func (p Policy) Compare(expected, spoken string) Kind {
	if expected == spoken {
		return Exact
	}
	if p.IsNear(expected, spoken) {
		return Near
	}
	return None
}

// IsNear reports whether spoken differs from expected but stays within the
// tolerated edit distance.
func (p Policy) IsNear(expected, spoken string) bool {
	if expected == spoken {
		return false
	}
	limit := p.Threshold(expected)
	// The distance is at least the length difference.
	diff := utf8.RuneCountInString(expected) - utf8.RuneCountInString(spoken)
	if diff < 0 {
		diff = -diff
	}
	if diff > limit {
		return false
	}
	return Distance(expected, spoken) <= limit
}

// Distance returns the Levenshtein distance between a and b, counted in runes.
func Distance(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	dp := make([][]int, len(ar)+1)
	for i := range dp {
		dp[i] = make([]int, len(br)+1)
		dp[i][0] = i
	}
	for j := 0; j <= len(br); j++ {
		dp[0][j] = j
	}

	for i := 1; i <= len(ar); i++ {
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			dp[i][j] = min(
				dp[i-1][j]+1,
				dp[i][j-1]+1,
				dp[i-1][j-1]+cost,
			)
		}
	}
	return dp[len(ar)][len(br)]
}
