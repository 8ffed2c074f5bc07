// Package align classifies every expected lesson word against a spoken
// transcript.
package align

import (
	"github.com/verte-zerg/lexiread/internal/match"
	"github.com/verte-zerg/lexiread/internal/words"
)

// Class is the verdict for one expected word.
type Class int

const (
	Skipped Class = iota
	Exact
	Near
)

func (c Class) String() string {
	switch c {
	case Exact:
		return "exact"
	case Near:
		return "near"
	default:
		return "skipped"
	}
}

// Entry is the classification of one expected word.
type Entry struct {
	Expected words.Token
	Class    Class
	// SpokenIndex is the index of the consumed spoken token, or -1 when skipped.
	SpokenIndex int
	Spoken      string
}

// Result holds one entry per expected word, in reading order.
type Result []Entry

// Align walks the expected words in order. Each word first tries the spoken
// token at the same position, then the first unused spoken token anywhere that
// matches exactly or nearly. A spoken token is consumed at most once, and a
// spoken token that equals the expected word at its own position is kept for
// that position.
func Align(expected, spoken []words.Token, p match.Policy) Result {
	result := make(Result, len(expected))
	used := make([]bool, len(spoken))
	reserved := make([]bool, len(spoken))
	for i := 0; i < len(expected) && i < len(spoken); i++ {
		reserved[i] = expected[i].Norm == spoken[i].Norm
	}

	for i, exp := range expected {
		entry := Entry{Expected: exp, Class: Skipped, SpokenIndex: -1}
		if idx, kind := locate(exp.Norm, spoken, used, reserved, i, p); idx >= 0 {
			used[idx] = true
			entry.SpokenIndex = idx
			entry.Spoken = spoken[idx].Raw
			entry.Class = classFor(kind)
		}
		result[i] = entry
	}
	return result
}

func locate(expected string, spoken []words.Token, used, reserved []bool, pos int, p match.Policy) (int, match.Kind) {
	if pos < len(spoken) && !used[pos] {
		if reserved[pos] {
			return pos, match.Exact
		}
		if p.IsNear(expected, spoken[pos].Norm) {
			return pos, match.Near
		}
	}
	for j, tok := range spoken {
		if used[j] || reserved[j] {
			continue
		}
		if kind := p.Compare(expected, tok.Norm); kind != match.None {
			return j, kind
		}
	}
	return -1, match.None
}

func classFor(kind match.Kind) Class {
	if kind == match.Exact {
		return Exact
	}
	return Near
}

// Counts returns the number of exact, near and skipped entries.
func (r Result) Counts() (exact, near, skipped int) {
	for _, e := range r {
		switch e.Class {
		case Exact:
			exact++
		case Near:
			near++
		default:
			skipped++
		}
	}
	return exact, near, skipped
}

// Missed returns the normalized expected words that were skipped, in order.
func (r Result) Missed() []string {
	var out []string
	for _, e := range r {
		if e.Class == Skipped {
			out = append(out, e.Expected.Norm)
		}
	}
	return out
}

// Mispronounced returns the near entries.
func (r Result) Mispronounced() []Entry {
	var out []Entry
	for _, e := range r {
		if e.Class == Near {
			out = append(out, e)
		}
	}
	return out
}
