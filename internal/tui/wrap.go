package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/lexiread/internal/align"
)

type styledWord struct {
	s     string
	width int
}

// frontier returns the index after the last expected word the reader has
// reached. Skipped words before it were passed over; words from it on are
// still pending.
func frontier(r align.Result) int {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].Class != align.Skipped {
			return i + 1
		}
	}
	return 0
}

// buildStyledWords colors lesson words by classification. Once the attempt is
// final every unmatched word counts as skipped.
func buildStyledWords(r align.Result, final bool) []styledWord {
	front := frontier(r)
	out := make([]styledWord, 0, len(r))
	for i, e := range r {
		style := pendingStyle
		switch {
		case e.Class == align.Exact:
			style = exactStyle
		case e.Class == align.Near:
			style = nearStyle
		case final || i < front:
			style = skippedStyle
		case i == front:
			style = currentWordStyle
		}
		out = append(out, styledWord{
			s:     style.Render(e.Expected.Raw),
			width: runewidth.StringWidth(e.Expected.Raw),
		})
	}
	return out
}

func renderStyledWords(words []styledWord) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.s
	}
	return strings.Join(parts, " ")
}

// wrapStyledWords breaks lines between words so no line exceeds width.
// A word wider than width gets a line of its own.
func wrapStyledWords(words []styledWord, width int) string {
	if width <= 0 {
		return renderStyledWords(words)
	}
	var out strings.Builder
	lineWidth := 0
	for i, w := range words {
		switch {
		case i == 0:
		case lineWidth+1+w.width > width:
			out.WriteByte('\n')
			lineWidth = 0
		default:
			out.WriteByte(' ')
			lineWidth++
		}
		out.WriteString(w.s)
		lineWidth += w.width
	}
	return out.String()
}
