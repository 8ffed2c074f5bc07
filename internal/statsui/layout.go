package statsui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// block pads every line of s to width. When height is positive the result
// has exactly that many lines.
func block(s string, width, height int) string {
	if width <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, line := range lines {
		if gap := width - lipgloss.Width(line); gap > 0 {
			lines[i] = line + strings.Repeat(" ", gap)
		}
	}
	return strings.Join(lines, "\n")
}

func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

func modalWidth(width int) int {
	return max(40, min(width-4, 80))
}

// modalInnerWidth subtracts the modal's border and padding.
func modalInnerWidth(width int) int {
	return max(modalWidth(width)-modalStyle.GetHorizontalFrameSize(), 10)
}

// nextCurveWindow and prevCurveWindow step the rolling window in fives,
// bottoming out at 1.
func nextCurveWindow(n int) int {
	return (max(n, 0)/5 + 1) * 5
}

func prevCurveWindow(n int) int {
	if n <= 5 {
		return 1
	}
	return (n - 1) / 5 * 5
}
