package statsui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const (
	colorAccent = lipgloss.Color("#C89A3A")
	colorBright = lipgloss.Color("#F0F0F0")
	colorText   = lipgloss.Color("#B8B8B8")
	colorMuted  = lipgloss.Color("#6E6E6E")
	colorEdge   = lipgloss.Color("#4A4A4A")
	colorError  = lipgloss.Color("#FF4D4F")
)

var boxed = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true)

var (
	tabActiveStyle   = boxed.Padding(0, 1).BorderForeground(colorAccent).Foreground(colorBright).Bold(true)
	tabInactiveStyle = boxed.Padding(0, 1).BorderForeground(colorEdge).Foreground(lipgloss.Color("#B0B0B0"))
	cardStyle        = boxed.Padding(0, 1).BorderForeground(colorEdge)
	modalStyle       = boxed.Padding(1, 2).BorderForeground(colorAccent)

	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	textStyle     = lipgloss.NewStyle().Foreground(colorText)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	emphasisStyle = lipgloss.NewStyle().Foreground(colorBright).Bold(true)
)

func wordTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#C0C0C0")).
		PaddingRight(1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorEdge)
	s.Cell = lipgloss.NewStyle().PaddingRight(1)
	s.Selected = s.Cell.Foreground(colorBright).Bold(true)
	return s
}

// tabBarHeight is the rendered height of one bordered tab label.
func tabBarHeight() int {
	return max(lipgloss.Height(tabActiveStyle.Render("X")), 1)
}
