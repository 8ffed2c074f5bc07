package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// maxCellWidth caps a column so one long transcript token cannot stretch
// the whole table.
const maxCellWidth = 24

// formatTable lays out headers and rows as space-separated columns sized by
// display width. Columns listed in right are right-aligned.
func formatTable(headers []string, rows [][]string, right map[int]bool) []string {
	all := make([][]string, 0, len(rows)+1)
	if len(headers) > 0 {
		all = append(all, headers)
	}
	all = append(all, rows...)

	var widths []int
	for _, row := range all {
		for i, cell := range row {
			if i == len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], min(runewidth.StringWidth(cell), maxCellWidth))
		}
	}
	if len(widths) == 0 {
		return nil
	}

	lines := make([]string, len(all))
	cells := make([]string, len(widths))
	for n, row := range all {
		for i, w := range widths {
			cell := ""
			if i < len(row) {
				cell = runewidth.Truncate(row[i], w, "…")
			}
			if right[i] {
				cells[i] = runewidth.FillLeft(cell, w)
			} else {
				cells[i] = runewidth.FillRight(cell, w)
			}
		}
		lines[n] = strings.Join(cells, " ")
	}
	return lines
}
