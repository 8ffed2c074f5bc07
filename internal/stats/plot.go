package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"
)

// Series represents a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	fallbackTermWidth = 80
	axisGutter        = "     │ "
	colorReset        = "\x1b[0m"
)

var seriesColors = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m"}

// brailleBits maps a dot at (x%2, y%4) inside a cell to its braille bit.
var brailleBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// canvas is a grid of braille cells, two dots wide and four tall each.
type canvas struct {
	width, height int
	cells         [][]uint8
}

func newCanvas(width, height int) *canvas {
	c := &canvas{width: width, height: height, cells: make([][]uint8, height)}
	for y := range c.cells {
		c.cells[y] = make([]uint8, width)
	}
	return c
}

func (c *canvas) set(x, y int) {
	cx, cy := x/2, y/4
	if x < 0 || y < 0 || cx >= c.width || cy >= c.height {
		return
	}
	c.cells[cy][cx] |= brailleBits[x%2][y%4]
}

// line draws between two dot coordinates with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), -absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// PlotSeries renders a braille line plot, each series scaled to its own range.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return plotSeries(w, title, series, width, height, shouldUseColor(w))
}

// PlotSeriesWithColor renders like PlotSeries with color forced on or off.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, useColor bool) error {
	return plotSeries(w, title, series, width, height, useColor && os.Getenv("NO_COLOR") == "")
}

func plotSeries(w io.Writer, title string, series []Series, width, height int, useColor bool) error {
	kept := series[:0:0]
	for _, s := range series {
		if len(s.Values) > 0 {
			kept = append(kept, s)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if height <= 0 {
		height = defaultPlotHeight
	}
	if width <= 0 {
		width = PlotWidthFor(terminalWidth())
	}
	width = max(width, minPlotWidth)

	layers := make([]*canvas, len(kept))
	var header strings.Builder
	if title != "" {
		header.WriteString(title + "\n")
	}
	for i, s := range kept {
		values := resample(s.Values, width)
		lo, hi := bounds(values)
		fmt.Fprintf(&header, "%s: min=%.1f max=%.1f\n", s.Name, lo, hi)
		if hi-lo < 1e-9 {
			lo, hi = lo-1, hi+1
		}
		layers[i] = newCanvas(width, height)
		dots := height * 4
		prevX, prevY := -1, 0
		for x, v := range values {
			y := int(math.Round((hi - v) / (hi - lo) * float64(dots-1)))
			if prevX < 0 {
				layers[i].set(x*2, y)
			} else {
				layers[i].line(prevX, prevY, x*2, y)
			}
			prevX, prevY = x*2, y
		}
	}
	if _, err := io.WriteString(w, header.String()); err != nil {
		return err
	}

	for y := 0; y < height; y++ {
		var row strings.Builder
		row.WriteString(axisGutter)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, layer := range layers {
				if bits := layer.cells[y][x]; bits != 0 {
					mask |= bits
					if owner < 0 {
						owner = i
					}
				}
			}
			ch := rune(0x2800 + int(mask))
			if useColor && owner >= 0 {
				row.WriteString(seriesColors[owner%len(seriesColors)] + string(ch) + colorReset)
			} else {
				row.WriteRune(ch)
			}
		}
		if _, err := fmt.Fprintln(w, row.String()); err != nil {
			return err
		}
	}

	legend := make([]string, len(kept))
	for i, s := range kept {
		legend[i] = "⠉ " + s.Name
		if useColor {
			legend[i] = seriesColors[i%len(seriesColors)] + legend[i] + colorReset
		}
	}
	_, err := fmt.Fprintf(w, "Legend: %s\n\n", strings.Join(legend, "  "))
	return err
}

// PlotWidthFor computes a plot width that fits within totalWidth columns.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(totalWidth-runewidth.StringWidth(axisGutter), minPlotWidth)
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackTermWidth
	}
	return width
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resample stretches or averages values into exactly n points.
func resample(values []float64, n int) []float64 {
	out := make([]float64, n)
	switch {
	case len(values) == n:
		copy(out, values)
	case len(values) > n:
		for i := range out {
			lo := i * len(values) / n
			hi := max((i+1)*len(values)/n, lo+1)
			var sum float64
			for _, v := range values[lo:hi] {
				sum += v
			}
			out[i] = sum / float64(hi-lo)
		}
	case len(values) == 1 || n == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		step := float64(len(values)-1) / float64(n-1)
		for i := range out {
			pos := float64(i) * step
			idx := min(int(pos), len(values)-2)
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
}

func bounds(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
