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

// Series is a named data series for plotting.
type Series struct {
	Name   string
	Values []float64
}

const (
	defaultPlotHeight = 10
	minPlotWidth      = 10
	fallbackWidth     = 80
	axisTop           = "max"
	axisBottom        = "min"
	axisSeparator     = " │ "
	colorReset        = "\x1b[0m"
)

// dash patterns as (period, on) pairs over the x dot coordinate.
var dashes = []struct {
	name   string
	period int
	on     int
}{
	{"solid", 1, 1},
	{"dashed", 6, 3},
	{"dotted", 4, 1},
	{"dashdot", 8, 3},
}

var palette = []string{"\x1b[36m", "\x1b[35m", "\x1b[33m", "\x1b[32m", "\x1b[34m"}

// canvas is a grid of braille cells, each holding 2x4 dots.
type canvas struct {
	cells [][]uint8
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for y := range cells {
		cells[y] = make([]uint8, width)
	}
	return &canvas{cells: cells}
}

func (c *canvas) dotRows() int { return len(c.cells) * 4 }

var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

func (c *canvas) set(x, y int) {
	if x < 0 || y < 0 || y/4 >= len(c.cells) || x/2 >= len(c.cells[y/4]) {
		return
	}
	c.cells[y/4][x/2] |= dotBits[x%2][y%4]
}

// line draws with Bresenham, skipping dots the dash pattern leaves blank.
func (c *canvas) line(x0, y0, x1, y1, period, on int) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := sign(x1-x0), sign(y1-y0)
	e := dx + dy
	for {
		if period <= 1 || x0%period < on {
			c.set(x0, y0)
		}
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

// PlotSeries renders a braille plot, each series scaled to its own range.
func PlotSeries(w io.Writer, title string, series []Series, width, height int) error {
	return PlotSeriesWithColor(w, title, series, width, height, false)
}

// PlotSeriesWithColor is PlotSeries with forced color output.
func PlotSeriesWithColor(w io.Writer, title string, series []Series, width, height int, forceColor bool) error {
	var kept []Series
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
	if width < minPlotWidth {
		width = minPlotWidth
	}

	canvases := make([]*canvas, len(kept))
	lines := make([]string, 0, height+len(kept)+3)
	if title != "" {
		lines = append(lines, title)
	}
	for i, s := range kept {
		values := resample(s.Values, width)
		lo, hi := bounds(values)
		lines = append(lines, fmt.Sprintf("%s: min=%.2f max=%.2f", s.Name, lo, hi))
		if hi-lo < 1e-9 {
			lo, hi = lo-1, hi+1
		}
		cv := newCanvas(width, height)
		d := dashes[i%len(dashes)]
		px, py := -1, -1
		for x, v := range values {
			y := int(math.Round((hi - v) / (hi - lo) * float64(cv.dotRows()-1)))
			if px < 0 {
				px, py = x*2, y
			}
			cv.line(px, py, x*2, y, d.period, d.on)
			px, py = x*2, y
		}
		canvases[i] = cv
	}

	color := useColor(w, forceColor)
	labelWidth := len(axisTop)
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = axisTop
		case height - 1:
			label = axisBottom
		}
		var row strings.Builder
		fmt.Fprintf(&row, "%*s%s", labelWidth, label, axisSeparator)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, cv := range canvases {
				if m := cv.cells[y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			ch := rune(0x2800 + int(mask))
			if color && owner >= 0 {
				row.WriteString(palette[owner%len(palette)])
				row.WriteRune(ch)
				row.WriteString(colorReset)
				continue
			}
			row.WriteRune(ch)
		}
		lines = append(lines, row.String())
	}
	lines = append(lines, legend(kept, color), "")
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func legend(series []Series, color bool) string {
	parts := make([]string, len(series))
	for i, s := range series {
		label := fmt.Sprintf("⠁ %s (%s)", s.Name, dashes[i%len(dashes)].name)
		if color {
			label = palette[i%len(palette)] + label + colorReset
		}
		parts[i] = label
	}
	return "Legend: " + strings.Join(parts, "  ")
}

// PlotWidthFor returns the plot width that fits totalWidth next to the axis.
func PlotWidthFor(totalWidth int) int {
	width := totalWidth - runewidth.StringWidth(axisTop) - runewidth.StringWidth(axisSeparator)
	if width < minPlotWidth {
		return minPlotWidth
	}
	return width
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

func useColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// resample averages down or interpolates up to exactly width points.
func resample(values []float64, width int) []float64 {
	out := make([]float64, width)
	n := len(values)
	switch {
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			start, end := i*n/width, (i+1)*n/width
			if end <= start {
				end = start + 1
			}
			var sum float64
			for _, v := range values[start:end] {
				sum += v
			}
			out[i] = sum / float64(end-start)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := int(pos)
			if idx >= n-1 {
				out[i] = values[n-1]
				continue
			}
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

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
