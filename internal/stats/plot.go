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

// Chart is a braille line plot. Each series is scaled to its own range.
type Chart struct {
	Title  string
	Series []Series
	Width  int // plot cells; zero sizes to the terminal
	Height int // plot rows; zero uses defaultPlotHeight
	Color  bool
}

const (
	defaultPlotHeight = 8
	minPlotWidth      = 10
	fallbackWidth     = 80
	axisTop           = "max"
	axisBottom        = "min"
	axisRule          = " ┤ "
	ansiReset         = "\x1b[0m"
)

var seriesColors = []string{"\x1b[36m", "\x1b[33m", "\x1b[35m", "\x1b[32m"}

// dash patterns per series index: dot drawn when x%period < on.
var seriesDashes = [][2]int{{1, 1}, {4, 2}, {4, 1}, {6, 3}}

// PlotWidthFor returns the plot cells that fit next to the axis labels in
// totalWidth columns.
func PlotWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		return minPlotWidth
	}
	return max(minPlotWidth, totalWidth-axisWidth())
}

// TerminalWidth reports the stdout width, or a fallback when stdout is not a
// terminal.
func TerminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallbackWidth
	}
	return w
}

// ColorEnabled reports whether w is a color-capable terminal.
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Render writes the chart. Empty series are dropped; nothing is written when
// no series has data.
func (c Chart) Render(w io.Writer) error {
	series := make([]Series, 0, len(c.Series))
	for _, s := range c.Series {
		if len(s.Values) > 0 {
			series = append(series, s)
		}
	}
	if len(series) == 0 {
		return nil
	}
	width := c.Width
	if width <= 0 {
		width = PlotWidthFor(TerminalWidth())
	}
	width = max(width, minPlotWidth)
	height := c.Height
	if height <= 0 {
		height = defaultPlotHeight
	}

	layers := make([]*canvas, len(series))
	var legend strings.Builder
	var header []string
	for i, s := range series {
		values := resample(s.Values, width)
		lo, hi := bounds(s.Values)
		if math.Abs(hi-lo) < 1e-9 {
			lo, hi = lo-1, hi+1
		}
		header = append(header, fmt.Sprintf("%s: %.1f..%.1f", s.Name, lo, hi))
		layers[i] = newCanvas(width, height)
		layers[i].trace(values, lo, hi, seriesDashes[i%len(seriesDashes)])
		if i > 0 {
			legend.WriteString("  ")
		}
		legend.WriteString(c.paint(i, "⠉ "+s.Name))
	}

	var out strings.Builder
	if c.Title != "" {
		out.WriteString(c.Title + "\n")
	}
	out.WriteString(strings.Join(header, "  ") + "\n")
	labelWidth := runewidth.StringWidth(axisTop)
	for y := 0; y < height; y++ {
		label := ""
		switch y {
		case 0:
			label = axisTop
		case height - 1:
			label = axisBottom
		}
		out.WriteString(runewidth.FillLeft(label, labelWidth) + axisRule)
		for x := 0; x < width; x++ {
			var mask uint8
			owner := -1
			for i, l := range layers {
				if m := l.cells[y][x]; m != 0 {
					mask |= m
					if owner < 0 {
						owner = i
					}
				}
			}
			glyph := string(rune(0x2800 + int(mask)))
			if owner >= 0 {
				glyph = c.paint(owner, glyph)
			}
			out.WriteString(glyph)
		}
		out.WriteString("\n")
	}
	out.WriteString(legend.String() + "\n\n")
	_, err := io.WriteString(w, out.String())
	return err
}

func (c Chart) paint(idx int, s string) string {
	if !c.Color {
		return s
	}
	return seriesColors[idx%len(seriesColors)] + s + ansiReset
}

func axisWidth() int {
	return runewidth.StringWidth(axisTop) + runewidth.StringWidth(axisRule)
}

// canvas holds braille cells; every cell is a 2x4 dot grid.
type canvas struct {
	cells [][]uint8
}

func newCanvas(width, height int) *canvas {
	cells := make([][]uint8, height)
	for i := range cells {
		cells[i] = make([]uint8, width)
	}
	return &canvas{cells: cells}
}

var dotBits = [4][2]uint8{{0x01, 0x08}, {0x02, 0x10}, {0x04, 0x20}, {0x40, 0x80}}

func (c *canvas) dot(x, y int) {
	row, col := y/4, x/2
	if x < 0 || y < 0 || row >= len(c.cells) || col >= len(c.cells[row]) {
		return
	}
	c.cells[row][col] |= dotBits[y%4][x%2]
}

// trace draws values as connected segments, one value per cell column.
func (c *canvas) trace(values []float64, lo, hi float64, dash [2]int) {
	rows := len(c.cells) * 4
	plot := func(x, y int) {
		if dash[0] <= 1 || x%dash[0] < dash[1] {
			c.dot(x, y)
		}
	}
	px, py := -1, -1
	for i, v := range values {
		x := i * 2
		y := int(math.Round((hi - v) / (hi - lo) * float64(rows-1)))
		y = max(0, min(y, rows-1))
		if px < 0 {
			plot(x, y)
		} else {
			segment(px, py, x, y, plot)
		}
		px, py = x, y
	}
}

// segment walks a Bresenham line from (x0,y0) to (x1,y1).
func segment(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx, sx := abs(x1-x0), sign(x1-x0)
	dy, sy := -abs(y1-y0), sign(y1-y0)
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			if x0 == x1 {
				return
			}
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			if y0 == y1 {
				return
			}
			e += dx
			y0 += sy
		}
	}
}

// resample maps values onto width points: bucket means when shrinking,
// linear interpolation when stretching.
func resample(values []float64, width int) []float64 {
	n := len(values)
	out := make([]float64, width)
	switch {
	case n == 0 || width == 0:
		return nil
	case n == width:
		copy(out, values)
	case n > width:
		for i := range out {
			lo := i * n / width
			hi := max((i+1)*n/width, lo+1)
			var sum float64
			for _, v := range values[lo:hi] {
				sum += v
			}
			out[i] = sum / float64(hi-lo)
		}
	case n == 1 || width == 1:
		for i := range out {
			out[i] = values[0]
		}
	default:
		for i := range out {
			pos := float64(i) * float64(n-1) / float64(width-1)
			idx := min(int(pos), n-2)
			frac := pos - float64(idx)
			out[i] = values[idx]*(1-frac) + values[idx+1]*frac
		}
	}
	return out
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
