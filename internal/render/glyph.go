package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Block glyphs shared by the chart renderers.
var (
	barPartials   = []rune{'▏', '▎', '▍', '▌', '▋', '▊', '▉'}
	intensityRamp = []rune{' ', '░', '▒', '▓', '█'}
	bubbleRamp    = []rune{'·', '○', '◯', '●', '◉'}
)

// barString renders a value as a bar of the given width using full blocks
// plus an eighth-block partial for the remainder.
func barString(value, max float64, width int) string {
	if max <= 0 || value <= 0 || width <= 0 {
		return strings.Repeat(" ", width)
	}
	ratio := value / max
	if ratio > 1 {
		ratio = 1
	}
	filled := ratio * float64(width)
	full := int(filled)

	var b strings.Builder
	b.WriteString(strings.Repeat("█", full))
	if partial := filled - float64(full); partial > 0 && full < width {
		idx := int(partial * float64(len(barPartials)))
		if idx >= len(barPartials) {
			idx = len(barPartials) - 1
		}
		b.WriteRune(barPartials[idx])
		full++
	}
	if full < width {
		b.WriteString(strings.Repeat(" ", width-full))
	}
	return b.String()
}

// intensityChar maps a value within [min, max] onto the shade ramp.
func intensityChar(value, min, max float64) rune {
	return rampChar(intensityRamp, value, min, max)
}

// bubbleChar maps a size within [min, max] onto the bubble glyph ramp.
func bubbleChar(size, min, max float64) rune {
	return rampChar(bubbleRamp, size, min, max)
}

func rampChar(ramp []rune, value, min, max float64) rune {
	if max <= min {
		return ramp[len(ramp)/2]
	}
	ratio := (value - min) / (max - min)
	idx := int(ratio * float64(len(ramp)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ramp) {
		idx = len(ramp) - 1
	}
	return ramp[idx]
}

// scalePos maps a value within [min, max] onto a cell index in [0, size).
func scalePos(value, min, max float64, size int) int {
	if size <= 1 || max <= min {
		return 0
	}
	pos := int((value - min) / (max - min) * float64(size-1))
	if pos < 0 {
		pos = 0
	}
	if pos >= size {
		pos = size - 1
	}
	return pos
}

// truncate shortens a string to n characters, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// pad left-aligns a string in a field of n characters.
func pad(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return s + strings.Repeat(" ", n-w)
	}
	return s
}

// padLeft right-aligns a string in a field of n characters.
func padLeft(s string, n int) string {
	if w := len([]rune(s)); w < n {
		return strings.Repeat(" ", n-w) + s
	}
	return s
}

// formatNumber renders a float without trailing decimal noise.
func formatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// formatFixed renders a float with one decimal place.
func formatFixed(f float64) string {
	return fmt.Sprintf("%.1f", f)
}

// grid is a rune canvas addressed as (x, y) with y=0 at the top.
type grid struct {
	cells  [][]rune
	width  int
	height int
}

func newGrid(width, height int) *grid {
	cells := make([][]rune, height)
	for y := range cells {
		row := make([]rune, width)
		for x := range row {
			row[x] = ' '
		}
		cells[y] = row
	}
	return &grid{cells: cells, width: width, height: height}
}

func (g *grid) set(x, y int, r rune) {
	if x >= 0 && x < g.width && y >= 0 && y < g.height {
		g.cells[y][x] = r
	}
}

func (g *grid) get(x, y int) rune {
	if x >= 0 && x < g.width && y >= 0 && y < g.height {
		return g.cells[y][x]
	}
	return ' '
}

func (g *grid) lines() []string {
	out := make([]string, g.height)
	for y, row := range g.cells {
		out[y] = string(row)
	}
	return out
}

// stats computes min, max, mean, and population standard deviation.
func stats(values []float64) (min, max, mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}
	min, max = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean = sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return min, max, mean, math.Sqrt(variance)
}
