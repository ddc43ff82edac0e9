package render

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
)

func init() {
	registerChart("line", renderLine)
	registerChart("area", renderArea)
}

func renderLine(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	return renderSeries(result, show, false)
}

func renderArea(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	return renderSeries(result, show, true)
}

// renderSeries plots the y column against x in row order. X values are
// treated as ordered labels, not as a numeric scale.
func renderSeries(result *db.QueryResult, show *config.ShowConfig, fill bool) (string, error) {
	xIdx := result.ColumnIndex(show.XColumn)
	if xIdx < 0 {
		return "", missingColumn(show.XColumn)
	}
	yIdx := result.ColumnIndex(show.YColumn)
	if yIdx < 0 {
		return "", missingColumn(show.YColumn)
	}

	var labels []string
	var values []float64
	for _, row := range result.Rows {
		if xIdx >= len(row) || yIdx >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(row[yIdx], 64)
		if err != nil {
			continue
		}
		labels = append(labels, row[xIdx])
		values = append(values, v)
	}
	if len(values) == 0 {
		return "", errors.New(errors.ErrChart,
			fmt.Sprintf("Column '%s' has no numeric values", show.YColumn),
			"Point y_column at a numeric result column")
	}

	min, max, _, _ := stats(values)
	if max == min {
		max = min + 1
	}

	plotW := show.Style.Width - 12
	if plotW < 20 {
		plotW = 20
	}
	plotH := show.Style.Height - 4
	if plotH < 4 {
		plotH = 4
	}

	g := newGrid(plotW, plotH)
	prevX, prevY := -1, -1
	for i, v := range values {
		x := 0
		if len(values) > 1 {
			x = i * (plotW - 1) / (len(values) - 1)
		}
		y := plotH - 1 - scalePos(v, min, max, plotH)

		if fill {
			g.set(x, y, '▀')
			for fy := y + 1; fy < plotH; fy++ {
				g.set(x, fy, '█')
			}
		} else {
			g.set(x, y, '●')
		}

		if prevX >= 0 {
			connect(g, prevX, prevY, x, y, fill, plotH)
		}
		prevX, prevY = x, y
	}

	var b strings.Builder
	for row, line := range g.lines() {
		label := "      "
		if row == 0 {
			label = padLeft(formatFixed(max), 6)
		} else if row == plotH-1 {
			label = padLeft(formatFixed(min), 6)
		}
		b.WriteString(label + " │" + line + "\n")
	}
	b.WriteString("       └" + strings.Repeat("─", plotW) + "\n")
	b.WriteString("        " + xAxisLabels(labels, plotW) + "\n")

	b.WriteString("\n")
	fmt.Fprintf(&b, "X: %s | Y: %s | Points: %d", show.XColumn, show.YColumn, len(values))
	return b.String(), nil
}

// connect interpolates between consecutive points so the series reads as
// a continuous curve.
func connect(g *grid, x0, y0, x1, y1 int, fill bool, plotH int) {
	if x1 <= x0+1 {
		return
	}
	for x := x0 + 1; x < x1; x++ {
		ratio := float64(x-x0) / float64(x1-x0)
		y := y0 + int(ratio*float64(y1-y0))
		if fill {
			g.set(x, y, '▀')
			for fy := y + 1; fy < plotH; fy++ {
				g.set(x, fy, '█')
			}
		} else if g.get(x, y) == ' ' {
			g.set(x, y, '·')
		}
	}
}

// xAxisLabels places the first, middle, and last x labels under the axis.
func xAxisLabels(labels []string, plotW int) string {
	first := truncate(labels[0], 10)
	if len(labels) == 1 {
		return first
	}
	last := truncate(labels[len(labels)-1], 10)

	line := pad(first, plotW-len([]rune(last)))
	if len(labels) > 2 {
		mid := truncate(labels[len(labels)/2], 10)
		midPos := plotW/2 - len([]rune(mid))/2
		if midPos > len([]rune(first))+1 && midPos+len([]rune(mid)) < plotW-len([]rune(last))-1 {
			runes := []rune(line)
			copy(runes[midPos:], []rune(mid))
			line = string(runes)
		}
	}
	return line + last
}
