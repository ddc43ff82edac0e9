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
	registerChart("scatter", renderScatter)
	registerChart("bubble", renderBubble)
}

type point struct {
	x, y, size float64
}

func renderScatter(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	points, err := extractPoints(result, show, false)
	if err != nil {
		return "", err
	}
	return plotPoints(points, show, false), nil
}

func renderBubble(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	points, err := extractPoints(result, show, true)
	if err != nil {
		return "", err
	}
	return plotPoints(points, show, true), nil
}

func extractPoints(result *db.QueryResult, show *config.ShowConfig, withSize bool) ([]point, error) {
	xIdx := result.ColumnIndex(show.XColumn)
	if xIdx < 0 {
		return nil, missingColumn(show.XColumn)
	}
	yIdx := result.ColumnIndex(show.YColumn)
	if yIdx < 0 {
		return nil, missingColumn(show.YColumn)
	}
	sizeIdx := -1
	if withSize {
		sizeIdx = result.ColumnIndex(show.SizeColumn)
		if sizeIdx < 0 {
			return nil, missingColumn(show.SizeColumn)
		}
	}

	var points []point
	for _, row := range result.Rows {
		if xIdx >= len(row) || yIdx >= len(row) {
			continue
		}
		x, errX := strconv.ParseFloat(row[xIdx], 64)
		y, errY := strconv.ParseFloat(row[yIdx], 64)
		if errX != nil || errY != nil {
			continue
		}
		p := point{x: x, y: y, size: 1}
		if sizeIdx >= 0 {
			if sizeIdx >= len(row) {
				continue
			}
			s, err := strconv.ParseFloat(row[sizeIdx], 64)
			if err != nil {
				continue
			}
			p.size = s
		}
		points = append(points, p)
	}
	if len(points) == 0 {
		return nil, errors.New(errors.ErrChart,
			"No rows with numeric x and y values",
			"Point x_column and y_column at numeric result columns")
	}
	return points, nil
}

func plotPoints(points []point, show *config.ShowConfig, withSize bool) string {
	xMin, xMax := points[0].x, points[0].x
	yMin, yMax := points[0].y, points[0].y
	sMin, sMax := points[0].size, points[0].size
	for _, p := range points {
		xMin, xMax = minMax(xMin, xMax, p.x)
		yMin, yMax = minMax(yMin, yMax, p.y)
		sMin, sMax = minMax(sMin, sMax, p.size)
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
	for _, p := range points {
		x := scalePos(p.x, xMin, xMax, plotW)
		y := plotH - 1 - scalePos(p.y, yMin, yMax, plotH)
		switch {
		case withSize:
			g.set(x, y, bubbleChar(p.size, sMin, sMax))
		case g.get(x, y) == '●':
			g.set(x, y, '◉')
		default:
			g.set(x, y, '●')
		}
	}

	var b strings.Builder
	for row, line := range g.lines() {
		label := "      "
		if row == 0 {
			label = padLeft(formatFixed(yMax), 6)
		} else if row == plotH-1 {
			label = padLeft(formatFixed(yMin), 6)
		}
		b.WriteString(label + " │" + line + "\n")
	}
	b.WriteString("       └" + strings.Repeat("─", plotW) + "\n")
	b.WriteString("        " + pad(formatFixed(xMin), plotW-len(formatFixed(xMax))) + formatFixed(xMax) + "\n")

	b.WriteString("\n")
	fmt.Fprintf(&b, "X: %s | Y: %s | Points: %d", show.XColumn, show.YColumn, len(points))
	if withSize {
		fmt.Fprintf(&b, "\nSize: %s (%s small, %s large)", show.SizeColumn,
			string(bubbleRamp[0]), string(bubbleRamp[len(bubbleRamp)-1]))
	}
	return b.String()
}

func minMax(min, max, v float64) (float64, float64) {
	if v < min {
		min = v
	}
	if v > max {
		max = v
	}
	return min, max
}
