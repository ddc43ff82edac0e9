package render

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
)

func init() {
	registerChart("heatmap", renderHeatmap)
}

func renderHeatmap(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	xIdx := result.ColumnIndex(show.XColumn)
	if xIdx < 0 {
		return "", missingColumn(show.XColumn)
	}
	yIdx := result.ColumnIndex(show.YColumn)
	if yIdx < 0 {
		return "", missingColumn(show.YColumn)
	}
	valIdx := result.ColumnIndex(show.ValueColumn)
	if valIdx < 0 {
		return "", missingColumn(show.ValueColumn)
	}

	cells := map[string]map[string]float64{}
	xSet := map[string]bool{}
	var all []float64
	for _, row := range result.Rows {
		if xIdx >= len(row) || yIdx >= len(row) || valIdx >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(row[valIdx], 64)
		if err != nil {
			continue
		}
		x, y := row[xIdx], row[yIdx]
		xSet[x] = true
		if cells[y] == nil {
			cells[y] = map[string]float64{}
		}
		cells[y][x] = v
		all = append(all, v)
	}
	if len(all) == 0 {
		return "", errors.New(errors.ErrChart,
			fmt.Sprintf("Column '%s' has no numeric values", show.ValueColumn),
			"Point value_column at a numeric result column")
	}

	xKeys := make([]string, 0, len(xSet))
	for x := range xSet {
		xKeys = append(xKeys, x)
	}
	sort.Strings(xKeys)
	yKeys := make([]string, 0, len(cells))
	for y := range cells {
		yKeys = append(yKeys, y)
	}
	sort.Strings(yKeys)

	min, max, mean, _ := stats(all)

	yLabelW := 0
	for _, y := range yKeys {
		if w := len([]rune(truncate(y, 12))); w > yLabelW {
			yLabelW = w
		}
	}
	cellW := (show.Style.Width - yLabelW - 6) / len(xKeys)
	if cellW < 1 {
		cellW = 1
	}
	if cellW > 8 {
		cellW = 8
	}

	var b strings.Builder

	// x labels, centered per cell
	b.WriteString(strings.Repeat(" ", yLabelW+2))
	for _, x := range xKeys {
		label := truncate(x, cellW)
		left := (cellW - len([]rune(label))) / 2
		b.WriteString(strings.Repeat(" ", left) + label +
			strings.Repeat(" ", cellW-left-len([]rune(label))))
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat(" ", yLabelW+2) + strings.Repeat("─", cellW*len(xKeys)) + "\n")

	for _, y := range yKeys {
		b.WriteString(padLeft(truncate(y, 12), yLabelW) + " │")
		for _, x := range xKeys {
			ch := ' '
			if v, ok := cells[y][x]; ok {
				ch = intensityChar(v, min, max)
			}
			b.WriteString(strings.Repeat(string(ch), cellW))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	var legend strings.Builder
	for i, ch := range intensityRamp {
		v := min + float64(i)/float64(len(intensityRamp)-1)*(max-min)
		fmt.Fprintf(&legend, "%c(%s) ", ch, formatFixed(v))
	}
	b.WriteString(strings.TrimRight(legend.String(), " ") + "\n")
	fmt.Fprintf(&b, "%d x %d | Range: %.2f - %.2f | Mean: %.2f",
		len(xKeys), len(yKeys), min, max, mean)

	return b.String(), nil
}
