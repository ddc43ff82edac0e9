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
	registerChart("boxplot", renderBoxplot)
}

// boxStats holds the five-number summary for one category.
type boxStats struct {
	category                string
	q1, median, q3          float64
	lowWhisker, highWhisker float64
	outliers                []float64
	count                   int
}

func renderBoxplot(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	catIdx := result.ColumnIndex(show.CategoryColumn)
	if catIdx < 0 {
		return "", missingColumn(show.CategoryColumn)
	}
	valIdx := result.ColumnIndex(show.ValueColumn)
	if valIdx < 0 {
		return "", missingColumn(show.ValueColumn)
	}

	grouped := map[string][]float64{}
	var order []string
	for _, row := range result.Rows {
		if catIdx >= len(row) || valIdx >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(row[valIdx], 64)
		if err != nil {
			continue
		}
		cat := row[catIdx]
		if _, seen := grouped[cat]; !seen {
			order = append(order, cat)
		}
		grouped[cat] = append(grouped[cat], v)
	}
	if len(order) == 0 {
		return "", errors.New(errors.ErrChart,
			fmt.Sprintf("Column '%s' has no numeric values", show.ValueColumn),
			"Point value_column at a numeric result column")
	}

	boxes := make([]boxStats, 0, len(order))
	globalMin, globalMax := 0.0, 0.0
	for i, cat := range order {
		box := summarize(cat, grouped[cat])
		lo, hi := grouped[cat][0], grouped[cat][len(grouped[cat])-1]
		if i == 0 || lo < globalMin {
			globalMin = lo
		}
		if i == 0 || hi > globalMax {
			globalMax = hi
		}
		boxes = append(boxes, box)
	}
	if globalMax == globalMin {
		globalMax = globalMin + 1
	}

	labelW := 0
	for _, box := range boxes {
		if w := len([]rune(truncate(box.category, 10))); w > labelW {
			labelW = w
		}
	}
	plotW := show.Style.Width - labelW - 6
	if plotW < 20 {
		plotW = 20
	}

	var b strings.Builder
	for _, box := range boxes {
		b.WriteString(pad(truncate(box.category, 10), labelW) + "  ")
		b.WriteString(boxLine(box, globalMin, globalMax, plotW))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat(" ", labelW+2))
	b.WriteString(pad(formatFixed(globalMin), plotW-len(formatFixed(globalMax))) + formatFixed(globalMax) + "\n")

	b.WriteString("\n")
	for _, box := range boxes {
		fmt.Fprintf(&b, "%s: Q1=%.1f, Median=%.1f, Q3=%.1f, n=%d\n",
			truncate(box.category, 10), box.q1, box.median, box.q3, box.count)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

// boxLine draws one category's box on a value scale:
// whiskers ├──┤, box ▒, median █, outliers ○.
func boxLine(box boxStats, min, max float64, width int) string {
	cells := make([]rune, width)
	for i := range cells {
		cells[i] = ' '
	}

	lw := scalePos(box.lowWhisker, min, max, width)
	q1 := scalePos(box.q1, min, max, width)
	med := scalePos(box.median, min, max, width)
	q3 := scalePos(box.q3, min, max, width)
	hw := scalePos(box.highWhisker, min, max, width)

	for i := lw; i <= hw; i++ {
		cells[i] = '─'
	}
	for i := q1; i <= q3; i++ {
		cells[i] = '▒'
	}
	cells[lw] = '├'
	cells[hw] = '┤'
	cells[med] = '█'
	for _, o := range box.outliers {
		cells[scalePos(o, min, max, width)] = '○'
	}
	return string(cells)
}

// summarize computes quartiles, 1.5·IQR whiskers, and outliers.
// Sorts values in place.
func summarize(category string, values []float64) boxStats {
	sort.Float64s(values)
	n := len(values)

	box := boxStats{
		category: category,
		q1:       values[n/4],
		median:   values[n/2],
		q3:       values[3*n/4],
		count:    n,
	}
	if 3*n/4 >= n {
		box.q3 = values[n-1]
	}

	iqr := box.q3 - box.q1
	loFence := box.q1 - 1.5*iqr
	hiFence := box.q3 + 1.5*iqr

	box.lowWhisker = values[n-1]
	box.highWhisker = values[0]
	for _, v := range values {
		if v >= loFence && v < box.lowWhisker {
			box.lowWhisker = v
		}
		if v <= hiFence && v > box.highWhisker {
			box.highWhisker = v
		}
		if v < loFence || v > hiFence {
			box.outliers = append(box.outliers, v)
		}
	}
	return box
}
