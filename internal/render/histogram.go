package render

import (
	"fmt"
	"strings"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
)

func init() {
	registerChart("histogram", renderHistogram)
}

func renderHistogram(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	values, n := result.Numbers(show.ValueColumn)
	if result.ColumnIndex(show.ValueColumn) < 0 {
		return "", missingColumn(show.ValueColumn)
	}
	if n == 0 {
		return "", errors.New(errors.ErrChart,
			fmt.Sprintf("Column '%s' has no numeric values", show.ValueColumn),
			"Point value_column at a numeric result column")
	}

	min, max, mean, stddev := stats(values)

	bins := show.Bins
	counts := make([]int, bins)
	if max == min {
		bins = 1
		counts = []int{len(values)}
	} else {
		binWidth := (max - min) / float64(bins)
		for _, v := range values {
			idx := int((v - min) / binWidth)
			if idx >= bins {
				idx = bins - 1
			}
			counts[idx]++
		}
	}

	maxCount := 0
	for _, c := range counts {
		if c > maxCount {
			maxCount = c
		}
	}

	plotH := show.Style.Height - 4
	if plotH < 4 {
		plotH = 4
	}
	barW := (show.Style.Width - 12) / bins
	if barW < 1 {
		barW = 1
	}
	plotW := barW * bins

	var b strings.Builder
	for row := plotH - 1; row >= 0; row-- {
		if row == plotH-1 {
			b.WriteString(padLeft(fmt.Sprintf("%d", maxCount), 6) + " │")
		} else {
			b.WriteString("       │")
		}
		for _, count := range counts {
			h := 0
			if maxCount > 0 {
				h = int(float64(count) / float64(maxCount) * float64(plotH))
			}
			var ch string
			switch {
			case row == h-1:
				ch = "▀"
			case row < h:
				ch = "█"
			default:
				ch = " "
			}
			b.WriteString(strings.Repeat(ch, barW))
		}
		b.WriteString("\n")
	}
	b.WriteString("       └" + strings.Repeat("─", plotW) + "\n")
	b.WriteString("        " + pad(formatFixed(min), plotW-len(formatFixed(max))) + formatFixed(max) + "\n")

	b.WriteString("\n")
	fmt.Fprintf(&b, "Samples: %d | Bins: %d\n", len(values), bins)
	fmt.Fprintf(&b, "Range: %.2f - %.2f\n", min, max)
	fmt.Fprintf(&b, "Mean: %.2f | Std Dev: %.2f", mean, stddev)

	return b.String(), nil
}
