package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
)

func init() {
	registerChart("pie", renderPie)
}

func renderPie(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	labels, values, err := labeledValues(result, show.LabelColumn, show.ValueColumn)
	if err != nil {
		return "", err
	}

	type slice struct {
		label string
		value float64
	}
	total := 0.0
	slices := make([]slice, 0, len(values))
	for i, v := range values {
		if v <= 0 {
			continue
		}
		slices = append(slices, slice{label: labels[i], value: v})
		total += v
	}
	if len(slices) == 0 || total == 0 {
		return "", errors.New(errors.ErrChart,
			fmt.Sprintf("Column '%s' has no positive values", show.ValueColumn),
			"Pie charts need positive values to form proportions")
	}

	sort.SliceStable(slices, func(i, j int) bool {
		return slices[i].value > slices[j].value
	})

	labelW := 0
	for _, s := range slices {
		if len([]rune(s.label)) > labelW {
			labelW = len([]rune(s.label))
		}
	}
	barW := show.Style.Width - labelW - 24
	if barW < 10 {
		barW = 10
	}

	var b strings.Builder
	for _, s := range slices {
		pct := s.value / total * 100
		fmt.Fprintf(&b, "%s │%s│ %5.1f%% (%s)\n",
			pad(s.label, labelW), barString(pct, 100, barW), pct, formatNumber(s.value))
	}

	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", labelW+barW+4) + "\n")
	fmt.Fprintf(&b, "Total: %s | Slices: %d", formatNumber(total), len(slices))
	return b.String(), nil
}
