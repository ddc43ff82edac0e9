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
	registerChart("bar", renderBar)
}

const maxBarLabelWidth = 15

func renderBar(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	labels, values, err := labeledValues(result, show.LabelColumn, show.ValueColumn)
	if err != nil {
		return "", err
	}

	if show.Orientation == "vertical" {
		return verticalBars(labels, values, show), nil
	}
	return horizontalBars(labels, values, show), nil
}

// labeledValues pairs a label column with a numeric value column, row by
// row. Rows whose value does not parse are skipped.
func labeledValues(result *db.QueryResult, labelCol, valueCol string) ([]string, []float64, error) {
	labelIdx := result.ColumnIndex(labelCol)
	if labelIdx < 0 {
		return nil, nil, missingColumn(labelCol)
	}
	valueIdx := result.ColumnIndex(valueCol)
	if valueIdx < 0 {
		return nil, nil, missingColumn(valueCol)
	}

	var labels []string
	var values []float64
	for _, row := range result.Rows {
		if labelIdx >= len(row) || valueIdx >= len(row) {
			continue
		}
		v, err := strconv.ParseFloat(row[valueIdx], 64)
		if err != nil {
			continue
		}
		labels = append(labels, truncate(row[labelIdx], maxBarLabelWidth))
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, nil, errors.New(errors.ErrChart,
			fmt.Sprintf("Column '%s' has no numeric values", valueCol),
			"Point value_column at a numeric result column")
	}
	return labels, values, nil
}

func horizontalBars(labels []string, values []float64, show *config.ShowConfig) string {
	labelW := 0
	for _, l := range labels {
		if len([]rune(l)) > labelW {
			labelW = len([]rune(l))
		}
	}

	max := values[0]
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	barW := show.Style.Width - labelW - 14
	if barW < 10 {
		barW = 10
	}

	maxBars := len(values)
	if show.Style.Height > 0 && maxBars > show.Style.Height {
		maxBars = show.Style.Height
	}

	var b strings.Builder
	for i := 0; i < maxBars; i++ {
		fmt.Fprintf(&b, "%s │%s│ %s\n",
			pad(labels[i], labelW), barString(values[i], max, barW), formatFixed(values[i]))
	}
	if maxBars < len(values) {
		fmt.Fprintf(&b, "%s │%s│ (%d more)\n",
			pad("...", labelW), strings.Repeat(" ", barW), len(values)-maxBars)
	}
	return strings.TrimRight(b.String(), "\n")
}

func verticalBars(labels []string, values []float64, show *config.ShowConfig) string {
	plotH := show.Style.Height - 2
	if plotH < 3 {
		plotH = 3
	}

	maxBars := len(values)
	barW := 3
	if avail := show.Style.Width - 4; maxBars*barW > avail {
		maxBars = avail / barW
	}

	max := values[0]
	for _, v := range values {
		if v > max {
			max = v
		}
	}

	var b strings.Builder
	for row := plotH - 1; row >= 0; row-- {
		for i := 0; i < maxBars; i++ {
			h := 0
			if max > 0 {
				h = int(values[i] / max * float64(plotH))
			}
			if row < h {
				b.WriteString(strings.Repeat("█", barW-1))
			} else {
				b.WriteString(strings.Repeat(" ", barW-1))
			}
			b.WriteString(" ")
		}
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat("─", maxBars*barW))
	b.WriteString("\n")
	for i := 0; i < maxBars; i++ {
		b.WriteString(pad(truncate(labels[i], barW-1), barW-1) + " ")
	}
	if maxBars < len(labels) {
		fmt.Fprintf(&b, "\n... (%d more bars)", len(labels)-maxBars)
	}
	return strings.TrimRight(b.String(), "\n")
}

func missingColumn(name string) error {
	return errors.New(errors.ErrChart,
		fmt.Sprintf("Column '%s' not found in query result", name),
		"Check the chart's column bindings against the columns the query returns")
}
