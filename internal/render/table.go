package render

import (
	"fmt"
	"strings"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
)

func init() {
	registerChart("table", renderTable)
}

const maxAutoColumnWidth = 30

// tableColumn is one resolved column: where it comes from in the result
// and how it displays.
type tableColumn struct {
	index  int
	header string
	width  int
	align  string
}

func renderTable(result *db.QueryResult, show *config.ShowConfig) (string, error) {
	cols, err := resolveColumns(result, show)
	if err != nil {
		return "", err
	}

	rows := result.Rows
	truncated := 0
	if show.MaxRows > 0 && len(rows) > show.MaxRows {
		truncated = len(rows) - show.MaxRows
		rows = rows[:show.MaxRows]
	}

	sizeColumns(cols, rows)

	var b strings.Builder
	writeBorder(&b, cols, "┌", "┬", "┐")
	writeRow(&b, cols, func(c tableColumn) string { return c.header })
	writeBorder(&b, cols, "├", "┼", "┤")
	for _, row := range rows {
		row := row
		writeRow(&b, cols, func(c tableColumn) string {
			if c.index < len(row) {
				return row[c.index]
			}
			return ""
		})
	}
	writeBorder(&b, cols, "└", "┴", "┘")

	if truncated > 0 {
		fmt.Fprintf(&b, "... (%d more rows)\n", truncated)
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

// resolveColumns maps the configured column_list onto result columns, or
// takes every result column when no list is configured.
func resolveColumns(result *db.QueryResult, show *config.ShowConfig) ([]tableColumn, error) {
	if len(show.ColumnList) == 0 {
		cols := make([]tableColumn, len(result.Columns))
		for i, c := range result.Columns {
			align := "left"
			if c.Type == db.TypeNumber {
				align = "right"
			}
			cols[i] = tableColumn{index: i, header: c.Name, align: align}
		}
		return cols, nil
	}

	cols := make([]tableColumn, 0, len(show.ColumnList))
	for _, cc := range show.ColumnList {
		idx := result.ColumnIndex(cc.Column)
		if idx < 0 {
			return nil, errors.New(errors.ErrChart,
				fmt.Sprintf("Column '%s' not found in query result", cc.Column),
				"Check show.column_list against the columns the query returns")
		}
		header := cc.Alias
		if header == "" {
			header = cc.Column
		}
		align := cc.Align
		if align == "" {
			if result.Columns[idx].Type == db.TypeNumber {
				align = "right"
			} else {
				align = "left"
			}
		}
		cols = append(cols, tableColumn{index: idx, header: header, width: cc.Width, align: align})
	}
	return cols, nil
}

// sizeColumns fixes each column's width: the configured width, or the
// widest cell capped at maxAutoColumnWidth.
func sizeColumns(cols []tableColumn, rows [][]string) {
	for i := range cols {
		if cols[i].width > 0 {
			continue
		}
		w := len([]rune(cols[i].header))
		for _, row := range rows {
			if cols[i].index < len(row) {
				if cw := len([]rune(row[cols[i].index])); cw > w {
					w = cw
				}
			}
		}
		if w > maxAutoColumnWidth {
			w = maxAutoColumnWidth
		}
		cols[i].width = w
	}
}

func writeBorder(b *strings.Builder, cols []tableColumn, left, mid, right string) {
	b.WriteString(left)
	for i, c := range cols {
		if i > 0 {
			b.WriteString(mid)
		}
		b.WriteString(strings.Repeat("─", c.width+2))
	}
	b.WriteString(right + "\n")
}

func writeRow(b *strings.Builder, cols []tableColumn, cell func(tableColumn) string) {
	b.WriteString("│")
	for _, c := range cols {
		text := truncate(cell(c), c.width)
		switch c.align {
		case "right":
			text = padLeft(text, c.width)
		case "center":
			gap := c.width - len([]rune(text))
			text = strings.Repeat(" ", gap/2) + text + strings.Repeat(" ", gap-gap/2)
		default:
			text = pad(text, c.width)
		}
		b.WriteString(" " + text + " │")
	}
	b.WriteString("\n")
}
