package db

import (
	"fmt"
	"strconv"
	"time"
)

// Column type names inferred from result data.
const (
	TypeNumber = "number"
	TypeText   = "text"
)

// Column describes one result column.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// QueryResult is the uniform tabular result every connector produces.
// Cell values are strings; column types are inferred from the data.
type QueryResult struct {
	Columns []Column   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewResult builds a QueryResult, inferring each column's type.
// A column is numeric when every non-empty cell parses as a number.
func NewResult(names []string, rows [][]string) *QueryResult {
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Type: inferColumnType(rows, i)}
	}
	return &QueryResult{Columns: cols, Rows: rows}
}

// Empty reports whether the result has no rows.
func (r *QueryResult) Empty() bool {
	return len(r.Rows) == 0
}

// ColumnIndex returns the index of the named column, or -1.
func (r *QueryResult) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Numbers extracts the named column as floats, skipping cells that do not
// parse. The second return is the count of parsed cells.
func (r *QueryResult) Numbers(name string) ([]float64, int) {
	idx := r.ColumnIndex(name)
	if idx < 0 {
		return nil, 0
	}
	out := make([]float64, 0, len(r.Rows))
	for _, row := range r.Rows {
		if idx >= len(row) {
			continue
		}
		if f, err := strconv.ParseFloat(row[idx], 64); err == nil {
			out = append(out, f)
		}
	}
	return out, len(out)
}

func inferColumnType(rows [][]string, idx int) string {
	sawValue := false
	for _, row := range rows {
		if idx >= len(row) || row[idx] == "" {
			continue
		}
		sawValue = true
		if _, err := strconv.ParseFloat(row[idx], 64); err != nil {
			return TypeText
		}
	}
	if !sawValue {
		return TypeText
	}
	return TypeNumber
}

// FormatValue renders a driver-provided value as a cell string.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(val)
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", val)
	}
}
