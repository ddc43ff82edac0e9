package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/template"
)

// chartColumns maps each chart type to the column bindings it requires.
var chartColumns = map[string][]string{
	"table":     {},
	"bar":       {"label_column", "value_column"},
	"line":      {"x_column", "y_column"},
	"area":      {"x_column", "y_column"},
	"scatter":   {"x_column", "y_column"},
	"bubble":    {"x_column", "y_column", "size_column"},
	"pie":       {"label_column", "value_column"},
	"histogram": {"value_column"},
	"boxplot":   {"category_column", "value_column"},
	"heatmap":   {"x_column", "y_column", "value_column"},
}

// Validate checks a dashboard config for errors. All failures are CONFIG
// errors and fatal to start.
func Validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return errors.New(errors.ErrConfig,
			"Missing database.url in dashboard config",
			"Add a database section with a connection URL, e.g. postgres://user@host/db")
	}

	if !DatabaseTypes[cfg.Database.Type] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unsupported database type '%s'", cfg.Database.Type),
			"Supported types: "+sortedKeys(DatabaseTypes))
	}

	if strings.TrimSpace(cfg.Query.SQL) == "" {
		return errors.New(errors.ErrConfig,
			"Missing query.sql in dashboard config",
			"Add a query section with the statement to run on each refresh")
	}

	if err := validateArgs(cfg); err != nil {
		return err
	}

	if cfg.Show.Interval > 0 && cfg.Show.Interval < MinInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Refresh interval %s is below the minimum of %s", cfg.Show.Interval, MinInterval),
			"Use an interval of at least 1s, e.g. '30s' or '5m'")
	}

	return validateShow(&cfg.Show)
}

// validateArgs checks variable declarations and that every placeholder in
// the SQL references a declared arg.
func validateArgs(cfg *Config) error {
	declared := make(map[string]bool, len(cfg.Query.Args))
	for _, arg := range cfg.Query.Args {
		if arg.Key == "" {
			return errors.New(errors.ErrConfig,
				"Query arg with empty key",
				"Every entry under query.args needs a 'key'")
		}
		if declared[arg.Key] {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Duplicate query arg '%s'", arg.Key),
				"Each arg key may be declared once")
		}
		declared[arg.Key] = true

		if !ArgTypes[arg.Type] {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Query arg '%s' has unknown type '%s'", arg.Key, arg.Type),
				"Supported types: "+sortedKeys(ArgTypes))
		}
	}

	for _, name := range template.Placeholders(cfg.Query.SQL) {
		if !declared[name] {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Query references undeclared variable '{{%s}}'", name),
				fmt.Sprintf("Declare it under query.args with a key of '%s'", name))
		}
	}

	return nil
}

// validateShow checks the chart configuration.
func validateShow(show *ShowConfig) error {
	required, ok := chartColumns[show.Type]
	if !ok {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unsupported chart type '%s'", show.Type),
			"Supported types: "+sortedKeys(ChartTypes))
	}

	for _, field := range required {
		if columnBinding(show, field) == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Chart type '%s' requires show.%s", show.Type, field),
				fmt.Sprintf("Add %s naming a column from the query result", field))
		}
	}

	if show.Orientation != "horizontal" && show.Orientation != "vertical" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Invalid orientation '%s'", show.Orientation),
			"Use 'horizontal' or 'vertical'")
	}

	if show.Bins < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Histogram bins must be at least 1, got %d", show.Bins),
			"Remove show.bins to use the default of 10")
	}

	if show.Style.Width < 20 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Chart width must be at least 20, got %d", show.Style.Width),
			"Remove show.style.width to use the default of 80")
	}

	if show.MaxRows < 0 {
		return errors.New(errors.ErrConfig,
			"show.max_rows cannot be negative",
			"Use 0 for unlimited rows")
	}

	return nil
}

// columnBinding returns the value of a named column binding field.
func columnBinding(show *ShowConfig, field string) string {
	switch field {
	case "x_column":
		return show.XColumn
	case "y_column":
		return show.YColumn
	case "value_column":
		return show.ValueColumn
	case "label_column":
		return show.LabelColumn
	case "category_column":
		return show.CategoryColumn
	case "size_column":
		return show.SizeColumn
	}
	return ""
}

// sortedKeys joins map keys in sorted order for error suggestions.
func sortedKeys(m map[string]bool) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}
