// Package render turns query results into terminal-friendly chart text.
// Rendering is pure: the same result, config, and options always produce
// the same bytes.
package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/vars"
)

// chartFunc renders one chart kind. The result is never empty when called.
type chartFunc func(result *db.QueryResult, show *config.ShowConfig) (string, error)

var charts = map[string]chartFunc{}

// registerChart installs a renderer for a chart kind. Called from init
// functions of the per-chart files.
func registerChart(kind string, fn chartFunc) {
	charts[kind] = fn
}

// Options carries the per-refresh decorations around the chart body.
type Options struct {
	// CountdownSeconds is the whole seconds until the next refresh.
	// Rendered only when show.show_countdown is set.
	CountdownSeconds int
	// Variables, when present, render as a panel above the chart.
	Variables []vars.Variable
}

// Render produces the complete artifact text for a query result.
func Render(result *db.QueryResult, cfg *config.Config, opts Options) (string, error) {
	fn, ok := charts[cfg.Show.Type]
	if !ok {
		return "", errors.New(errors.ErrChart,
			fmt.Sprintf("Unsupported chart type '%s'", cfg.Show.Type),
			"Supported types: "+strings.Join(SupportedCharts(), ", "))
	}

	var body string
	if result == nil || result.Empty() {
		body = noDataBlock(cfg.Show.Style.Width)
	} else {
		rendered, err := fn(result, &cfg.Show)
		if err != nil {
			return "", err
		}
		body = rendered
	}

	return assemble(cfg, body, opts), nil
}

// ErrorArtifact renders a failed refresh so the viewer sees what broke
// instead of a stale chart.
func ErrorArtifact(cfg *config.Config, refreshErr error, opts Options) string {
	body := strings.TrimRight(refreshErr.Error(), "\n")
	return assemble(cfg, body, opts)
}

// SupportedCharts returns the registered chart kinds, sorted.
func SupportedCharts() []string {
	kinds := make([]string, 0, len(charts))
	for k := range charts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// assemble stacks the variables panel, the framed chart, and the countdown
// footer into the final artifact text.
func assemble(cfg *config.Config, body string, opts Options) string {
	styles := newStyles(cfg.Show.Style)
	width := cfg.Show.Style.Width

	var sections []string
	if len(opts.Variables) > 0 {
		sections = append(sections, variablesPanel(styles, width, opts.Variables))
	}

	framed := body
	if cfg.Show.Title != "" {
		title := styles.title.Render(truncate(cfg.Show.Title, width-4))
		divider := styles.muted.Render(strings.Repeat("─", width-4))
		framed = title + "\n" + divider + "\n" + body
	}
	sections = append(sections, styles.frame.Width(width-2).Render(framed))

	if cfg.Show.ShowCountdown {
		footer := strings.ReplaceAll(cfg.CountdownFormat(), "{time}",
			strconv.Itoa(opts.CountdownSeconds))
		sections = append(sections, styles.muted.Render(footer))
	}

	return strings.Join(sections, "\n") + "\n"
}

// variablesPanel lists the dashboard's variables above the chart.
func variablesPanel(styles *styleSet, width int, variables []vars.Variable) string {
	keyW, typeW := 8, 7
	for _, v := range variables {
		if len(v.Key) > keyW {
			keyW = len(v.Key)
		}
	}

	var b strings.Builder
	b.WriteString(styles.header.Render("Variables"))
	b.WriteString("\n")
	for i, v := range variables {
		if i > 0 {
			b.WriteString("\n")
		}
		line := pad(v.Key, keyW) + "  " + pad(v.Kind.String(), typeW) + "  " +
			truncate(v.Current.Display(), 24)
		if v.Description != "" {
			line += "  " + styles.muted.Render(truncate(v.Description, 28))
		}
		b.WriteString("  " + line)
	}
	return styles.frame.Width(width - 2).Render(b.String())
}

// noDataBlock is the explicit empty-result rendering. An empty result is
// not an error.
func noDataBlock(width int) string {
	msg := "No data available"
	left := (width - 4 - len(msg)) / 2
	if left < 0 {
		left = 0
	}
	return strings.Repeat(" ", left) + msg
}

// styleSet holds the lipgloss styles for one artifact rendering.
type styleSet struct {
	title  lipgloss.Style
	header lipgloss.Style
	muted  lipgloss.Style
	frame  lipgloss.Style
}

// newStyles builds styles against a renderer with a fixed color profile so
// the artifact bytes never depend on the surrounding terminal. Color is
// ANSI only and opt-in.
func newStyles(style config.StyleConfig) *styleSet {
	r := lipgloss.NewRenderer(io.Discard)
	if style.Color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &styleSet{
		title:  r.NewStyle().Bold(true).Foreground(colorInfo),
		header: r.NewStyle().Bold(true).Foreground(colorSecondary),
		muted:  r.NewStyle().Foreground(colorMuted),
		frame: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSecondary).
			Padding(0, 1),
	}
}

// ANSI palette, kept to the basic 16 colors for terminal compatibility.
const (
	colorInfo      lipgloss.Color = "6" // cyan
	colorSecondary lipgloss.Color = "4" // blue
	colorMuted     lipgloss.Color = "8" // gray
)
