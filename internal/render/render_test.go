package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qdash/qdash/internal/config"
	"github.com/qdash/qdash/internal/db"
	"github.com/qdash/qdash/internal/errors"
	"github.com/qdash/qdash/internal/vars"
)

func testConfig(chartType string) *config.Config {
	return &config.Config{
		Show: config.ShowConfig{
			Type:           chartType,
			Interval:       0,
			Bins:           10,
			Orientation:    "horizontal",
			XColumn:        "x",
			YColumn:        "y",
			ValueColumn:    "value",
			LabelColumn:    "label",
			CategoryColumn: "category",
			SizeColumn:     "size",
			Style:          config.StyleConfig{Width: 80, Height: 20},
		},
	}
}

func labeledResult() *db.QueryResult {
	return db.NewResult([]string{"label", "value"}, [][]string{
		{"alpha", "30"},
		{"beta", "10"},
		{"gamma", "60"},
	})
}

func xyResult() *db.QueryResult {
	return db.NewResult([]string{"x", "y", "size"}, [][]string{
		{"1", "10", "1"},
		{"2", "40", "5"},
		{"3", "25", "9"},
		{"4", "55", "3"},
	})
}

func TestRender_UnknownChart(t *testing.T) {
	cfg := testConfig("gauge")
	_, err := Render(labeledResult(), cfg, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrChart))
}

func TestRender_Deterministic(t *testing.T) {
	for _, kind := range SupportedCharts() {
		t.Run(kind, func(t *testing.T) {
			cfg := testConfig(kind)
			var result *db.QueryResult
			switch kind {
			case "boxplot":
				result = db.NewResult([]string{"category", "value"}, [][]string{
					{"a", "1"}, {"a", "2"}, {"a", "3"}, {"a", "4"}, {"a", "100"},
					{"b", "5"}, {"b", "6"}, {"b", "7"}, {"b", "8"},
				})
			case "heatmap":
				result = db.NewResult([]string{"x", "y", "value"}, [][]string{
					{"mon", "am", "1"}, {"mon", "pm", "5"},
					{"tue", "am", "3"}, {"tue", "pm", "9"},
				})
			case "bar", "pie":
				result = labeledResult()
			case "histogram":
				result = db.NewResult([]string{"value"}, [][]string{
					{"1"}, {"2"}, {"2"}, {"3"}, {"5"}, {"8"}, {"9"},
				})
			default:
				result = xyResult()
			}

			first, err := Render(result, cfg, Options{CountdownSeconds: 10})
			require.NoError(t, err)
			second, err := Render(result, cfg, Options{CountdownSeconds: 10})
			require.NoError(t, err)
			assert.Equal(t, first, second, "rendering must be byte-identical")
			assert.NotEmpty(t, first)
		})
	}
}

func TestRender_EmptyResult(t *testing.T) {
	cfg := testConfig("table")
	out, err := Render(db.NewResult([]string{"a"}, nil), cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "No data available")
}

func TestRender_Title(t *testing.T) {
	cfg := testConfig("table")
	cfg.Show.Title = "Daily Sales"

	out, err := Render(labeledResult(), cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "Daily Sales")
}

func TestRender_CountdownFooter(t *testing.T) {
	cfg := testConfig("table")
	cfg.Show.ShowCountdown = true

	out, err := Render(labeledResult(), cfg, Options{CountdownSeconds: 17})
	require.NoError(t, err)
	assert.Contains(t, out, "Next refresh in 17s")

	cfg.Show.CountdownFormat = "refresh: {time}"
	out, err = Render(labeledResult(), cfg, Options{CountdownSeconds: 3})
	require.NoError(t, err)
	assert.Contains(t, out, "refresh: 3")

	cfg.Show.ShowCountdown = false
	out, err = Render(labeledResult(), cfg, Options{CountdownSeconds: 3})
	require.NoError(t, err)
	assert.NotContains(t, out, "refresh:")
}

func TestRender_VariablesPanel(t *testing.T) {
	cfg := testConfig("table")
	store, err := vars.NewStore([]vars.Decl{
		{Key: "limit", Type: "number", Default: "10", Description: "max rows"},
	})
	require.NoError(t, err)

	out, err := Render(labeledResult(), cfg, Options{Variables: store.Snapshot()})
	require.NoError(t, err)
	assert.Contains(t, out, "Variables")
	assert.Contains(t, out, "limit")
	assert.Contains(t, out, "max rows")

	out, err = Render(labeledResult(), cfg, Options{})
	require.NoError(t, err)
	assert.NotContains(t, out, "Variables")
}

func TestRender_NoANSIByDefault(t *testing.T) {
	cfg := testConfig("table")
	cfg.Show.Title = "Sales"

	out, err := Render(labeledResult(), cfg, Options{})
	require.NoError(t, err)
	assert.NotContains(t, out, "\x1b[", "artifact should have no escape codes unless style.color is set")
}

func TestErrorArtifact(t *testing.T) {
	cfg := testConfig("table")
	refreshErr := errors.New(errors.ErrConn, "Cannot connect to db", "Check the URL")

	out := ErrorArtifact(cfg, refreshErr, Options{})
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "Cannot connect to db")
	assert.Contains(t, out, "Check the URL")
}

func TestRenderTable(t *testing.T) {
	cfg := testConfig("table")
	out, err := Render(labeledResult(), cfg, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "label")
	assert.Contains(t, out, "value")
	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "┌")
	assert.Contains(t, out, "┼")
	assert.Contains(t, out, "┘")
}

func TestRenderTable_ColumnList(t *testing.T) {
	cfg := testConfig("table")
	cfg.Show.ColumnList = []config.ColumnConfig{
		{Column: "value", Alias: "Total", Width: 10, Align: "right"},
	}

	out, err := Render(labeledResult(), cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "Total")
	assert.NotContains(t, out, "alpha", "unlisted columns are dropped")
}

func TestRenderTable_UnknownColumn(t *testing.T) {
	cfg := testConfig("table")
	cfg.Show.ColumnList = []config.ColumnConfig{{Column: "nope"}}

	_, err := Render(labeledResult(), cfg, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrChart))
}

func TestRenderTable_MaxRows(t *testing.T) {
	cfg := testConfig("table")
	cfg.Show.MaxRows = 2

	out, err := Render(labeledResult(), cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "(1 more rows)")
	assert.NotContains(t, out, "gamma")
}

func TestRenderBar(t *testing.T) {
	cfg := testConfig("bar")
	out, err := Render(labeledResult(), cfg, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "alpha")
	assert.Contains(t, out, "█", "largest value renders full blocks")
	assert.Contains(t, out, "60.0")
}

func TestRenderBar_Vertical(t *testing.T) {
	cfg := testConfig("bar")
	cfg.Show.Orientation = "vertical"

	out, err := Render(labeledResult(), cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "al", "labels appear under the bars")
}

func TestRenderBar_MissingColumn(t *testing.T) {
	cfg := testConfig("bar")
	cfg.Show.ValueColumn = "nope"

	_, err := Render(labeledResult(), cfg, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrChart))
}

func TestRenderPie(t *testing.T) {
	cfg := testConfig("pie")
	out, err := Render(labeledResult(), cfg, Options{})
	require.NoError(t, err)

	assert.Contains(t, out, "60.0%", "gamma is 60 of 100")
	assert.Contains(t, out, "Total: 100")
	assert.Contains(t, out, "Slices: 3")

	// Largest slice first
	gammaPos := strings.Index(out, "gamma")
	alphaPos := strings.Index(out, "alpha")
	assert.Less(t, gammaPos, alphaPos)
}

func TestRenderHistogram(t *testing.T) {
	cfg := testConfig("histogram")
	result := db.NewResult([]string{"value"}, [][]string{
		{"1"}, {"2"}, {"2"}, {"3"}, {"5"}, {"8"}, {"9"},
	})

	out, err := Render(result, cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "Samples: 7")
	assert.Contains(t, out, "Range: 1.00 - 9.00")
	assert.Contains(t, out, "Mean:")
	assert.Contains(t, out, "Std Dev:")
}

func TestRenderBoxplot(t *testing.T) {
	cfg := testConfig("boxplot")
	result := db.NewResult([]string{"category", "value"}, [][]string{
		{"a", "1"}, {"a", "2"}, {"a", "3"}, {"a", "4"}, {"a", "100"},
		{"b", "5"}, {"b", "6"}, {"b", "7"}, {"b", "8"},
	})

	out, err := Render(result, cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "├")
	assert.Contains(t, out, "┤")
	assert.Contains(t, out, "○", "100 is an outlier for category a")
	assert.Contains(t, out, "Median=")
	assert.Contains(t, out, "n=5")
}

func TestRenderHeatmap(t *testing.T) {
	cfg := testConfig("heatmap")
	result := db.NewResult([]string{"x", "y", "value"}, [][]string{
		{"mon", "am", "1"}, {"mon", "pm", "5"},
		{"tue", "am", "3"}, {"tue", "pm", "9"},
	})

	out, err := Render(result, cfg, Options{})
	require.NoError(t, err)
	assert.Contains(t, out, "█", "max value renders full intensity")
	assert.Contains(t, out, "mon")
	assert.Contains(t, out, "am")
	assert.Contains(t, out, "2 x 2")
}

func TestRenderLineAndArea(t *testing.T) {
	for _, kind := range []string{"line", "area", "scatter", "bubble"} {
		t.Run(kind, func(t *testing.T) {
			cfg := testConfig(kind)
			out, err := Render(xyResult(), cfg, Options{})
			require.NoError(t, err)
			assert.Contains(t, out, "X: x | Y: y")
			assert.Contains(t, out, "└")
		})
	}
}

func TestBarString(t *testing.T) {
	assert.Equal(t, "██████████", barString(10, 10, 10))
	assert.Equal(t, "█████     ", barString(5, 10, 10))
	assert.Equal(t, "          ", barString(0, 10, 10))
	assert.Len(t, []rune(barString(3, 7, 10)), 10)
}

func TestIntensityChar(t *testing.T) {
	assert.Equal(t, ' ', intensityChar(0, 0, 10))
	assert.Equal(t, '█', intensityChar(10, 0, 10))
}

func TestBubbleChar(t *testing.T) {
	assert.Equal(t, '·', bubbleChar(1, 1, 9))
	assert.Equal(t, '◉', bubbleChar(9, 1, 9))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "much lo...", truncate("much longer text", 10))
}
