package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/prognosticator/internal/model"
)

// ColumnTotal is the sum of one numeric column.
type ColumnTotal struct {
	Column string
	Total  float64
}

// columnTotals sums every column whose values are all numeric, in header order.
func columnTotals(rs model.ResultSet) []ColumnTotal {
	var out []ColumnTotal
	for _, col := range rs.Columns() {
		total, numeric := 0.0, true
		for _, row := range rs {
			v, ok := row.Value(col)
			if !ok {
				continue
			}
			f, ok := numericValue(v)
			if !ok {
				numeric = false
				break
			}
			total += f
		}
		if numeric {
			out = append(out, ColumnTotal{Column: col, Total: total})
		}
	}
	return out
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

var totalsPalette = []lipgloss.Color{"39", "135", "42", "208", "220", "201"}

// renderTotalsChart draws one bar per numeric column with a legend of sums.
func renderTotalsChart(rs model.ResultSet, width int) string {
	totals := columnTotals(rs)
	title := chartTitleStyle.Render("Column Totals")
	if len(totals) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, helpStyle.Render("No numeric columns"))
	}

	legendWidth := 24
	chartHeight := 8
	chartWidth := width - legendWidth - 4
	if chartWidth < 20 {
		chartWidth = 20
	}
	if width > 0 && width < 80 {
		chartHeight = 6
	}

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(max(1, chartWidth/len(totals)-1)),
		barchart.WithNoAxis(),
	)

	var legend []string
	for i, t := range totals {
		color := totalsPalette[i%len(totalsPalette)]
		style := lipgloss.NewStyle().Foreground(color).Background(color)
		value := t.Total
		if value < 0 {
			value = 0
		}
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{Name: t.Column, Value: value, Style: style}},
		})
		label := truncateLabel(t.Column, 12)
		legend = append(legend, lipgloss.NewStyle().Foreground(color).
			Render(fmt.Sprintf("%-12s %10s", label, formatTotal(t.Total))))
	}
	bc.Draw()

	chartLines := strings.Split(bc.View(), "\n")
	for len(legend) < len(chartLines) {
		legend = append(legend, "")
	}
	for len(chartLines) < len(legend) {
		chartLines = append(chartLines, "")
	}
	combined := make([]string, len(chartLines))
	for i := range chartLines {
		combined[i] = chartLines[i] + "  " + legend[i]
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(combined, "\n"))
}

func formatTotal(f float64) string {
	if f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%.2f", f)
}

func truncateLabel(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
