package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/prognosticator/internal/form"
	"github.com/tinytelemetry/prognosticator/internal/model"
)

// renderOutcome renders the error panel or result table for o.
// At most one of them is ever produced.
func renderOutcome(o form.Outcome, width int) string {
	switch o.Kind {
	case form.KindValidation, form.KindConnectivity:
		return noticeStyle.Width(panelWidth(width)).Render(o.DisplayMessage())
	case form.KindServer:
		body := lipgloss.JoinVertical(lipgloss.Center,
			labelStyle.Render("Response Status: "+strconv.Itoa(o.Status)),
			o.DisplayMessage(),
		)
		return failureStyle.Width(panelWidth(width)).Render(body)
	case form.KindOK:
		return renderResultTable(o.Rows())
	}
	return ""
}

// renderResultTable draws the table with headers from the first row. Each
// body row lists its own values in its own key order.
func renderResultTable(rs model.ResultSet) string {
	if len(rs) == 0 {
		return ""
	}

	headers := rs.Columns()
	cells := make([][]string, len(rs))
	ncols := len(headers)
	for i, row := range rs {
		for _, v := range row.Values() {
			cells[i] = append(cells[i], model.FormatValue(v))
		}
		ncols = max(ncols, len(cells[i]))
	}

	widths := make([]int, ncols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, line := range cells {
		for i, c := range line {
			widths[i] = max(widths[i], lipgloss.Width(c))
		}
	}

	var b strings.Builder
	b.WriteString(tableLine(headers, widths, headerCellStyle))
	b.WriteString("\n")
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("─", w)
	}
	b.WriteString(lipgloss.NewStyle().Foreground(ColorGray).Render(strings.Join(rule, "─┼─")))
	for _, line := range cells {
		b.WriteString("\n")
		b.WriteString(tableLine(line, widths, lipgloss.NewStyle()))
	}
	return b.String()
}

func tableLine(values []string, widths []int, style lipgloss.Style) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		v := ""
		if i < len(values) {
			v = values[i]
		}
		parts[i] = style.Render(v + strings.Repeat(" ", w-lipgloss.Width(v)))
	}
	return strings.Join(parts, " │ ")
}

func panelWidth(width int) int {
	if width <= 0 {
		return 60
	}
	return min(width-4, 100)
}
