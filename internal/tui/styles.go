package tui

import "github.com/charmbracelet/lipgloss"

// Palette shared by every page.
var (
	ColorBlue   = lipgloss.Color("39")
	ColorPurple = lipgloss.Color("135")
	ColorGreen  = lipgloss.Color("42")
	ColorRed    = lipgloss.Color("196")
	ColorYellow = lipgloss.Color("220")
	ColorGray   = lipgloss.Color("244")
	ColorWhite  = lipgloss.Color("255")
	ColorNavy   = lipgloss.Color("17")
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(ColorRed).
			Foreground(ColorRed).
			Padding(0, 1)

	failureStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorYellow).
			Foreground(ColorYellow).
			Padding(0, 1).
			Align(lipgloss.Center)

	headerCellStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)

	buttonStyle = lipgloss.NewStyle().
			Background(ColorPurple).
			Foreground(ColorWhite).
			Padding(0, 2)

	disabledButtonStyle = buttonStyle.
				Background(ColorGray)

	statusLineStyle = lipgloss.NewStyle().
			Background(ColorNavy).
			Foreground(ColorWhite)
)

// renderBranding renders the title with a blue to purple gradient.
func renderBranding(title string) string {
	colors := []string{"#60A5FA", "#7C8CF5", "#8B7BF0", "#9A6AEB", "#A855F7"}
	var out string
	i := 0
	for _, r := range title {
		style := lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colors[i*len(colors)/max(1, len([]rune(title)))]))
		out += style.Render(string(r))
		i++
	}
	return out
}

var (
	helpStyle = lipgloss.NewStyle().Foreground(ColorGray)

	chartTitleStyle = lipgloss.NewStyle().
			Foreground(ColorBlue).
			Bold(true)
)
