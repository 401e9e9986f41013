package tui

import "charm.land/lipgloss/v2"

// Calm palette.
var (
	colorPrimary = lipgloss.Color("#0EA5E9") // Sky
	colorAccent  = lipgloss.Color("#A78BFA") // Lavender
	colorLow     = lipgloss.Color("#22C55E") // Green
	colorMid     = lipgloss.Color("#F59E0B") // Amber
	colorHigh    = lipgloss.Color("#F43F5E") // Rose
	colorText    = lipgloss.Color("#F8FAFC")
	colorDim     = lipgloss.Color("#94A3B8")
	colorTrack   = lipgloss.Color("#334155")
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	hintStyle     = lipgloss.NewStyle().Foreground(colorDim).Italic(true)
	selectedStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	optionStyle   = lipgloss.NewStyle().Foreground(colorText)
	errorStyle    = lipgloss.NewStyle().Foreground(colorHigh)
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorTrack).
			Padding(1, 2)
)
