package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	colorDanger = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F6D"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)

	tabStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(colorMuted)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).
			Foreground(colorAccent).Underline(true)

	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorDanger)

	bodyStyle = lipgloss.NewStyle().Padding(1, 2)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(1, 3).
			Width(50)
	dangerModalStyle = modalStyle.BorderForeground(colorDanger)

	buttonStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(colorMuted)
	activeButtonStyle = lipgloss.NewStyle().Padding(0, 2).Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).Background(colorAccent)
	dangerButtonStyle = activeButtonStyle.Background(colorDanger)
)
