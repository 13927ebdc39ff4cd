package commands

import "github.com/charmbracelet/lipgloss"

// Shared terminal styles for subcommand output
var (
	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6e7681"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff9f"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff5c57"))
	barStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff9f"))
)
