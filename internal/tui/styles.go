package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	alertStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("196")).Padding(0, 1)
	normalStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("16")).Background(lipgloss.Color("42")).Padding(0, 1)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1)
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Background(lipgloss.Color("39"))
	raisedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	clearedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)
