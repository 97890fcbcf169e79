package tui

import tea "github.com/charmbracelet/bubbletea"

// Page is one screen of the dashboard. Monitor messages reach every page;
// key presses only reach the active one.
type Page interface {
	ID() string
	Init() tea.Cmd
	Update(msg tea.Msg) (tea.Cmd, *PageNav)
	View(width, height int) string
}

// PageNav asks the app to switch to another page.
type PageNav struct {
	PageID string
}
