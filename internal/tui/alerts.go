package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tinytelemetry/httpmon/internal/model"
	"github.com/tinytelemetry/httpmon/internal/sink"
)

// PageAlerts is the ID of the alert history page.
const PageAlerts = "alerts"

// maxAlertRows bounds the in-memory alert list.
const maxAlertRows = 500

type alertRow struct {
	kind string
	load int
	at   int64
}

// AlertsPage lists alert transitions, newest first.
type AlertsPage struct {
	keys  KeyMap
	rows  []alertRow
	table table.Model
}

// NewAlertsPage creates the alert history page.
func NewAlertsPage() *AlertsPage {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "event", Width: 14},
			{Title: "hits", Width: 8},
			{Title: "logical time", Width: 24},
		}),
		table.WithFocused(true),
	)
	return &AlertsPage{keys: DefaultKeyMap(), table: t}
}

func (p *AlertsPage) ID() string    { return PageAlerts }
func (p *AlertsPage) Init() tea.Cmd { return nil }

func (p *AlertsPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case alertRaisedMsg:
		p.push(alertRow{kind: model.EventAlertRaised, load: msg.Load, at: msg.At})
	case alertClearedMsg:
		p.push(alertRow{kind: model.EventAlertCleared, load: msg.Load, at: msg.At})
	case tea.KeyMsg:
		if key.Matches(msg, p.keys.NextPage) {
			return nil, &PageNav{PageID: PageDashboard}
		}
		var cmd tea.Cmd
		p.table, cmd = p.table.Update(msg)
		return cmd, nil
	}
	return nil, nil
}

func (p *AlertsPage) push(r alertRow) {
	p.rows = append([]alertRow{r}, p.rows...)
	if len(p.rows) > maxAlertRows {
		p.rows = p.rows[:maxAlertRows]
	}
	rows := make([]table.Row, 0, len(p.rows))
	for _, r := range p.rows {
		label := raisedStyle.Render("raised")
		if r.kind == model.EventAlertCleared {
			label = clearedStyle.Render("cleared")
		}
		rows = append(rows, table.Row{label, fmt.Sprint(r.load), time.Unix(r.at, 0).UTC().Format(sink.TimeLayout)})
	}
	p.table.SetRows(rows)
}

// Len returns the number of transitions shown.
func (p *AlertsPage) Len() int { return len(p.rows) }

func (p *AlertsPage) View(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("alert transitions (%d)", len(p.rows))))
	b.WriteString("\n\n")
	if len(p.rows) == 0 {
		b.WriteString(dimStyle.Render("no alerts yet"))
		b.WriteString("\n")
	} else {
		p.table.SetHeight(max(height-5, 3))
		b.WriteString(panelStyle.Render(p.table.View()))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(helpLine(p.keys.NextPage, p.keys.Up, p.keys.Down, p.keys.Quit)))
	return b.String()
}
