package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/tinytelemetry/httpmon/internal/model"
	"github.com/tinytelemetry/httpmon/internal/monitor"
	"github.com/tinytelemetry/httpmon/internal/sink"
)

// PageDashboard is the ID of the live traffic page.
const PageDashboard = "dashboard"

// DashboardPage shows the current status, the last snapshot and its top tables.
type DashboardPage struct {
	keys      KeyMap
	topN      int
	threshold int

	status   monitor.Status
	snapshot *model.MetricsSnapshot
	summary  *sink.RunSummary
	lastBeat time.Time
}

// NewDashboardPage creates the live traffic page.
func NewDashboardPage(topN, threshold int) *DashboardPage {
	if topN <= 0 {
		topN = model.DefaultTopN
	}
	return &DashboardPage{
		keys:      DefaultKeyMap(),
		topN:      topN,
		threshold: threshold,
		status:    monitor.Status{State: monitor.Normal.String()},
	}
}

func (p *DashboardPage) ID() string    { return PageDashboard }
func (p *DashboardPage) Init() tea.Cmd { return nil }

func (p *DashboardPage) Update(msg tea.Msg) (tea.Cmd, *PageNav) {
	switch msg := msg.(type) {
	case statusMsg:
		p.status = monitor.Status(msg)
		p.lastBeat = time.Now()
	case alertRaisedMsg:
		p.status.State = monitor.Alerting.String()
		p.status.Load = msg.Load
	case alertClearedMsg:
		p.status.State = monitor.Normal.String()
		p.status.Load = msg.Load
	case snapshotMsg:
		snap := model.MetricsSnapshot(msg)
		p.snapshot = &snap
	case finishedMsg:
		s := sink.RunSummary(msg)
		p.summary = &s
	case tea.KeyMsg:
		if key.Matches(msg, p.keys.NextPage) {
			return nil, &PageNav{PageID: PageAlerts}
		}
	}
	return nil, nil
}

func (p *DashboardPage) View(width, height int) string {
	if width <= 0 || height <= 0 {
		return "Initializing dashboard..."
	}

	var b strings.Builder
	b.WriteString(p.header(width))
	b.WriteString("\n\n")

	if p.snapshot == nil {
		b.WriteString(dimStyle.Render("waiting for the first report..."))
		b.WriteString("\n")
	} else {
		b.WriteString(p.snapshotView(width, height))
	}

	if p.summary != nil {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render(fmt.Sprintf("input finished: %s lines, %s ingested, %s rejected",
			humanize.Comma(int64(p.summary.Lines)),
			humanize.Comma(int64(p.summary.Ingested)),
			humanize.Comma(int64(p.summary.Rejected)))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render(helpLine(p.keys.NextPage, p.keys.Quit)))
	return b.String()
}

func (p *DashboardPage) header(width int) string {
	badge := normalStyle.Render("NORMAL")
	if p.status.State == monitor.Alerting.String() {
		badge = alertStyle.Render("HIGH TRAFFIC")
	}

	clock := "--"
	if p.status.Started {
		clock = time.Unix(p.status.Now, 0).UTC().Format(sink.TimeLayout)
	}
	line := fmt.Sprintf("%s  %s  load %d/%d  records %s  rejected %s",
		titleStyle.Render("httpmon"), clock, p.status.Load, p.threshold,
		humanize.Comma(int64(p.status.Ingested)), humanize.Comma(int64(p.status.Rejected)))
	return lipgloss.JoinHorizontal(lipgloss.Center, badge, " ", lipgloss.NewStyle().MaxWidth(max(width-16, 10)).Render(line))
}

func (p *DashboardPage) snapshotView(width, height int) string {
	s := p.snapshot
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s - %s\n", titleStyle.Render("last report"),
		time.Unix(s.From, 0).UTC().Format(sink.TimeLayout), time.Unix(s.To, 0).UTC().Format(sink.TimeLayout))
	fmt.Fprintf(&b, "requests %s  bytes %s  in %s  out %s\n\n",
		humanize.Comma(int64(s.TotalRequests)), humanize.IBytes(s.TotalBytes),
		humanize.IBytes(s.InboundBytes), humanize.IBytes(s.OutboundBytes))

	chartHeight := min(max(height/3, 4), 12)
	b.WriteString(panelStyle.Render(sectionsChart(*s, p.topN, max(width-6, 20), chartHeight)))
	b.WriteString("\n")
	var legend []string
	for _, entry := range model.Top(s.PerSection, p.topN) {
		legend = append(legend, fmt.Sprintf("%s %s", entry.Value, humanize.Comma(entry.Count)))
	}
	if len(legend) > 0 {
		b.WriteString(dimStyle.Render("sections: " + strings.Join(legend, "  ")))
		b.WriteString("\n")
	}

	colWidth := max((width-8)/3, 18)
	tables := []string{
		panelStyle.Render(topTable("remote", s.PerRemote, p.topN, colWidth)),
		panelStyle.Render(topTable("method", s.PerMethod, p.topN, colWidth)),
		panelStyle.Render(topTable("status", s.PerStatus, p.topN, colWidth)),
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tables...))
	b.WriteString("\n")
	return b.String()
}

// topTable renders one frequency table with the bubbles table component.
func topTable(title string, counts map[string]int64, topN, width int) string {
	countWidth := 8
	cols := []table.Column{
		{Title: title, Width: max(width-countWidth-4, 8)},
		{Title: "hits", Width: countWidth},
	}
	var rows []table.Row
	for _, entry := range model.Top(counts, topN) {
		rows = append(rows, table.Row{entry.Value, humanize.Comma(entry.Count)})
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithHeight(topN+1),
		table.WithFocused(false),
	)
	return t.View()
}
