package sink

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/termenv"

	"github.com/tinytelemetry/httpmon/internal/logparse"
	"github.com/tinytelemetry/httpmon/internal/model"
)

// TimeLayout is how logical timestamps are printed.
const TimeLayout = "2006-01-02 15:04:05 MST"

// ConsoleConfig holds tunable parameters for the console sink.
type ConsoleConfig struct {
	TopN     int
	Location *time.Location
	NoColor  bool
}

// Console renders events as human-readable text.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	topN int
	loc  *time.Location

	alert   lipgloss.Style
	recover lipgloss.Style
	title   lipgloss.Style
	dim     lipgloss.Style
	key     lipgloss.Style
}

// NewConsole creates a console sink writing to w.
func NewConsole(w io.Writer, conf ...ConsoleConfig) *Console {
	c := &Console{w: w, topN: model.DefaultTopN, loc: time.Local}
	noColor := false
	if len(conf) > 0 {
		if conf[0].TopN > 0 {
			c.topN = conf[0].TopN
		}
		if conf[0].Location != nil {
			c.loc = conf[0].Location
		}
		noColor = conf[0].NoColor
	}

	renderer := lipgloss.NewRenderer(w)
	if noColor {
		renderer.SetColorProfile(termenv.Ascii)
	}
	c.alert = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	c.recover = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	c.title = renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	c.dim = renderer.NewStyle().Foreground(lipgloss.Color("8"))
	c.key = renderer.NewStyle().Foreground(lipgloss.Color("3"))
	return c
}

func (c *Console) formatTime(epoch int64) string {
	return time.Unix(epoch, 0).In(c.loc).Format(TimeLayout)
}

func (c *Console) AlertRaised(e model.AlertRaised) {
	c.print("\n" + c.alert.Render(fmt.Sprintf(
		"High traffic generated an alert - hits = %d, triggered at %s", e.Load, c.formatTime(e.At))) + "\n\n")
}

func (c *Console) AlertCleared(e model.AlertCleared) {
	c.print("\n" + c.recover.Render(fmt.Sprintf(
		"Traffic recovered - hits = %d, alert cleared at %s", e.Load, c.formatTime(e.At))) + "\n\n")
}

func (c *Console) MetricsSnapshot(e model.MetricsSnapshot) {
	var b strings.Builder

	b.WriteString(c.title.Render(fmt.Sprintf("Traffic %s - %s", c.formatTime(e.From), c.formatTime(e.To))))
	b.WriteString("\n")
	b.WriteString(c.dim.Render(strings.Repeat("=", 72)))
	b.WriteString("\n")
	fmt.Fprintf(&b, "requests: %s  bytes: %s  inbound: %s  outbound: %s\n",
		humanize.Comma(int64(e.TotalRequests)),
		humanize.IBytes(e.TotalBytes),
		humanize.IBytes(e.InboundBytes),
		humanize.IBytes(e.OutboundBytes))

	c.writeTable(&b, "sections", e.PerSection)
	c.writeTable(&b, "methods", e.PerMethod)
	c.writeTable(&b, "remotes", e.PerRemote)
	c.writeTable(&b, "status", e.PerStatus)
	b.WriteString("\n")

	c.print(b.String())
}

func (c *Console) writeTable(b *strings.Builder, name string, table map[string]int64) {
	top := model.Top(table, c.topN)
	if len(top) == 0 {
		return
	}
	fmt.Fprintf(b, "%s:\n", c.key.Render(name))
	for _, entry := range top {
		label := entry.Value
		if name == "status" {
			label = fmt.Sprintf("%s (%s)", entry.Value, logparse.StatusClass(entry.Value))
		}
		fmt.Fprintf(b, "\t%-32s requests: %s\n", label, humanize.Comma(entry.Count))
	}
}

// Finish prints the run summary.
func (c *Console) Finish(s RunSummary) {
	var b strings.Builder
	b.WriteString(c.title.Render("Run summary"))
	b.WriteString("\n")
	fmt.Fprintf(&b, "source: %s  lines: %s  ingested: %s  rejected: %s\n",
		s.Source, humanize.Comma(int64(s.Lines)), humanize.Comma(int64(s.Ingested)), humanize.Comma(int64(s.Rejected)))
	fmt.Fprintf(&b, "logical seconds: %s  reports: %d  alerts: %d  final state: %s",
		humanize.Comma(int64(s.Ticks)), s.Reports, s.Alerts, s.State)
	if s.Now > 0 {
		fmt.Fprintf(&b, " at %s", c.formatTime(s.Now))
	}
	b.WriteString("\n")
	c.print(b.String())
}

func (c *Console) print(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.w, s)
}
