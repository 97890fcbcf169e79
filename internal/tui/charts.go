package tui

import (
	"github.com/NimbleMarkets/ntcharts/barchart"

	"github.com/tinytelemetry/httpmon/internal/model"
)

// sectionsChart draws the busiest sections of a snapshot as a bar chart.
func sectionsChart(snap model.MetricsSnapshot, topN, width, height int) string {
	top := model.Top(snap.PerSection, topN)
	if len(top) == 0 {
		return dimStyle.Render("no traffic in the last window")
	}
	if width < 20 {
		width = 20
	}
	if height < 4 {
		height = 4
	}

	barWidth := max(1, (width-len(top))/len(top))
	barWidth = min(barWidth, 10)

	bc := barchart.New(width, height,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(barWidth),
	)
	for _, entry := range top {
		bc.Push(barchart.BarData{
			Label: truncate(entry.Value, barWidth),
			Values: []barchart.BarValue{
				{Name: entry.Value, Value: float64(entry.Count), Style: barStyle},
			},
		})
	}
	bc.Draw()
	return bc.View()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
