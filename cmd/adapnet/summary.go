package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/dd0wney/adapnet/pkg/results"
	"github.com/dd0wney/adapnet/pkg/strategy"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))

	statsBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 2).
			MarginRight(2)

	sharesBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFFF00")).
			Padding(0, 2)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Width(16)

	dominantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

const shareBarWidth = 20

func row(label, value string) string {
	return labelStyle.Render(label) + value
}

// renderSummary draws the end-of-run report.
func renderSummary(s *results.Series, sum results.Summary, outs []output) string {
	stats := strings.Join([]string{
		row("run", s.RunID),
		row("seed", fmt.Sprintf("%d", s.Seed)),
		row("nodes", humanize.Comma(int64(s.Params.Nodes))),
		row("steps", humanize.Comma(int64(sum.Steps))),
		row("duration", s.Duration().Round(time.Millisecond).String()),
		"",
		row("mean prevalence", fmt.Sprintf("%.4f ± %.4f", sum.MeanPrevalence, sum.StdPrevalence)),
		row("median", fmt.Sprintf("%.4f", sum.MedianPrevalence)),
		row("peak", fmt.Sprintf("%.4f at step %s", sum.PeakPrevalence, humanize.Comma(int64(sum.PeakStep)))),
		row("final", fmt.Sprintf("%.4f", sum.FinalPrevalence)),
		"",
		row("transmissions", humanize.Comma(int64(s.Totals.Transmissions))),
		row("rewired", humanize.Comma(int64(sum.TotalRewired))),
		row("exhausted", humanize.Comma(int64(sum.TotalExhausted))),
		row("reseeds", humanize.Comma(int64(sum.Reseeds))),
		row("swaps", humanize.Comma(int64(sum.Swaps))),
	}, "\n")

	shares := renderShares(sum.FinalShares, sum.Dominant)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		statsBoxStyle.Render(stats),
		sharesBoxStyle.Render(shares),
	)

	parts := []string{titleStyle.Render("adapnet run complete"), body}
	if len(outs) > 0 {
		lines := make([]string, 0, len(outs))
		for _, o := range outs {
			line := fmt.Sprintf("%-8s %s", o.Name, o.Target)
			if o.Size > 0 {
				line += " (" + humanize.Bytes(uint64(o.Size)) + ")"
			}
			lines = append(lines, line)
		}
		parts = append(parts, helpStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderShares draws one bar per strategy.
func renderShares(shares [strategy.Count]float64, dominant strategy.Strategy) string {
	lines := []string{"final strategy shares", ""}
	for _, s := range strategy.All {
		v := shares[s]
		filled := int(v*shareBarWidth + 0.5)
		bar := strings.Repeat("█", filled) + strings.Repeat("░", shareBarWidth-filled)
		line := fmt.Sprintf("%-19s %s %5.1f%%", s, bar, v*100)
		if s == dominant {
			line = dominantStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
