package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Bar is one row of an HBarChart.
type Bar struct {
	Label string
	Value float64
}

// HBarChart renders labelled horizontal bars scaled to the largest value,
// with the dollar figure after each bar.
func HBarChart(bars []Bar, color lipgloss.Color, width int) string {
	if len(bars) == 0 {
		return ""
	}
	t := theme.Active

	labelW := 0
	valueW := 0
	peak := 0.0
	for _, b := range bars {
		labelW = max(labelW, lipgloss.Width(b.Label))
		valueW = max(valueW, len(formatChartLabel(b.Value)))
		peak = math.Max(peak, b.Value)
	}
	if peak <= 0 {
		peak = 1
	}

	barW := width - labelW - valueW - 2
	if barW < 4 {
		barW = 4
	}

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	barStyle := lipgloss.NewStyle().Foreground(color).Background(t.Surface)
	trackStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	lines := make([]string, 0, len(bars))
	for _, b := range bars {
		v := math.Max(b.Value, 0)
		filled := int(math.Round(v / peak * float64(barW)))
		if filled > barW {
			filled = barW
		}
		line := labelStyle.Render(fmt.Sprintf("%-*s", labelW, b.Label)) +
			spaceStyle.Render(" ") +
			barStyle.Render(strings.Repeat("▇", filled)) +
			trackStyle.Render(strings.Repeat("·", barW-filled)) +
			spaceStyle.Render(" ") +
			valueStyle.Render(fmt.Sprintf("%*s", valueW, formatChartLabel(b.Value)))
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatChartLabel(v float64) string {
	switch {
	case v >= 1e6:
		return fmt.Sprintf("$%.1fM", v/1e6)
	case v >= 1e4:
		return fmt.Sprintf("$%.0fk", v/1e3)
	case v == math.Trunc(v):
		return fmt.Sprintf("$%.0f", v)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}
