package components

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a plain block bar with percentage, used on the
// loading screen.
func ProgressBar(pct float64, width int) string {
	t := theme.Active
	pct = clamp01(pct)
	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	filledStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	emptyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pctStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	var b strings.Builder
	b.WriteString(filledStyle.Render(strings.Repeat("█", filled)))
	b.WriteString(emptyStyle.Render(strings.Repeat("░", width-filled)))

	return b.String() + spaceStyle.Render(" ") + pctStyle.Render(fmt.Sprintf("%.0f%%", pct*100))
}

// ColorForPct returns the bar color for a benefit's utilization. A credit
// that is mostly unused is the thing to act on, so low usage is warm and a
// fully used credit is green.
func ColorForPct(pct float64) string {
	t := theme.Active
	switch {
	case pct >= 0.9:
		return string(t.Green)
	case pct >= 0.5:
		return string(t.Yellow)
	case pct > 0:
		return string(t.Orange)
	default:
		return string(t.Red)
	}
}

// UsageBar renders a benefit's used/limit bar followed by its percentage.
// A benefit without a limit gets an empty, unlabelled track.
func UsageBar(pct float64, hasLimit bool, width int) string {
	t := theme.Active
	pct = clamp01(pct)

	barW := width - 5
	if barW < 4 {
		barW = 4
	}

	bar := progress.New(
		progress.WithSolidFill(ColorForPct(pct)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	spaceStyle := lipgloss.NewStyle().Background(t.Surface)
	if !hasLimit {
		return bar.ViewAs(0) + spaceStyle.Render("     ")
	}

	pctStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(ColorForPct(pct))).
		Background(t.Surface).
		Bold(true)

	return bar.ViewAs(pct) +
		spaceStyle.Render(" ") +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", pct*100))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
