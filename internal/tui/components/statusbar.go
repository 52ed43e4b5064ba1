package components

import (
	"github.com/theirongolddev/smartsaver/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar. hints are the context key
// hints for the current view; info is right-aligned (card count, flash
// messages).
func RenderStatusBar(width int, hints, info string) string {
	t := theme.Active

	barStyle := lipgloss.NewStyle().
		Background(t.Surface).
		Width(width)

	hintStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	infoStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	left := " [?]help  [q]uit"
	if hints != "" {
		left += "  " + hints
	}
	right := ""
	if info != "" {
		right = info + " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		// Drop the hints before the info when space runs out
		left = " [?]help  [q]uit"
		padding = width - lipgloss.Width(left) - lipgloss.Width(right)
	}
	if padding < 0 {
		padding = 0
	}

	gap := lipgloss.NewStyle().Background(t.Surface).Width(padding).Render("")
	return barStyle.Render(hintStyle.Render(left) + gap + infoStyle.Render(right))
}
