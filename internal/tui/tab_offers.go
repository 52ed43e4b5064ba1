package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/smartsaver/internal/offers"
	"github.com/theirongolddev/smartsaver/internal/tui/components"
	"github.com/theirongolddev/smartsaver/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// offersState tracks the offers tab: which bank is selected and the last run.
type offersState struct {
	cursor  int
	running bool
	bank    string
	last    *offers.Result
	lastErr error
	batch   *offers.BatchResult // last run-all; cleared by a single run
}

func (a App) updateOffersKeys(key string) (tea.Model, tea.Cmd, bool) {
	banks := a.runner.Banks()

	switch key {
	case "j", "down":
		a.offers.cursor = clampIndex(a.offers.cursor+1, len(banks))
	case "k", "up":
		a.offers.cursor = clampIndex(a.offers.cursor-1, len(banks))
	case "enter":
		if a.offers.running || len(banks) == 0 {
			return a, nil, true
		}
		bank := banks[clampIndex(a.offers.cursor, len(banks))]
		a.offers.running = true
		a.offers.bank = bank
		return a, tea.Batch(runOfferCmd(a.runner, bank), a.spinner.Tick), true
	case "a":
		if a.offers.running || len(banks) == 0 {
			return a, nil, true
		}
		a.offers.running = true
		a.offers.bank = ""
		return a, tea.Batch(runAllOffersCmd(a.runner), a.spinner.Tick), true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) handleOfferResult(msg OfferResultMsg) (tea.Model, tea.Cmd) {
	a.offers.running = false
	res := msg.Result
	a.offers.last = &res
	a.offers.lastErr = msg.Err
	a.offers.batch = nil

	label := a.runner.Label(res.Bank)
	if msg.Err != nil {
		a.setFlash(fmt.Sprintf("%s offers failed", label))
	} else {
		a.setFlash(fmt.Sprintf("%s offers done in %s", label, res.Duration.Round(time.Millisecond)))
	}
	return a, a.flashCmd()
}

func (a App) handleOfferBatch(msg OfferBatchMsg) (tea.Model, tea.Cmd) {
	a.offers.running = false
	batch := msg.Batch
	a.offers.batch = &batch
	a.offers.last = nil
	a.offers.lastErr = nil

	if batch.Failed > 0 {
		a.setFlash(fmt.Sprintf("%d of %d offer scripts failed", batch.Failed, len(batch.Results)))
	} else {
		a.setFlash(fmt.Sprintf("Ran %d offer scripts", len(batch.Results)))
	}
	return a, a.flashCmd()
}

func runAllOffersCmd(r *offers.Runner) tea.Cmd {
	return func() tea.Msg {
		return OfferBatchMsg{Batch: r.RunAll(context.Background(), nil)}
	}
}

// runOfferCmd runs one bank's offer script off the UI goroutine.
func runOfferCmd(r *offers.Runner, bank string) tea.Cmd {
	return func() tea.Msg {
		res, err := r.Run(context.Background(), bank)
		if res.Bank == "" {
			res.Bank = bank
		}
		return OfferResultMsg{Result: res, Err: err}
	}
}

func (a App) renderOffersTab(cw, h int) string {
	t := theme.Active
	banks := a.runner.Banks()

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	codeStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface)

	if len(banks) == 0 {
		var b strings.Builder
		b.WriteString(mutedStyle.Render("No offer scripts configured. Map a bank to a command in the config file:"))
		b.WriteString("\n\n")
		b.WriteString(codeStyle.Render("[offers.scripts]"))
		b.WriteString("\n")
		b.WriteString(codeStyle.Render(`amex = "~/bin/amex-offers"`))
		return components.ContentCard("Offers", b.String(), cw)
	}

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	cmdStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	spinStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	listW, outW := cw, cw
	if !a.isCompactLayout() {
		listW = cw * 2 / 5
		outW = cw - listW
	}
	inner := components.CardInnerWidth(listW)
	cursor := clampIndex(a.offers.cursor, len(banks))

	var lb strings.Builder
	for i, bank := range banks {
		label := a.runner.Label(bank)
		if i == cursor {
			lb.WriteString(selectedStyle.Render(padRight("▸ "+truncStr(label, inner-2), inner)))
		} else {
			lb.WriteString(rowStyle.Render("  " + truncStr(label, inner-2)))
		}
		lb.WriteString("\n")
		if command, ok := a.runner.Command(bank); ok {
			lb.WriteString(cmdStyle.Render("  " + truncStr(command, inner-2)))
		}
		if i < len(banks)-1 {
			lb.WriteString("\n")
		}
	}
	list := components.ContentCard("Offer scripts", lb.String(), listW)

	// Output of the running or last run
	var ob strings.Builder
	switch {
	case a.offers.running:
		ob.WriteString(spinStyle.Render(a.spinner.View()))
		if a.offers.bank == "" {
			ob.WriteString(mutedStyle.Render(fmt.Sprintf(" Running %d scripts...", len(banks))))
		} else {
			ob.WriteString(mutedStyle.Render(" Running " + a.runner.Label(a.offers.bank) + "..."))
		}
	case a.offers.batch != nil:
		ob.WriteString(a.renderBatchOutput(outW))
	case a.offers.last != nil:
		ob.WriteString(a.renderOfferOutput(outW, h))
	default:
		ob.WriteString(mutedStyle.Render("Press enter to run the selected script, a to run all."))
	}

	if a.isCompactLayout() {
		return list + "\n" + components.ContentCard("Output", ob.String(), cw)
	}
	return components.CardRow([]string{list, components.ContentCard("Output", ob.String(), outW)})
}

func (a App) renderOfferOutput(w, h int) string {
	t := theme.Active
	res := a.offers.last
	inner := components.CardInnerWidth(w)

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	outStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	okStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)

	var b strings.Builder
	label := a.runner.Label(res.Bank)
	if err := a.offers.lastErr; err != nil {
		msg := err.Error()
		if errors.Is(err, offers.ErrNoScript) {
			msg = "no script configured"
		}
		b.WriteString(errStyle.Render("✗ " + label + ": " + truncStr(msg, inner-4)))
	} else {
		b.WriteString(okStyle.Render("✓ " + label))
		b.WriteString(mutedStyle.Render(fmt.Sprintf(" in %s", res.Duration.Round(time.Millisecond))))
	}

	out := strings.TrimRight(res.Output, "\n")
	if out == "" {
		return b.String()
	}

	// Show the tail; scripts tend to print their summary last
	lines := strings.Split(out, "\n")
	maxLines := h - 6
	if maxLines < 3 {
		maxLines = 3
	}
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}
	b.WriteString("\n\n")
	for i, line := range lines {
		b.WriteString(outStyle.Render(truncStr(line, inner)))
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (a App) renderBatchOutput(w int) string {
	t := theme.Active
	batch := a.offers.batch
	inner := components.CardInnerWidth(w)

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	okStyle := lipgloss.NewStyle().Foreground(t.Green).Background(t.Surface).Bold(true)
	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)

	var b strings.Builder
	for i, res := range batch.Results {
		label := a.runner.Label(res.Bank)
		if err := batch.Errs[i]; err != nil {
			b.WriteString(errStyle.Render("✗ " + truncStr(label+": "+err.Error(), inner-2)))
		} else {
			b.WriteString(okStyle.Render("✓ " + label))
			b.WriteString(mutedStyle.Render(fmt.Sprintf(" in %s", res.Duration.Round(time.Millisecond))))
		}
		if i < len(batch.Results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
