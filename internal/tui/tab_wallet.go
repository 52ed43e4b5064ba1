package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/cli"
	"github.com/theirongolddev/smartsaver/internal/logging"
	"github.com/theirongolddev/smartsaver/internal/summary"
	"github.com/theirongolddev/smartsaver/internal/tui/components"
	"github.com/theirongolddev/smartsaver/internal/tui/theme"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

const (
	tabWallet = iota
	tabOffers
	tabSettings
)

type editMode int

const (
	editNone editMode = iota
	editUsage
	editNotes
)

// walletState holds the wallet tab state. Whether the list or the detail
// view shows is decided by the wallet's open card, not stored here.
type walletState struct {
	cursor  int // selected card in the list
	offset  int // list scroll offset
	benefit int // selected benefit in the detail view

	editing editMode
	usage   textinput.Model
	notes   textarea.Model
}

func (ws *walletState) resize(cw int) {
	if ws.editing == editNotes {
		ws.notes.SetWidth(components.CardInnerWidth(cw))
	}
}

func newUsageInput(current float64) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "$ "
	ti.Placeholder = "0"
	ti.CharLimit = 16
	ti.Width = 16
	ti.SetValue(cli.FormatAmount(current))
	ti.CursorEnd()
	return ti
}

func newNotesInput(notes string, width int) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = "Annual fee date, retention offers, anything worth remembering"
	ta.ShowLineNumbers = false
	ta.CharLimit = 4000
	ta.SetWidth(width)
	ta.SetHeight(6)
	ta.SetValue(notes)
	return ta
}

// ─── Keys ───────────────────────────────────────────────────────

func (a App) updateWalletKeys(key string) (tea.Model, tea.Cmd, bool) {
	if a.wallet == nil {
		return a, nil, false
	}
	if a.wallet.CurrentID() != "" {
		return a.updateDetailKeys(key)
	}

	switch key {
	case "j", "down":
		a.walletMove(1)
	case "k", "up":
		a.walletMove(-1)
	case "g":
		a.walletState.cursor = 0
		a.walletState.offset = 0
	case "G":
		a.walletState.cursor = max(a.wallet.Len()-1, 0)
	case "enter":
		cards := a.wallet.Cards()
		if a.walletState.cursor < len(cards) {
			// Missing ids are a no-op
			if err := a.wallet.OpenCard(cards[a.walletState.cursor].ID); err == nil {
				a.walletState.benefit = 0
			}
		}
	case "a":
		m, cmd := a.openCardForm()
		return m, cmd, true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) updateDetailKeys(key string) (tea.Model, tea.Cmd, bool) {
	card, ok := a.wallet.Current()
	if !ok {
		a.wallet.CloseCard()
		return a, nil, true
	}

	switch key {
	case "esc", "q", "backspace":
		a.wallet.CloseCard()
	case "j", "down":
		a.walletMove(1)
	case "k", "up":
		a.walletMove(-1)
	case "n":
		m, cmd := a.openBenefitForm(card)
		return m, cmd, true
	case "x":
		if a.walletState.benefit < len(card.Benefits) {
			a.removeBenefit(card.ID, a.walletState.benefit)
			return a, a.flashCmd(), true
		}
	case "u":
		if a.walletState.benefit < len(card.Benefits) {
			a.walletState.editing = editUsage
			a.walletState.usage = newUsageInput(card.Benefits[a.walletState.benefit].Used)
			cmd := a.walletState.usage.Focus()
			return a, cmd, true
		}
	case "e":
		a.walletState.editing = editNotes
		a.walletState.notes = newNotesInput(card.Notes, components.CardInnerWidth(a.contentWidth()))
		cmd := a.walletState.notes.Focus()
		return a, cmd, true
	case "D":
		m, cmd := a.openDeleteForm(card)
		return m, cmd, true
	default:
		return a, nil, false
	}
	return a, nil, true
}

// walletMove moves the list cursor, or the benefit cursor in the detail view.
func (a *App) walletMove(delta int) {
	if a.wallet == nil {
		return
	}
	if card, ok := a.wallet.Current(); ok {
		a.walletState.benefit = clampIndex(a.walletState.benefit+delta, len(card.Benefits))
		return
	}
	a.walletState.cursor = clampIndex(a.walletState.cursor+delta, a.wallet.Len())
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

// ─── Inline editors ─────────────────────────────────────────────

func (a App) updateWalletEditor(msg tea.Msg) (tea.Model, tea.Cmd) {
	ws := &a.walletState

	if km, ok := msg.(tea.KeyMsg); ok {
		switch ws.editing {
		case editUsage:
			switch km.String() {
			case "enter":
				a.commitUsage()
				ws.editing = editNone
				return a, a.flashCmd()
			case "esc":
				ws.editing = editNone
				return a, nil
			}
		case editNotes:
			switch km.String() {
			case "esc", "ctrl+s":
				a.commitNotes()
				ws.editing = editNone
				return a, a.flashCmd()
			}
		}
	}

	var cmd tea.Cmd
	switch ws.editing {
	case editUsage:
		ws.usage, cmd = ws.usage.Update(msg)
	case editNotes:
		ws.notes, cmd = ws.notes.Update(msg)
	}
	return a, cmd
}

func (a *App) commitUsage() {
	id := a.wallet.CurrentID()
	used := wallet.ParseAmount(a.walletState.usage.Value())
	a.report(a.wallet.SetUsedAt(context.Background(), id, a.walletState.benefit, used), "")
}

func (a *App) commitNotes() {
	card, ok := a.wallet.Current()
	notes := a.walletState.notes.Value()
	if !ok || notes == card.Notes {
		return
	}
	a.report(a.wallet.UpdateNotes(context.Background(), card.ID, notes), "Notes saved")
}

func (a *App) removeBenefit(cardID string, index int) {
	a.report(a.wallet.RemoveBenefit(context.Background(), cardID, index), "Benefit removed")
	if card, ok := a.wallet.Current(); ok {
		a.walletState.benefit = clampIndex(a.walletState.benefit, len(card.Benefits))
	}
}

// report turns a wallet error into a flash. Missing ids are silent no-ops;
// only storage failures reach the user.
func (a *App) report(err error, okMsg string) {
	switch {
	case err == nil:
		if okMsg != "" {
			a.setFlash(okMsg)
		}
	case errors.Is(err, wallet.ErrCardNotFound), errors.Is(err, wallet.ErrBenefitNotFound):
		logging.Debugf("ignoring stale selection: %v", err)
	default:
		logging.Errorf("wallet: %v", err)
		a.setFlash("Not saved: " + err.Error())
	}
}

// ─── Forms ──────────────────────────────────────────────────────

func (a App) openCardForm() (tea.Model, tea.Cmd) {
	a.cardVals = &cardFormValues{Bank: "", Type: a.cfg.Wallet.DefaultType}
	a.formKind = formAddCard
	a.form = newCardForm(a.cardVals).WithWidth(a.formWidth())
	return a, a.form.Init()
}

func (a App) openBenefitForm(card wallet.Card) (tea.Model, tea.Cmd) {
	period := wallet.Period(a.cfg.Wallet.DefaultPeriod)
	if !period.Known() {
		period = wallet.PeriodQuarter
	}
	a.benefitVals = &benefitFormValues{CardID: card.ID, Period: period}
	a.formKind = formAddBenefit
	a.form = newBenefitForm(card.DisplayName(), a.benefitVals).WithWidth(a.formWidth())
	return a, a.form.Init()
}

func (a App) openDeleteForm(card wallet.Card) (tea.Model, tea.Cmd) {
	a.confirmVals = &confirmValues{CardID: card.ID}
	a.formKind = formDeleteCard
	a.form = newDeleteForm(card.DisplayName(), a.confirmVals).WithWidth(a.formWidth())
	return a, a.form.Init()
}

func (a *App) closeForm() {
	a.form = nil
	a.formKind = formNone
	a.cardVals = nil
	a.benefitVals = nil
	a.confirmVals = nil
}

func (a App) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	switch a.form.State {
	case huh.StateCompleted:
		a.submitForm()
		return a, a.flashCmd()
	case huh.StateAborted:
		a.closeForm()
		return a, nil
	}
	return a, cmd
}

// submitForm applies the completed form. Field validation already ran in
// the form, so wallet validation errors here only come from whitespace-only
// input and leave the wallet untouched.
func (a *App) submitForm() {
	ctx := context.Background()

	switch a.formKind {
	case formAddCard:
		v := a.cardVals
		card, err := a.wallet.AddCard(ctx, wallet.CardInput{
			Bank:  v.Bank,
			Name:  v.Name,
			Last4: v.Last4,
			Type:  v.Type,
		})
		if err == nil {
			a.walletState.cursor = a.wallet.Len() - 1
			a.report(nil, fmt.Sprintf("Added %s with %d benefits", card.DisplayName(), len(card.Benefits)))
		} else if !isValidation(err) {
			a.report(err, "")
		}

	case formAddBenefit:
		v := a.benefitVals
		_, err := a.wallet.AddBenefit(ctx, v.CardID, wallet.BenefitInput{
			Name:   v.Name,
			Period: v.Period,
			Limit:  wallet.ParseAmount(v.Limit),
			Used:   wallet.ParseAmount(v.Used),
		})
		if err == nil {
			if card, ok := a.wallet.Card(v.CardID); ok {
				a.walletState.benefit = len(card.Benefits) - 1
			}
			a.report(nil, "Benefit added")
		} else if !isValidation(err) {
			a.report(err, "")
		}

	case formDeleteCard:
		v := a.confirmVals
		if v.OK {
			a.report(a.wallet.DeleteCard(ctx, v.CardID), "Card deleted")
			a.walletState.cursor = clampIndex(a.walletState.cursor, a.wallet.Len())
		}
	}

	a.closeForm()
}

func isValidation(err error) bool {
	return errors.Is(err, wallet.ErrBankRequired) || errors.Is(err, wallet.ErrNameRequired)
}

// ─── Rendering ──────────────────────────────────────────────────

func (a App) renderWalletTab(cw, h int) string {
	if a.wallet == nil {
		return ""
	}
	if card, ok := a.wallet.Current(); ok {
		return a.renderCardDetail(card, cw, h)
	}
	return a.renderWalletList(cw, h)
}

func (a App) renderWalletList(cw, h int) string {
	t := theme.Active
	cards := a.wallet.Cards()
	stats := summary.Aggregate(cards)

	metrics := components.MetricCardRow([]components.Metric{
		{Label: "Cards", Value: cli.FormatNumber(int64(stats.Cards)), Delta: fmt.Sprintf("%d benefits", stats.Totals.Benefits)},
		{Label: "Remaining", Value: cli.FormatUSD(stats.Totals.Remaining), Delta: "unused this period"},
		{Label: "Used", Value: cli.FormatUSD(stats.Totals.Used), Delta: "of " + cli.FormatUSD(stats.Totals.Limit)},
		{Label: "Annual value", Value: cli.FormatUSD(stats.AnnualValue), Delta: cli.FormatPercent(stats.Totals.Utilization()) + " captured"},
	}, cw)

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(cards) == 0 {
		body := mutedStyle.Render("No cards yet. Press a to add one.")
		return metrics + "\n" + components.ContentCard("Wallet", body, cw)
	}

	ws := a.walletState
	cursor := clampIndex(ws.cursor, len(cards))
	listH := h - lipgloss.Height(metrics)

	if a.isCompactLayout() {
		return metrics + "\n" + a.renderCardList(cards, cursor, cw, listH)
	}

	leftW := cw * 2 / 5
	if leftW < 36 {
		leftW = 36
	}
	rightW := cw - leftW

	left := a.renderCardList(cards, cursor, leftW, listH)
	right := a.renderCardPreview(cards[cursor], rightW)
	return metrics + "\n" + components.CardRow([]string{left, right})
}

func (a App) renderCardList(cards []wallet.Card, cursor, w, h int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	rowStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	selectedMuted := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	// Each card is two lines: name, then bank and remaining
	visible := (h - 3) / 2
	if visible < 1 {
		visible = 1
	}
	offset := a.walletState.offset
	if cursor < offset {
		offset = cursor
	}
	if cursor >= offset+visible {
		offset = cursor - visible + 1
	}
	end := min(offset+visible, len(cards))

	var b strings.Builder
	for i := offset; i < end; i++ {
		c := cards[i]
		remaining := 0.0
		for _, bf := range c.Benefits {
			remaining += bf.Remaining()
		}

		name := truncStr(c.DisplayName(), inner-2)
		meta := truncStr(fmt.Sprintf("%s · %s left", c.BankName(), cli.FormatUSD(remaining)), inner-2)

		top, bottom := rowStyle, mutedStyle
		marker := "  "
		if i == cursor {
			top, bottom = selectedStyle, selectedMuted
			marker = "▸ "
		}
		b.WriteString(top.Render(padRight(marker+name, inner)))
		b.WriteString("\n")
		b.WriteString(bottom.Render(padRight("  "+meta, inner)))
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	title := fmt.Sprintf("Cards (%d)", len(cards))
	return components.ContentCard(title, b.String(), w)
}

func (a App) renderCardPreview(card wallet.Card, w int) string {
	t := theme.Active
	inner := components.CardInnerWidth(w)

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(cardFace(card, min(inner, 44), false))
	b.WriteString("\n\n")

	if len(card.Benefits) == 0 {
		b.WriteString(mutedStyle.Render("No benefits tracked. Open the card and press n."))
		return components.ContentCard("Preview", b.String(), w)
	}

	for i, bf := range card.Benefits {
		b.WriteString(nameStyle.Render(truncStr(bf.DisplayName(), inner)))
		b.WriteString("\n")
		b.WriteString(components.UsageBar(bf.Utilization(), bf.ShowRemaining(), min(inner, 40)))
		if i < len(card.Benefits)-1 {
			b.WriteString("\n")
		}
	}

	var bars []components.Bar
	for _, p := range summary.Aggregate([]wallet.Card{card}).ByPeriod {
		if p.Totals.Benefits > 0 {
			bars = append(bars, components.Bar{Label: p.Label, Value: p.Totals.Remaining})
		}
	}
	if len(bars) > 1 {
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("Remaining by period"))
		b.WriteString("\n")
		b.WriteString(components.HBarChart(bars, t.Accent, inner))
	}

	return components.ContentCard("Preview", b.String(), w)
}

func (a App) renderCardDetail(card wallet.Card, cw, h int) string {
	t := theme.Active
	ws := a.walletState

	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)

	// Header: card face beside its totals
	faceW := min(44, cw/2)
	face := cardFace(card, faceW, true)

	totals := summary.Aggregate([]wallet.Card{card})
	var sb strings.Builder
	sb.WriteString(mutedStyle.Render("Benefits   ") + valueStyle.Render(fmt.Sprintf("%d", totals.Totals.Benefits)) + "\n")
	sb.WriteString(mutedStyle.Render("Remaining  ") + valueStyle.Render(cli.FormatUSD(totals.Totals.Remaining)) + "\n")
	sb.WriteString(mutedStyle.Render("Used       ") + valueStyle.Render(cli.FormatUSD(totals.Totals.Used)) +
		mutedStyle.Render(" of "+cli.FormatUSD(totals.Totals.Limit)) + "\n")
	sb.WriteString(mutedStyle.Render("Per year   ") + valueStyle.Render(cli.FormatUSD(totals.AnnualValue)))
	summaryCard := components.ContentCard(card.Subtitle(), sb.String(), cw-faceW)

	faceBlock := lipgloss.NewStyle().Background(t.Background).Render(face)
	header := components.CardRow([]string{faceBlock, summaryCard})

	// Notes
	var notesBody string
	switch {
	case ws.editing == editNotes:
		notesBody = ws.notes.View()
	case strings.TrimSpace(card.Notes) == "":
		notesBody = mutedStyle.Render("No notes. Press e to add some.")
	default:
		notesBody = lipgloss.NewStyle().
			Foreground(t.TextPrimary).
			Background(t.Surface).
			Width(components.CardInnerWidth(cw)).
			Render(card.Notes)
	}
	notesCard := components.ContentCard("Notes", notesBody, cw)
	if ws.editing == editNotes {
		notesCard = components.FocusedCard("Notes", notesBody, cw)
	}

	benefitsH := h - lipgloss.Height(header) - lipgloss.Height(notesCard)
	benefits := a.renderBenefits(card, cw, benefitsH)

	return header + "\n" + benefits + "\n" + notesCard
}

func (a App) renderBenefits(card wallet.Card, cw, h int) string {
	t := theme.Active
	ws := a.walletState
	inner := components.CardInnerWidth(cw)

	title := fmt.Sprintf("Benefits (%d)", len(card.Benefits))
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	if len(card.Benefits) == 0 {
		return components.ContentCard(title, mutedStyle.Render("No benefits tracked. Press n to add one."), cw)
	}

	nameStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Bold(true)
	selectedName := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	metaStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	textStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	// Each benefit takes three lines including the gap
	visible := (h - 2) / 3
	if visible < 1 {
		visible = 1
	}
	sel := clampIndex(ws.benefit, len(card.Benefits))
	offset := 0
	if sel >= visible {
		offset = sel - visible + 1
	}
	end := min(offset+visible, len(card.Benefits))

	barW := min(inner/2, 40)

	var b strings.Builder
	for i := offset; i < end; i++ {
		bf := card.Benefits[i]

		marker, ns := "  ", nameStyle
		if i == sel {
			marker, ns = "▸ ", selectedName
		}
		left := markerStyle.Render(marker) + ns.Render(truncStr(bf.DisplayName(), inner/2))
		right := metaStyle.Render(wallet.MetaText(bf))
		gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
		if gap < 1 {
			gap = 1
		}
		b.WriteString(left + spaceStyle.Render(strings.Repeat(" ", gap)) + right)
		b.WriteString("\n")

		b.WriteString(spaceStyle.Render("  "))
		if i == sel && ws.editing == editUsage {
			b.WriteString(metaStyle.Render("Used "))
			b.WriteString(ws.usage.View())
		} else {
			b.WriteString(components.UsageBar(bf.Utilization(), bf.ShowRemaining(), barW))
			b.WriteString(spaceStyle.Render("  "))
			b.WriteString(textStyle.Render(wallet.ProgressText(bf)))
		}
		if i < end-1 {
			b.WriteString("\n\n")
		}
	}

	return components.ContentCard(title, b.String(), cw)
}

func cardFace(card wallet.Card, w int, selected bool) string {
	return components.CardFace(
		card.DisplayName(),
		card.Network(),
		cli.MaskLast4(card.Last4),
		card.BankName(),
		card.TypeLabel(),
		w,
		selected,
	)
}

func padRight(s string, w int) string {
	gap := w - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
