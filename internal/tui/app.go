// Package tui provides the interactive Bubble Tea wallet for smartsaver.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/smartsaver/internal/catalog"
	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/logging"
	"github.com/theirongolddev/smartsaver/internal/offers"
	"github.com/theirongolddev/smartsaver/internal/tui/components"
	"github.com/theirongolddev/smartsaver/internal/tui/theme"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// WalletLoadedMsg is sent when the stored card collection has been read.
type WalletLoadedMsg struct {
	Wallet   *wallet.Wallet
	Err      error
	LoadTime time.Duration
}

// CatalogLoadedMsg is sent when the default-benefit catalog is ready.
type CatalogLoadedMsg struct {
	Catalog *catalog.Catalog
}

// OfferResultMsg is sent when an offer script finishes.
type OfferResultMsg struct {
	Result offers.Result
	Err    error
}

// OfferBatchMsg is sent when a run of every offer script finishes.
type OfferBatchMsg struct {
	Batch offers.BatchResult
}

type flashExpiredMsg struct{ seq int }

// Options wires the app to its storage and collaborators.
type Options struct {
	Repo          wallet.Repository
	Catalog       catalog.Source
	Fetcher       *catalog.Fetcher
	Runner        *offers.Runner
	Config        config.Config
	DBPath        string
	NeedSetup     bool
	WalletOptions []wallet.Option
}

// App is the root Bubble Tea model.
type App struct {
	// Data
	wallet       *wallet.Wallet
	catalog      *catalog.Catalog
	loaded       bool
	loadErr      error
	loadTime     time.Duration
	catalogReady bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	// Flash line in the status bar
	flash    string
	flashSeq int

	// Per-tab state
	walletState walletState
	offers      offersState
	settings    settingsState

	// Wallet forms (huh)
	form        *huh.Form
	formKind    formKind
	cardVals    *cardFormValues
	benefitVals *benefitFormValues
	confirmVals *confirmValues

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool

	spinner spinner.Model

	// Collaborators
	repo       wallet.Repository
	source     catalog.Source
	fetcher    *catalog.Fetcher
	runner     *offers.Runner
	cfg        config.Config
	dbPath     string
	walletOpts []wallet.Option
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	flashDuration    = 3 * time.Second
)

// loadConfigOrDefault loads config, returning defaults on error.
// This ensures the TUI can always start even if config is corrupted.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		logging.Warnf("config unreadable, using defaults: %v", err)
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent)

	runner := opts.Runner
	if runner == nil {
		runner = offers.NewRunner(nil)
	}

	return App{
		spinner:    sp,
		needSetup:  opts.NeedSetup,
		repo:       opts.Repo,
		source:     opts.Catalog,
		fetcher:    opts.Fetcher,
		runner:     runner,
		cfg:        opts.Config,
		dbPath:     opts.DBPath,
		walletOpts: opts.WalletOptions,
		catalog:    catalog.Empty(),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.spinner.Tick,
		loadWalletCmd(a.repo, a.walletOpts),
		loadCatalogCmd(a.source, a.fetcher),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth())
		}
		a.walletState.resize(a.contentWidth())
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.form != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case WalletLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			logging.Errorf("opening wallet: %v", msg.Err)
			return a, nil
		}
		a.wallet = msg.Wallet
		a.wallet.SetCatalog(a.catalog)

		if a.needSetup {
			a.setupVals = newSetupValues(a.cfg)
			a.setupForm = newSetupForm(a.wallet.Len(), a.dbPath, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case CatalogLoadedMsg:
		a.catalogReady = true
		if msg.Catalog != nil {
			a.catalog = msg.Catalog
		}
		if a.wallet != nil {
			a.wallet.SetCatalog(a.catalog)
		}
		return a, nil

	case OfferResultMsg:
		return a.handleOfferResult(msg)

	case OfferBatchMsg:
		return a.handleOfferBatch(msg)

	case flashExpiredMsg:
		if msg.seq == a.flashSeq {
			a.flash = ""
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.offers.running {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages (cursor blinks, etc.) to whatever has focus
	switch {
	case a.setupForm != nil:
		return a.updateSetupForm(msg)
	case a.form != nil:
		return a.updateForm(msg)
	case a.walletState.editing != editNone:
		return a.updateWalletEditor(msg)
	case a.settings.editing:
		var cmd tea.Cmd
		a.settings.input, cmd = a.settings.input.Update(msg)
		return a, cmd
	}

	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Global: quit
	if key == "ctrl+c" {
		return a, tea.Quit
	}

	if !a.loaded {
		return a, nil
	}

	if a.loadErr != nil {
		if key == "q" || key == "esc" {
			return a, tea.Quit
		}
		return a, nil
	}

	// First-run setup wizard intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	// Open wallet forms intercept all keys; esc cancels
	if a.form != nil {
		if key == "esc" {
			a.closeForm()
			return a, nil
		}
		return a.updateForm(msg)
	}

	// Inline editors (usage, notes, settings) own the keyboard
	if a.walletState.editing != editNone {
		return a.updateWalletEditor(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}

	// Help toggle
	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}

	// Dismiss help
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabWallet:
		if m, cmd, handled := a.updateWalletKeys(key); handled {
			return m, cmd
		}
	case tabOffers:
		if m, cmd, handled := a.updateOffersKeys(key); handled {
			return m, cmd
		}
	case tabSettings:
		if m, cmd, handled := a.updateSettingsKeys(key); handled {
			return m, cmd
		}
	}

	if key == "q" {
		return a, tea.Quit
	}

	// Tab navigation
	switch key {
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if a.activeTab == tabWallet && a.walletState.editing == editNone {
			a.walletMove(-1)
		}
		return a, nil

	case tea.MouseButtonWheelDown:
		if a.activeTab == tabWallet && a.walletState.editing == editNone {
			a.walletMove(1)
		}
		return a, nil

	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return a, nil
		}
		// The tab bar is the first line
		if msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 && tab < len(components.Tabs) {
				a.activeTab = tab
			}
		}
		return a, nil
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		prevURL := a.cfg.Catalog.URL
		if err := a.saveSetupConfig(); err != nil {
			logging.Warnf("saving setup: %v", err)
			a.setFlash("Could not save config: " + err.Error())
		}
		a.applyWalletDefaults(a.cfg)
		a.needSetup = false
		a.setupForm = nil

		// A catalog file still wins over the URL
		if a.cfg.Catalog.URL != prevURL && a.source.Path == "" {
			a.source = catalog.Source{URL: a.cfg.Catalog.URL}
			a.catalogReady = false
			return a, tea.Batch(a.flashCmd(), loadCatalogCmd(a.source, a.fetcher))
		}
		return a, a.flashCmd()
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) formWidth() int {
	w := a.contentWidth() - 4
	if w > 72 {
		w = 72
	}
	return w
}

// setFlash shows a short message in the status bar; flashCmd clears it.
func (a *App) setFlash(s string) {
	a.flash = s
	a.flashSeq++
}

func (a App) flashCmd() tea.Cmd {
	if a.flash == "" {
		return nil
	}
	seq := a.flashSeq
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashExpiredMsg{seq: seq}
	})
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.loadErr != nil {
		return a.viewLoadError()
	}

	// First-run setup wizard
	if a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  smartsaver needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)

	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	subtitleStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	spinnerStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ smartsaver"))
	b.WriteString(subtitleStyle.Render(" · Card Benefits"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Opening wallet..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoadError() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Red).
		Background(t.Surface).
		Padding(1, 3).
		Width(min(a.width-4, 72))

	errStyle := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := errStyle.Render("Could not open the wallet") + "\n\n" +
		mutedStyle.Render(a.loadErr.Error()) + "\n\n" +
		mutedStyle.Render("Press q to quit")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	sectionStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)

	keyStyle := lipgloss.NewStyle().
		Foreground(t.Cyan).
		Background(t.Surface).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	section := func(b *strings.Builder, title string, binds []struct{ key, desc string }) {
		b.WriteString(sectionStyle.Render(title))
		b.WriteString("\n")
		for _, bind := range binds {
			fmt.Fprintf(b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
		b.WriteString("\n")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	section(&b, "Navigation", []struct{ key, desc string }{
		{"w o x", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Move selection"},
		{"g G", "First / Last"},
	})
	section(&b, "Wallet", []struct{ key, desc string }{
		{"Enter", "Open card"},
		{"a", "Add card"},
		{"n", "Add benefit (card view)"},
		{"u", "Update amount used"},
		{"x", "Remove benefit (card view)"},
		{"e", "Edit notes"},
		{"D", "Delete card"},
		{"Esc", "Back / Cancel"},
	})
	section(&b, "Offers", []struct{ key, desc string }{
		{"Enter", "Run selected script"},
		{"a", "Run every script"},
	})
	section(&b, "General", []struct{ key, desc string }{
		{"?", "Toggle help"},
		{"q", "Quit"},
	})

	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar
	header := components.RenderTabBar(a.activeTab, w)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, a.statusHints(), a.statusInfo())

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content, or the open form
	var content string
	switch {
	case a.form != nil:
		content = a.viewForm(cw)
	case a.activeTab == tabWallet:
		content = a.renderWalletTab(cw, contentH)
	case a.activeTab == tabOffers:
		content = a.renderOffersTab(cw, contentH)
	case a.activeTab == tabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines
	content = padHeight(truncateHeight(content, contentH), contentH)

	// 6. Fill each line to full width with background
	content = fillLinesWithBackground(content, cw, t.Background)

	// 7. Center when the terminal is wider than the content
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)

	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewForm(cw int) string {
	t := theme.Active
	body := a.form.View()
	hint := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface).Render("esc to cancel")
	card := components.FocusedCard("", body+"\n"+hint, min(cw, a.formWidth()+6))
	return lipgloss.PlaceHorizontal(cw, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusHints() string {
	switch {
	case a.form != nil:
		return "[enter]next  [esc]cancel"
	case a.walletState.editing == editUsage:
		return "[enter]save  [esc]cancel"
	case a.walletState.editing == editNotes:
		return "[esc]done"
	}

	switch a.activeTab {
	case tabWallet:
		if a.wallet != nil && a.wallet.CurrentID() != "" {
			return "[n]ew benefit  [u]sed  [x]remove  [e]notes  [D]elete  [esc]back"
		}
		return "[enter]open  [a]dd card"
	case tabOffers:
		return "[enter]run  [a]ll"
	case tabSettings:
		return "[enter]edit"
	}
	return ""
}

func (a App) statusInfo() string {
	if a.flash != "" {
		return a.flash
	}
	if a.wallet == nil {
		return ""
	}
	n := a.wallet.Len()
	info := fmt.Sprintf("%d cards", n)
	if n == 1 {
		info = "1 card"
	}
	if !a.catalogReady {
		info += " · loading catalog"
	}
	return info
}

// ─── Async commands ─────────────────────────────────────────────

// loadWalletCmd reads the stored collection off the UI goroutine. The wallet
// starts with the static bank table; CatalogLoadedMsg adds default benefits.
func loadWalletCmd(repo wallet.Repository, opts []wallet.Option) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		if repo == nil {
			return WalletLoadedMsg{Err: errors.New("no wallet storage configured")}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		w, err := wallet.Open(ctx, repo, catalog.Empty(), opts...)
		return WalletLoadedMsg{Wallet: w, Err: err, LoadTime: time.Since(start)}
	}
}

// loadCatalogCmd loads the default-benefit catalog once. Load never fails;
// a broken source yields an empty catalog.
func loadCatalogCmd(src catalog.Source, f *catalog.Fetcher) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return CatalogLoadedMsg{Catalog: catalog.Load(ctx, src, f)}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)

		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
