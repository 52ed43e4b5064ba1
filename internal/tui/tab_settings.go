package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/catalog"
	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/logging"
	"github.com/theirongolddev/smartsaver/internal/tui/components"
	"github.com/theirongolddev/smartsaver/internal/tui/theme"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldTheme = iota
	settingsFieldDefaultType
	settingsFieldDefaultPeriod
	settingsFieldCatalogPath
	settingsFieldCatalogURL
	settingsFieldLogLevel
	settingsFieldDaemonAddr
	settingsFieldCount // sentinel
)

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) updateSettingsKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
	case "enter":
		m, cmd := a.settingsStartEdit()
		return m, cmd, true
	default:
		return a, nil, false
	}
	return a, nil, true
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	cfg := a.cfg
	a.settings.editing = true
	a.settings.saved = false
	a.settings.saveErr = nil

	ti := newSettingsInput()

	switch a.settings.cursor {
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
		ti.SetValue(cfg.Appearance.Theme)
	case settingsFieldDefaultType:
		ti.Placeholder = "credit or debit"
		ti.SetValue(cfg.Wallet.DefaultType)
	case settingsFieldDefaultPeriod:
		ti.Placeholder = "monthly, quarter, semiannual, annual"
		ti.SetValue(cfg.Wallet.DefaultPeriod)
	case settingsFieldCatalogPath:
		ti.Placeholder = "path to a default-benefits JSON file (empty for built-in)"
		ti.SetValue(cfg.Catalog.Path)
	case settingsFieldCatalogURL:
		ti.Placeholder = "https://... (empty for built-in)"
		ti.SetValue(cfg.Catalog.URL)
	case settingsFieldLogLevel:
		ti.Placeholder = "debug, info, warn, error"
		ti.SetValue(cfg.Log.Level)
	case settingsFieldDaemonAddr:
		ti.Placeholder = "127.0.0.1:8787"
		ti.SetValue(cfg.Daemon.Addr)
	}

	ti.CursorEnd()
	cmd := ti.Focus()
	a.settings.input = ti
	return a, cmd
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		reload := a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil
		if reload && a.settings.saved {
			a.catalogReady = false
			return a, loadCatalogCmd(a.source, a.fetcher)
		}
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates and persists the edited field. It reports whether
// the catalog source changed and should be reloaded.
func (a *App) settingsSave() bool {
	cfg := a.cfg
	val := strings.TrimSpace(a.settings.input.Value())
	reload := false

	switch a.settings.cursor {
	case settingsFieldTheme:
		if theme.ByName(val).Name != val {
			a.settings.saveErr = fmt.Errorf("unknown theme %q", val)
			return false
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldDefaultType:
		val = strings.ToLower(val)
		if val != wallet.TypeCredit && val != wallet.TypeDebit {
			a.settings.saveErr = fmt.Errorf("type must be %s or %s", wallet.TypeCredit, wallet.TypeDebit)
			return false
		}
		cfg.Wallet.DefaultType = val
		a.applyWalletDefaults(cfg)
	case settingsFieldDefaultPeriod:
		if !wallet.Period(val).Known() {
			a.settings.saveErr = fmt.Errorf("unknown period %q", val)
			return false
		}
		cfg.Wallet.DefaultPeriod = val
		a.applyWalletDefaults(cfg)
	case settingsFieldCatalogPath:
		reload = val != cfg.Catalog.Path
		cfg.Catalog.Path = val
	case settingsFieldCatalogURL:
		reload = val != cfg.Catalog.URL
		cfg.Catalog.URL = val
	case settingsFieldLogLevel:
		if err := logging.SetLevel(val); err != nil {
			a.settings.saveErr = err
			return false
		}
		cfg.Log.Level = val
	case settingsFieldDaemonAddr:
		if val == "" {
			val = config.DefaultConfig().Daemon.Addr
		}
		cfg.Daemon.Addr = val
	}

	if err := config.Save(cfg); err != nil {
		a.settings.saveErr = err
		return false
	}
	a.cfg = cfg
	if reload {
		a.source = catalog.Source{Path: cfg.Catalog.Path, URL: cfg.Catalog.URL}
	}
	return reload
}

func (a *App) applyWalletDefaults(cfg config.Config) {
	if a.wallet == nil {
		return
	}
	a.wallet.Apply(
		wallet.WithDefaultType(cfg.Wallet.DefaultType),
		wallet.WithDefaultPeriod(wallet.Period(cfg.Wallet.DefaultPeriod)),
	)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active
	cfg := a.cfg

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	orNone := func(s string) string {
		if s == "" {
			return "(not set)"
		}
		return s
	}

	fields := []struct {
		label string
		value string
	}{
		{"Theme", cfg.Appearance.Theme},
		{"Default Type", cfg.Wallet.DefaultType},
		{"Default Period", wallet.PeriodLabel(wallet.Period(cfg.Wallet.DefaultPeriod))},
		{"Catalog File", orNone(cfg.Catalog.Path)},
		{"Catalog URL", orNone(cfg.Catalog.URL)},
		{"Log Level", cfg.Log.Level},
		{"Daemon Address", cfg.Daemon.Addr},
	}

	var formBody strings.Builder
	for i, f := range fields {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", f.label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			label := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", f.label+":"))
			value := selectedStyle.Render(f.value)
			formBody.WriteString(marker)
			formBody.WriteString(label)
			formBody.WriteString(value)
			usedWidth := lipgloss.Width(marker) + lipgloss.Width(label) + lipgloss.Width(value)
			if padLen := components.CardInnerWidth(cw) - usedWidth; padLen > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", padLen)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", f.label+":")))
			formBody.WriteString(valueStyle.Render(f.value))
		}
		formBody.WriteString("\n")
	}

	if a.settings.saveErr != nil {
		warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
		formBody.WriteString("\n")
		formBody.WriteString(warnStyle.Render(fmt.Sprintf("Not saved: %s", a.settings.saveErr)))
	} else if a.settings.saved {
		formBody.WriteString("\n")
		formBody.WriteString(greenStyle.Render("Saved!"))
	}

	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	cards := 0
	if a.wallet != nil {
		cards = a.wallet.Len()
	}
	catalogInfo := a.source.Describe()
	if a.catalogReady {
		catalogInfo += fmt.Sprintf(" (%d entries)", a.catalog.Len())
	} else {
		catalogInfo += " (loading)"
	}

	var infoBody strings.Builder
	infoBody.WriteString(labelStyle.Render("Database:     ") + valueStyle.Render(a.dbPath) + "\n")
	infoBody.WriteString(labelStyle.Render("Config file:  ") + valueStyle.Render(config.ConfigPath()) + "\n")
	infoBody.WriteString(labelStyle.Render("Cards:        ") + valueStyle.Render(fmt.Sprintf("%d", cards)) + "\n")
	infoBody.WriteString(labelStyle.Render("Catalog:      ") + valueStyle.Render(catalogInfo) + "\n")
	infoBody.WriteString(labelStyle.Render("Load time:    ") + valueStyle.Render(fmt.Sprintf("%.0fms", float64(a.loadTime.Microseconds())/1000)))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))

	return b.String()
}
