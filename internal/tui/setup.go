package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/tui/theme"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/charmbracelet/huh"
)

// setupValues holds the first-run wizard answers.
type setupValues struct {
	Theme         string
	DefaultType   string
	DefaultPeriod wallet.Period
	CatalogURL    string
}

func newSetupValues(cfg config.Config) *setupValues {
	return &setupValues{
		Theme:         cfg.Appearance.Theme,
		DefaultType:   cfg.Wallet.DefaultType,
		DefaultPeriod: wallet.Period(cfg.Wallet.DefaultPeriod),
		CatalogURL:    cfg.Catalog.URL,
	}
}

func newSetupForm(cards int, dbPath string, v *setupValues) *huh.Form {
	themeOpts := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themeOpts = append(themeOpts, huh.NewOption(name, name))
	}

	welcome := fmt.Sprintf("Found %d cards in %s.\nA few defaults and you're done.", cards, dbPath)
	if cards == 1 {
		welcome = fmt.Sprintf("Found 1 card in %s.\nA few defaults and you're done.", dbPath)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to smartsaver").
				Description(welcome).
				Next(true),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&v.Theme),
			huh.NewSelect[string]().
				Title("Default card type").
				Options(
					huh.NewOption("Credit", wallet.TypeCredit),
					huh.NewOption("Debit", wallet.TypeDebit),
				).
				Value(&v.DefaultType),
			huh.NewSelect[wallet.Period]().
				Title("Default benefit period").
				Options(periodOptions()...).
				Value(&v.DefaultPeriod),
			huh.NewInput().
				Title("Default-benefit catalog URL").
				Description("Leave blank to use the built-in catalog.").
				Placeholder("https://...").
				Value(&v.CatalogURL),
		),
	).WithTheme(theme.Active.Huh()).WithShowHelp(true)
}

func (a *App) saveSetupConfig() error {
	cfg := loadConfigOrDefault()

	if a.setupVals.Theme != "" {
		cfg.Appearance.Theme = a.setupVals.Theme
		theme.SetActive(cfg.Appearance.Theme)
	}
	if a.setupVals.DefaultType != "" {
		cfg.Wallet.DefaultType = a.setupVals.DefaultType
	}
	if a.setupVals.DefaultPeriod != "" {
		cfg.Wallet.DefaultPeriod = string(a.setupVals.DefaultPeriod)
	}
	cfg.Catalog.URL = strings.TrimSpace(a.setupVals.CatalogURL)

	a.cfg = cfg
	return config.Save(cfg)
}
