package cmd

import (
	"fmt"

	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/logging"
	"github.com/theirongolddev/smartsaver/internal/offers"
	"github.com/theirongolddev/smartsaver/internal/tui"
	"github.com/theirongolddev/smartsaver/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive wallet",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(appCfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Stderr belongs to the alt screen; log to a file instead
	level := appCfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	if f, err := logging.OpenFile(config.LogPath()); err == nil {
		defer f.Close()
		logging.Init(level, f)
	}

	s, repo, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	app := tui.NewApp(tui.Options{
		Repo:          repo,
		Catalog:       catalogSource(),
		Runner:        offers.NewRunner(appCfg.Offers.Scripts),
		Config:        appCfg,
		DBPath:        dbPath(),
		NeedSetup:     !config.Exists(),
		WalletOptions: walletOptions(),
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
