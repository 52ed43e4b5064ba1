// Package cmd implements the smartsaver CLI commands.
package cmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/store"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, _ []string) error {
	cfg := appCfg

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Database:     %s\n", dbPath())
	s, repo, err := openStore()
	if err != nil {
		fmt.Printf("    Storage:      unavailable (%v)\n", err)
		fmt.Println()
	} else {
		printStorage(cmd.Context(), s, repo)
		_ = s.Close()
	}

	fmt.Println("  [Wallet]")
	fmt.Printf("    Default type:   %s\n", cfg.Wallet.DefaultType)
	fmt.Printf("    Default period: %s\n", cfg.Wallet.DefaultPeriod)
	fmt.Println()

	fmt.Println("  [Catalog]")
	fmt.Printf("    Source: %s\n", catalogSource().Describe())
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level:    %s\n", cfg.Log.Level)
	fmt.Printf("    TUI log:  %s\n", config.LogPath())
	fmt.Println()

	fmt.Println("  [Daemon]")
	fmt.Printf("    Address:  %s\n", cfg.Daemon.Addr)
	fmt.Printf("    Interval: %ds\n", cfg.Daemon.IntervalSec)
	fmt.Println()

	fmt.Println("  [Offers]")
	if len(cfg.Offers.Scripts) == 0 {
		fmt.Println("    No scripts configured")
	} else {
		banks := make([]string, 0, len(cfg.Offers.Scripts))
		for b := range cfg.Offers.Scripts {
			banks = append(banks, b)
		}
		sort.Strings(banks)
		for _, b := range banks {
			fmt.Printf("    %-9s %s\n", b+":", cfg.Offers.Scripts[b])
		}
	}
	fmt.Println()

	fmt.Println("  Run `smartsaver setup` to reconfigure.")
	return nil
}

func printStorage(ctx context.Context, s *store.Store, repo *store.CardRepository) {
	fmt.Printf("    Storage key:  %s\n", repo.Key())
	if keys, err := s.Keys(ctx); err == nil {
		for _, k := range keys {
			if k.Key == repo.Key() {
				fmt.Printf("    Last saved:   %s (%d bytes)\n", k.UpdatedAt.Local().Format("2006-01-02 15:04:05"), k.Size)
			}
		}
	}

	raw, err := repo.Raw(ctx)
	switch {
	case err != nil:
		fmt.Printf("    Stored wallet: unreadable (%v)\n", err)
	case raw == nil:
		fmt.Println("    Stored wallet: empty")
	default:
		if cards, err := wallet.Decode(raw); err != nil {
			fmt.Printf("    Stored wallet: malformed, opens empty (%v)\n", err)
		} else {
			fmt.Printf("    Stored wallet: %d cards\n", len(cards))
		}
	}
	fmt.Println()
}
