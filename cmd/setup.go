package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/tui/theme"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	reader := bufio.NewReader(os.Stdin)
	cfg := appCfg

	fmt.Println()
	fmt.Println("  Welcome to smartsaver!")
	fmt.Println()

	// 1. Default card type
	fmt.Println("  1. Default card type")
	fmt.Println("     (1) Credit [default]")
	fmt.Println("     (2) Debit")
	fmt.Print("     > ")
	switch readLine(reader) {
	case "2":
		cfg.Wallet.DefaultType = wallet.TypeDebit
	default:
		cfg.Wallet.DefaultType = wallet.TypeCredit
	}
	fmt.Println()

	// 2. Default benefit period
	fmt.Println("  2. Default period for new benefits")
	defaultIdx := 1
	for i, p := range wallet.Periods {
		suffix := ""
		if i == defaultIdx {
			suffix = " [default]"
		}
		fmt.Printf("     (%d) %s%s\n", i+1, wallet.PeriodLabel(p), suffix)
	}
	fmt.Print("     > ")
	cfg.Wallet.DefaultPeriod = string(wallet.Periods[pickIndex(readLine(reader), len(wallet.Periods), defaultIdx)])
	fmt.Println()

	// 3. Theme
	fmt.Println("  3. Color theme")
	for i, th := range theme.All {
		suffix := ""
		if i == 0 {
			suffix = " [default]"
		}
		fmt.Printf("     (%d) %s%s\n", i+1, th.Name, suffix)
	}
	fmt.Print("     > ")
	cfg.Appearance.Theme = theme.All[pickIndex(readLine(reader), len(theme.All), 0)].Name
	fmt.Println()

	// 4. Catalog
	fmt.Println("  4. Default-benefit catalog")
	fmt.Println("     A JSON file path or URL. Leave blank for the built-in catalog.")
	if src := catalogSource(); src.Path != "" || src.URL != "" {
		fmt.Printf("     Current: %s\n", src.Describe())
	}
	fmt.Print("     > ")
	if v := readLine(reader); v != "" {
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			cfg.Catalog = config.CatalogConfig{URL: v}
		} else {
			cfg.Catalog = config.CatalogConfig{Path: v}
		}
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	appCfg = cfg

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.ConfigPath())
	fmt.Println("  Run `smartsaver setup` anytime to reconfigure.")
	fmt.Println()

	return nil
}

func readLine(r *bufio.Reader) string {
	s, _ := r.ReadString('\n')
	return strings.TrimSpace(s)
}

// pickIndex maps a 1-based menu choice to an index, falling back to def.
func pickIndex(choice string, n, def int) int {
	var i int
	if _, err := fmt.Sscanf(choice, "%d", &i); err != nil || i < 1 || i > n {
		return def
	}
	return i - 1
}
