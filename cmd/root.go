package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/catalog"
	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/logging"
	"github.com/theirongolddev/smartsaver/internal/store"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/spf13/cobra"
)

var (
	flagDBPath   string
	flagCatalog  string
	flagLogLevel string
	flagQuiet    bool
)

// appCfg is loaded once before any command runs.
var appCfg = config.DefaultConfig()

var rootCmd = &cobra.Command{
	Use:               "smartsaver",
	Short:             "Credit card benefit wallet",
	Long:              "Track your cards and the recurring statement credits they come with.",
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runCards,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Wallet database path (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagCatalog, "catalog", "", "Default-benefit catalog file or http(s) URL")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

func loadConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	appCfg = cfg

	level := appCfg.Log.Level
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logging.Init(level, os.Stderr)
	return nil
}

func dbPath() string {
	if flagDBPath != "" {
		return flagDBPath
	}
	return config.DBPath(appCfg)
}

func catalogSource() catalog.Source {
	if flagCatalog != "" {
		if strings.HasPrefix(flagCatalog, "http://") || strings.HasPrefix(flagCatalog, "https://") {
			return catalog.Source{URL: flagCatalog}
		}
		return catalog.Source{Path: flagCatalog}
	}
	return catalog.Source{Path: appCfg.Catalog.Path, URL: appCfg.Catalog.URL}
}

func walletOptions() []wallet.Option {
	return []wallet.Option{
		wallet.WithDefaultType(appCfg.Wallet.DefaultType),
		wallet.WithDefaultPeriod(wallet.Period(appCfg.Wallet.DefaultPeriod)),
	}
}

// openStore opens the wallet database and its card repository.
func openStore() (*store.Store, *store.CardRepository, error) {
	s, err := store.Open(dbPath())
	if err != nil {
		return nil, nil, err
	}
	return s, store.NewCardRepository(s, appCfg.General.StorageKey), nil
}

// openWallet is the shared load path used by the CLI commands. The caller
// must close the returned store.
func openWallet(ctx context.Context, withCatalog bool) (*wallet.Wallet, *store.Store, error) {
	s, repo, err := openStore()
	if err != nil {
		return nil, nil, err
	}

	var cat wallet.Catalog
	if withCatalog {
		cat = catalog.Load(ctx, catalogSource(), nil)
	}

	w, err := wallet.Open(ctx, repo, cat, walletOptions()...)
	if err != nil {
		_ = s.Close()
		return nil, nil, err
	}
	return w, s, nil
}

func progress(format string, args ...any) {
	if flagQuiet {
		return
	}
	fmt.Fprintf(os.Stderr, format, args...)
}
