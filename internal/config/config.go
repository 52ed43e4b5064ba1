package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all smartsaver configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Wallet     WalletConfig     `toml:"wallet"`
	Catalog    CatalogConfig    `toml:"catalog"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Offers     OffersConfig     `toml:"offers"`
}

// GeneralConfig holds storage settings.
type GeneralConfig struct {
	DBPath     string `toml:"db_path,omitempty"`
	StorageKey string `toml:"storage_key,omitempty"`
}

// WalletConfig holds defaults for new cards and benefits.
type WalletConfig struct {
	DefaultType   string `toml:"default_type"`
	DefaultPeriod string `toml:"default_period"`
}

// CatalogConfig selects the default-benefit catalog source.
// Path wins over URL; with neither the embedded catalog is used.
type CatalogConfig struct {
	Path string `toml:"path,omitempty"`
	URL  string `toml:"url,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// DaemonConfig holds the local API daemon settings.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// OffersConfig maps bank codes to offer-activation commands.
type OffersConfig struct {
	Scripts map[string]string `toml:"scripts,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Wallet: WalletConfig{
			DefaultType:   "credit",
			DefaultPeriod: "quarter",
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "warn",
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8787",
			IntervalSec: 15,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "smartsaver")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "smartsaver")
}

// DataDir returns the XDG-compliant data directory (database, logs, pid file).
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "smartsaver")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "smartsaver")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads the config at path, returning defaults if it doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path with mode 0600.
func SaveTo(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// DBPath returns the database path from env var or config, falling back to
// the data dir.
func DBPath(cfg Config) string {
	if p := os.Getenv("SMARTSAVER_DB"); p != "" {
		return p
	}
	if cfg.General.DBPath != "" {
		return expandHome(cfg.General.DBPath)
	}
	return filepath.Join(DataDir(), "smartsaver.db")
}

// LogPath returns where the TUI writes its log.
func LogPath() string {
	return filepath.Join(DataDir(), "smartsaver.log")
}

// PIDPath returns the daemon pid file path.
func PIDPath() string {
	return filepath.Join(DataDir(), "daemon.pid")
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p
}
