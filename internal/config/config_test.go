package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Wallet.DefaultType != "credit" || cfg.Wallet.DefaultPeriod != "quarter" {
		t.Fatalf("unexpected wallet defaults: %+v", cfg.Wallet)
	}
	if cfg.Daemon.IntervalSec != 15 {
		t.Fatalf("IntervalSec = %d", cfg.Daemon.IntervalSec)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")

	cfg := DefaultConfig()
	cfg.General.StorageKey = "alt_cards"
	cfg.Catalog.URL = "https://example.com/benefits.json"
	cfg.Offers.Scripts = map[string]string{"amex": "amex-offers --all"}
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config perm = %o, want 600", perm)
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got.General.StorageKey != "alt_cards" || got.Catalog.URL != cfg.Catalog.URL {
		t.Fatalf("round trip lost fields: %+v", got)
	}
	if got.Offers.Scripts["amex"] != "amex-offers --all" {
		t.Fatalf("scripts = %v", got.Offers.Scripts)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"debug\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Log.Level != "debug" || cfg.Appearance.Theme != "flexoki-dark" {
		t.Fatalf("got %+v", cfg)
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[log\nlevel="), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestDBPathPrecedence(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("SMARTSAVER_DB", "")

	cfg := DefaultConfig()
	if got := DBPath(cfg); got != filepath.Join("/data", "smartsaver", "smartsaver.db") {
		t.Fatalf("default DBPath = %q", got)
	}

	cfg.General.DBPath = "/tmp/w.db"
	if got := DBPath(cfg); got != "/tmp/w.db" {
		t.Fatalf("config DBPath = %q", got)
	}

	t.Setenv("SMARTSAVER_DB", "/env/w.db")
	if got := DBPath(cfg); got != "/env/w.db" {
		t.Fatalf("env DBPath = %q", got)
	}
}

func TestConfigDirHonorsXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := ConfigPath(); got != filepath.Join("/xdg", "smartsaver", "config.toml") {
		t.Fatalf("ConfigPath = %q", got)
	}
}
