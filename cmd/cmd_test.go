package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/theirongolddev/smartsaver/internal/store"
	"github.com/theirongolddev/smartsaver/internal/wallet"
)

// useTempHome points config, data and the database at fresh temp dirs and
// returns the database path.
func useTempHome(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("SMARTSAVER_DB", "")
	db := filepath.Join(t.TempDir(), "wallet.db")
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		flagDBPath = ""
		flagQuiet = false
	})
	return db
}

func execute(t *testing.T, args ...string) {
	t.Helper()
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("smartsaver %v: %v", args, err)
	}
}

func storedCards(t *testing.T, db string) []wallet.Card {
	t.Helper()
	s, err := store.Open(db)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	cards, err := store.NewCardRepository(s, "").Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return cards
}

func TestBenefitUseAcceptsNegativeAmount(t *testing.T) {
	db := useTempHome(t)
	emptyCatalog := filepath.Join(t.TempDir(), "catalog.json")
	if err := os.WriteFile(emptyCatalog, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { flagCatalog = "" })

	execute(t, "--db", db, "--catalog", emptyCatalog, "-q", "card", "add", "--bank", "other", "--name", "Generic Credit Card")
	execute(t, "--db", db, "-q", "benefit", "add", "1", "--name", "Dining", "--limit", "100", "--period", "monthly")
	execute(t, "--db", db, "benefit", "use", "1", "1", "-5")

	cards := storedCards(t, db)
	if len(cards) != 1 || len(cards[0].Benefits) != 1 {
		t.Fatalf("stored cards = %+v", cards)
	}
	if b := cards[0].Benefits[0]; b.Name != "Dining" || b.Used != -5 {
		t.Fatalf("benefit = %+v, want Dining used -5", b)
	}
}

func TestBenefitUseStopsFlagParsingAtCard(t *testing.T) {
	t.Cleanup(func() { _ = benefitUseCmd.Flags().Parse(nil) })
	if err := benefitUseCmd.ParseFlags([]string{"1", "1", "-5"}); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	args := benefitUseCmd.Flags().Args()
	if len(args) != 3 || args[2] != "-5" {
		t.Fatalf("args = %v, want [1 1 -5]", args)
	}
}

func TestStoreLoaderReportsMalformedWalletAsEmpty(t *testing.T) {
	flagDBPath = useTempHome(t)

	s, err := store.Open(flagDBPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Put(context.Background(), store.DefaultKey, []byte(`{"not":"a list"}`)); err != nil {
		t.Fatal(err)
	}
	_ = s.Close()

	load := storeLoader()
	for i := 0; i < 2; i++ {
		cards, err := load(context.Background())
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if cards == nil || len(cards) != 0 {
			t.Fatalf("poll %d: cards = %+v, want empty", i, cards)
		}
	}

	// The loader must not hold the database open between polls
	s, err = store.Open(flagDBPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Close() }()
	if err := s.Put(context.Background(), store.DefaultKey, []byte(`[{"id":"c1","name":"Gold Card","benefits":[]}]`)); err != nil {
		t.Fatal(err)
	}
	cards, err := load(context.Background())
	if err != nil || len(cards) != 1 || cards[0].Name != "Gold Card" {
		t.Fatalf("after repair: cards = %+v, err = %v", cards, err)
	}
}

func TestStorageKeyFollowsConfig(t *testing.T) {
	saved := appCfg
	t.Cleanup(func() { appCfg = saved })

	appCfg.General.StorageKey = ""
	if got := storageKey(); got != store.DefaultKey {
		t.Fatalf("storageKey() = %q, want %q", got, store.DefaultKey)
	}
	appCfg.General.StorageKey = "work_cards"
	if got := storageKey(); got != "work_cards" {
		t.Fatalf("storageKey() = %q, want work_cards", got)
	}
}
