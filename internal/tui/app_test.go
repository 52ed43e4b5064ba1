package tui

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/theirongolddev/smartsaver/internal/catalog"
	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/offers"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	tea "github.com/charmbracelet/bubbletea"
)

const seedWallet = `[
  {"id": "c1", "name": "Gold Card", "bank": "American Express", "last4": "1234", "type": "credit",
   "benefits": [
     {"id": "b1", "name": "Dining Credit", "period": "monthly", "limit": 10, "used": 0},
     {"id": "b2", "name": "Uber Cash", "period": "monthly", "limit": 10, "used": 4}
   ]},
  {"id": "c2", "name": "Citi Double Cash", "bank": "Citi", "type": "credit", "benefits": []}
]`

func seqIDs() wallet.Option {
	n := 0
	return wallet.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	})
}

// newLoadedApp runs the app's own load commands against an in-memory
// repository and returns the model as it looks after startup.
func newLoadedApp(t *testing.T, seed string) (App, *wallet.MemoryRepository) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	repo := wallet.NewMemoryRepository([]byte(seed))
	a := NewApp(Options{
		Repo:          repo,
		Config:        config.DefaultConfig(),
		DBPath:        ":memory:",
		WalletOptions: []wallet.Option{seqIDs()},
	})

	a = update(t, a, tea.WindowSizeMsg{Width: 140, Height: 40})
	a = update(t, a, loadWalletCmd(a.repo, a.walletOpts)())
	a = update(t, a, loadCatalogCmd(catalog.Source{}, nil)())

	if !a.loaded || a.loadErr != nil {
		t.Fatalf("app not loaded: loaded=%v err=%v", a.loaded, a.loadErr)
	}
	return a, repo
}

func update(t *testing.T, a App, msg tea.Msg) App {
	t.Helper()
	m, _ := a.Update(msg)
	app, ok := m.(App)
	if !ok {
		t.Fatalf("Update returned %T, want App", m)
	}
	return app
}

func press(t *testing.T, a App, key string) App {
	t.Helper()
	switch key {
	case "enter":
		return update(t, a, tea.KeyMsg{Type: tea.KeyEnter})
	case "esc":
		return update(t, a, tea.KeyMsg{Type: tea.KeyEsc})
	}
	return update(t, a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)})
}

func TestLoadedAppRendersWallet(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)

	if a.wallet.Len() != 2 {
		t.Fatalf("cards = %d, want 2", a.wallet.Len())
	}
	if !a.catalogReady || a.catalog.Len() == 0 {
		t.Fatal("embedded catalog not applied")
	}

	view := a.View()
	for _, want := range []string{"Wallet", "Gold Card", "Cards (2)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if got := len(strings.Split(view, "\n")); got != 40 {
		t.Errorf("view height = %d, want 40", got)
	}
}

func TestLoadErrorQuits(t *testing.T) {
	a := NewApp(Options{Config: config.DefaultConfig()})
	a = update(t, a, tea.WindowSizeMsg{Width: 100, Height: 30})
	a = update(t, a, WalletLoadedMsg{Err: errors.New("disk on fire")})

	if !strings.Contains(a.View(), "disk on fire") {
		t.Fatal("load error not shown")
	}
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q produced no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}

func TestOpenAndCloseCard(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)

	a = press(t, a, "j")
	if a.walletState.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", a.walletState.cursor)
	}
	a = press(t, a, "j") // clamps at the last card
	if a.walletState.cursor != 1 {
		t.Fatalf("cursor = %d, want clamp at 1", a.walletState.cursor)
	}

	a = press(t, a, "k")
	a = press(t, a, "enter")
	if a.wallet.CurrentID() != "c1" {
		t.Fatalf("open card = %q, want c1", a.wallet.CurrentID())
	}
	if !strings.Contains(a.View(), "Benefits (2)") {
		t.Error("detail view missing benefit list")
	}

	a = press(t, a, "esc")
	if a.wallet.CurrentID() != "" {
		t.Fatal("esc did not return to the list")
	}
}

func TestTabKeys(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)

	a = press(t, a, "o")
	if a.activeTab != tabOffers {
		t.Fatalf("tab = %d, want offers", a.activeTab)
	}
	a = press(t, a, "x")
	if a.activeTab != tabSettings {
		t.Fatalf("tab = %d, want settings", a.activeTab)
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if a.activeTab != tabWallet {
		t.Fatalf("tab = %d, want wrap to wallet", a.activeTab)
	}
	a = update(t, a, tea.KeyMsg{Type: tea.KeyLeft})
	if a.activeTab != tabSettings {
		t.Fatalf("tab = %d, want wrap to settings", a.activeTab)
	}
}

func TestUsageEditorCommits(t *testing.T) {
	a, repo := newLoadedApp(t, seedWallet)
	a = press(t, a, "enter")
	a = press(t, a, "j")
	a = press(t, a, "u")
	if a.walletState.editing != editUsage {
		t.Fatal("u did not open the usage editor")
	}

	a.walletState.usage.SetValue("7.5")
	a = press(t, a, "enter")

	if a.walletState.editing != editNone {
		t.Fatal("editor still open after enter")
	}
	card, _ := a.wallet.Card("c1")
	if got := card.Benefits[1].Used; got != 7.5 {
		t.Fatalf("used = %v, want 7.5", got)
	}
	if !strings.Contains(string(repo.Bytes()), `"used":7.5`) {
		t.Fatalf("usage not persisted: %s", repo.Bytes())
	}
}

func TestUsageEditorEscDiscards(t *testing.T) {
	a, repo := newLoadedApp(t, seedWallet)
	a = press(t, a, "enter")
	a = press(t, a, "u")
	a.walletState.usage.SetValue("99")
	saves := repo.Saves()

	a = press(t, a, "esc")

	card, _ := a.wallet.Card("c1")
	if card.Benefits[0].Used != 0 {
		t.Fatalf("esc committed usage: %v", card.Benefits[0].Used)
	}
	if repo.Saves() != saves {
		t.Fatal("esc wrote to storage")
	}
	if a.wallet.CurrentID() != "c1" {
		t.Fatal("esc in the editor also closed the card")
	}
}

func TestNotesEditorCommitsOnEsc(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)
	a = press(t, a, "enter")
	a = press(t, a, "e")
	if a.walletState.editing != editNotes {
		t.Fatal("e did not open the notes editor")
	}

	a.walletState.notes.SetValue("fee due in March")
	a = press(t, a, "esc")

	card, _ := a.wallet.Card("c1")
	if card.Notes != "fee due in March" {
		t.Fatalf("notes = %q", card.Notes)
	}
	if a.flash != "Notes saved" {
		t.Fatalf("flash = %q", a.flash)
	}
}

func TestRemoveBenefitKey(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)
	a = press(t, a, "enter")
	a = press(t, a, "j")
	a = press(t, a, "x")

	card, _ := a.wallet.Card("c1")
	if len(card.Benefits) != 1 || card.Benefits[0].ID != "b1" {
		t.Fatalf("benefits after remove = %+v", card.Benefits)
	}
	if a.walletState.benefit != 0 {
		t.Fatalf("benefit cursor = %d, want clamp to 0", a.walletState.benefit)
	}
}

func TestAddCardFormSeedsCatalogBenefits(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)

	a = press(t, a, "a")
	if a.form == nil || a.formKind != formAddCard {
		t.Fatal("a did not open the add-card form")
	}

	*a.cardVals = cardFormValues{Bank: "amex", Name: "Platinum Card", Last4: "0005", Type: wallet.TypeCredit}
	a.submitForm()

	if a.form != nil {
		t.Fatal("form not closed after submit")
	}
	if a.wallet.Len() != 3 {
		t.Fatalf("cards = %d, want 3", a.wallet.Len())
	}
	added := a.wallet.Cards()[2]
	if added.Bank != "American Express" {
		t.Errorf("bank = %q, want the catalog label", added.Bank)
	}
	if len(added.Benefits) == 0 {
		t.Error("no default benefits seeded")
	}
	if a.walletState.cursor != 2 {
		t.Errorf("cursor = %d, want the new card", a.walletState.cursor)
	}
	if !strings.HasPrefix(a.flash, "Added Platinum Card") {
		t.Errorf("flash = %q", a.flash)
	}
}

func TestAddCardFormEscCancels(t *testing.T) {
	a, repo := newLoadedApp(t, seedWallet)
	saves := repo.Saves()

	a = press(t, a, "a")
	a = press(t, a, "esc")

	if a.form != nil || a.cardVals != nil {
		t.Fatal("esc left the form open")
	}
	if a.wallet.Len() != 2 || repo.Saves() != saves {
		t.Fatal("cancelled form changed the wallet")
	}
}

func TestAddBenefitForm(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)
	a = press(t, a, "j")
	a = press(t, a, "enter")
	a = press(t, a, "n")
	if a.formKind != formAddBenefit {
		t.Fatal("n did not open the benefit form")
	}
	if a.benefitVals.CardID != "c2" || a.benefitVals.Period != wallet.PeriodQuarter {
		t.Fatalf("benefit form defaults = %+v", *a.benefitVals)
	}

	a.benefitVals.Name = "Cell Phone Protection"
	a.benefitVals.Period = wallet.PeriodAnnual
	a.benefitVals.Limit = "800"
	a.submitForm()

	card, _ := a.wallet.Card("c2")
	if len(card.Benefits) != 1 {
		t.Fatalf("benefits = %+v", card.Benefits)
	}
	b := card.Benefits[0]
	if b.ID != "new-1" || b.Limit != 800 || b.Used != 0 || b.Period != wallet.PeriodAnnual {
		t.Fatalf("benefit = %+v", b)
	}
}

func TestBlankBenefitNameIgnored(t *testing.T) {
	a, repo := newLoadedApp(t, seedWallet)
	a = press(t, a, "enter")
	a = press(t, a, "n")
	saves := repo.Saves()

	a.benefitVals.Name = "   "
	a.submitForm()

	card, _ := a.wallet.Card("c1")
	if len(card.Benefits) != 2 || repo.Saves() != saves {
		t.Fatal("blank benefit name changed the wallet")
	}
	if a.flash != "" {
		t.Fatalf("flash = %q, want none for a validation miss", a.flash)
	}
}

func TestDeleteCardConfirm(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)
	a = press(t, a, "enter")
	a = press(t, a, "D")
	if a.formKind != formDeleteCard {
		t.Fatal("D did not open the delete confirmation")
	}

	// Declining keeps the card
	a.submitForm()
	if a.wallet.Len() != 2 {
		t.Fatal("declined delete removed the card")
	}

	a = press(t, a, "D")
	a.confirmVals.OK = true
	a.submitForm()

	if a.wallet.Len() != 1 {
		t.Fatalf("cards = %d, want 1", a.wallet.Len())
	}
	if a.wallet.CurrentID() != "" {
		t.Fatal("deleting the open card did not return to the list")
	}
}

func TestStaleSelectionIsSilent(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)
	a.report(wallet.ErrCardNotFound, "ok")
	if a.flash != "" {
		t.Fatalf("flash = %q, want none", a.flash)
	}
	a.report(errors.New("disk full"), "")
	if !strings.Contains(a.flash, "disk full") {
		t.Fatalf("flash = %q", a.flash)
	}
}

func TestFlashExpiresBySequence(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)
	a.setFlash("one")
	first := a.flashSeq
	a.setFlash("two")

	a = update(t, a, flashExpiredMsg{seq: first})
	if a.flash != "two" {
		t.Fatalf("stale expiry cleared flash: %q", a.flash)
	}
	a = update(t, a, flashExpiredMsg{seq: a.flashSeq})
	if a.flash != "" {
		t.Fatalf("flash = %q, want cleared", a.flash)
	}
}

func TestSettingsSavePeriod(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)
	a = press(t, a, "x")
	a = press(t, a, "j")
	a = press(t, a, "j")
	if a.settings.cursor != settingsFieldDefaultPeriod {
		t.Fatalf("settings cursor = %d", a.settings.cursor)
	}

	a = press(t, a, "enter")
	if !a.settings.editing {
		t.Fatal("enter did not start editing")
	}
	a.settings.input.SetValue("monthly")
	a = press(t, a, "enter")

	if a.settings.saveErr != nil {
		t.Fatalf("save: %v", a.settings.saveErr)
	}
	if a.cfg.Wallet.DefaultPeriod != "monthly" {
		t.Fatalf("period = %q", a.cfg.Wallet.DefaultPeriod)
	}
	if _, err := os.Stat(config.ConfigPath()); err != nil {
		t.Fatalf("config not written: %v", err)
	}
	saved, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.Wallet.DefaultPeriod != "monthly" {
		t.Fatalf("saved period = %q", saved.Wallet.DefaultPeriod)
	}
}

func TestSettingsRejectsUnknownValues(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)
	a.activeTab = tabSettings

	cases := []struct {
		field int
		value string
	}{
		{settingsFieldTheme, "neon-vomit"},
		{settingsFieldDefaultType, "charge"},
		{settingsFieldDefaultPeriod, "fortnightly"},
		{settingsFieldLogLevel, "chatty"},
	}
	for _, tc := range cases {
		a.settings.cursor = tc.field
		a = press(t, a, "enter")
		a.settings.input.SetValue(tc.value)
		a = press(t, a, "enter")

		if a.settings.saveErr == nil {
			t.Errorf("field %d accepted %q", tc.field, tc.value)
		}
	}
	def := config.DefaultConfig()
	if a.cfg.Appearance != def.Appearance || a.cfg.Wallet != def.Wallet || a.cfg.Log != def.Log {
		t.Fatalf("rejected values changed config: %+v", a.cfg)
	}
	if config.Exists() {
		t.Fatal("rejected values wrote a config file")
	}
}

func TestSettingsCatalogChangeReloads(t *testing.T) {
	a, _ := newLoadedApp(t, seedWallet)
	a.activeTab = tabSettings
	a.settings.cursor = settingsFieldCatalogPath

	a = press(t, a, "enter")
	a.settings.input.SetValue("/nonexistent/benefits.json")
	m, cmd := a.Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = m.(App)

	if cmd == nil || a.catalogReady {
		t.Fatal("catalog change did not trigger a reload")
	}
	if a.source.Path != "/nonexistent/benefits.json" {
		t.Fatalf("source = %+v", a.source)
	}

	// A broken source yields an empty catalog rather than an error
	a = update(t, a, cmd())
	if !a.catalogReady || a.catalog.Len() != 0 {
		t.Fatalf("catalog len = %d, want empty", a.catalog.Len())
	}
}

func TestOffersTabRunAll(t *testing.T) {
	for _, bin := range []string{"echo", "false"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available", bin)
		}
	}
	a, _ := newLoadedApp(t, seedWallet)
	a.runner = offers.NewRunner(map[string]string{"amex": "echo activated", "chase": "false"})

	a = press(t, a, "o")
	a = press(t, a, "a")
	if !a.offers.running || a.offers.bank != "" {
		t.Fatalf("a did not start a run-all: %+v", a.offers)
	}
	if !strings.Contains(a.View(), "Running 2 scripts") {
		t.Error("view missing run-all spinner line")
	}

	a = update(t, a, runAllOffersCmd(a.runner)())

	if a.offers.running || a.offers.batch == nil {
		t.Fatal("batch result not recorded")
	}
	if a.flash != "1 of 2 offer scripts failed" {
		t.Fatalf("flash = %q", a.flash)
	}
	view := a.View()
	if !strings.Contains(view, "American Express") || !strings.Contains(view, "Chase") {
		t.Error("batch output missing bank labels")
	}

	// A single run replaces the batch view
	a = update(t, a, runOfferCmd(a.runner, "amex")())
	if a.offers.batch != nil || a.offers.last == nil || a.offers.lastErr != nil {
		t.Fatalf("single run state = %+v", a.offers)
	}
}

func TestFirstRunShowsSetup(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	a := NewApp(Options{
		Repo:      wallet.NewMemoryRepository([]byte(seedWallet)),
		Config:    config.DefaultConfig(),
		NeedSetup: true,
	})
	a = update(t, a, tea.WindowSizeMsg{Width: 120, Height: 40})
	a = update(t, a, loadWalletCmd(a.repo, nil)())

	if a.setupForm == nil {
		t.Fatal("setup wizard not shown on first run")
	}
	// Keys go to the wizard, not the tabs
	a = press(t, a, "o")
	if a.activeTab != tabWallet {
		t.Fatal("tab key leaked past the setup wizard")
	}

	a.setupVals.DefaultType = wallet.TypeDebit
	a.setupVals.DefaultPeriod = wallet.PeriodAnnual
	a.setupVals.CatalogURL = "  https://example.com/benefits.json "
	if err := a.saveSetupConfig(); err != nil {
		t.Fatal(err)
	}

	saved, err := config.Load()
	if err != nil {
		t.Fatal(err)
	}
	if saved.Wallet.DefaultType != wallet.TypeDebit || saved.Wallet.DefaultPeriod != "annual" {
		t.Fatalf("saved wallet defaults = %+v", saved.Wallet)
	}
	if saved.Catalog.URL != "https://example.com/benefits.json" {
		t.Fatalf("saved catalog url = %q", saved.Catalog.URL)
	}
}
