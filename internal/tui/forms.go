package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/catalog"
	"github.com/theirongolddev/smartsaver/internal/tui/theme"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/charmbracelet/huh"
)

type formKind int

const (
	formNone formKind = iota
	formAddCard
	formAddBenefit
	formDeleteCard
)

// Form payloads live behind pointers so the huh fields stay bound across
// App copies.
type cardFormValues struct {
	Bank  string
	Name  string
	Last4 string
	Type  string
}

type benefitFormValues struct {
	CardID string
	Name   string
	Period wallet.Period
	Limit  string
	Used   string
}

type confirmValues struct {
	CardID string
	OK     bool
}

func requireValue(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

func newCardForm(v *cardFormValues) *huh.Form {
	bankOpts := make([]huh.Option[string], 0, len(catalog.Banks))
	for _, b := range catalog.Banks {
		bankOpts = append(bankOpts, huh.NewOption(b.Label, b.Code))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Bank").
				Options(bankOpts...).
				Validate(requireValue("Pick a bank")).
				Value(&v.Bank),
			huh.NewSelect[string]().
				Title("Card").
				OptionsFunc(func() []huh.Option[string] {
					return huh.NewOptions(catalog.CardNames(v.Bank)...)
				}, &v.Bank).
				Validate(requireValue("Pick a card")).
				Value(&v.Name),
			huh.NewInput().
				Title("Last 4 digits").
				Placeholder("optional").
				CharLimit(4).
				Value(&v.Last4),
			huh.NewSelect[string]().
				Title("Type").
				Options(
					huh.NewOption("Credit", wallet.TypeCredit),
					huh.NewOption("Debit", wallet.TypeDebit),
				).
				Value(&v.Type),
		).Title("Add card"),
	).WithTheme(theme.Active.Huh()).WithShowHelp(true)
}

func periodOptions() []huh.Option[wallet.Period] {
	opts := make([]huh.Option[wallet.Period], 0, len(wallet.Periods))
	for _, p := range wallet.Periods {
		opts = append(opts, huh.NewOption(wallet.PeriodLabel(p), p))
	}
	return opts
}

func newBenefitForm(cardName string, v *benefitFormValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Benefit").
				Placeholder("Dining credit").
				Validate(requireValue("Name the benefit")).
				Value(&v.Name),
			huh.NewSelect[wallet.Period]().
				Title("Period").
				Options(periodOptions()...).
				Value(&v.Period),
			huh.NewInput().
				Title("Limit per period ($)").
				Placeholder("0").
				Value(&v.Limit),
			huh.NewInput().
				Title("Used so far ($)").
				Placeholder("0").
				Value(&v.Used),
		).Title("Add benefit to " + cardName),
	).WithTheme(theme.Active.Huh()).WithShowHelp(true)
}

func newDeleteForm(cardName string, v *confirmValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Delete %s?", cardName)).
				Description("Its benefits and notes go with it.").
				Affirmative("Delete").
				Negative("Cancel").
				Value(&v.OK),
		),
	).WithTheme(theme.Active.Huh()).WithShowHelp(true)
}
