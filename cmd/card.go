package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/catalog"
	"github.com/theirongolddev/smartsaver/internal/cli"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/spf13/cobra"
)

var (
	flagCardBank  string
	flagCardName  string
	flagCardLast4 string
	flagCardType  string
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Add, show, annotate or remove a card",
}

var cardAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a card, seeding benefits from the catalog",
	Args:  cobra.NoArgs,
	RunE:  runCardAdd,
}

var cardShowCmd = &cobra.Command{
	Use:   "show <card>",
	Short: "Show a card with its benefits and notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardShow,
}

var cardRmCmd = &cobra.Command{
	Use:     "rm <card>",
	Aliases: []string{"delete"},
	Short:   "Delete a card",
	Args:    cobra.ExactArgs(1),
	RunE:    runCardRm,
}

var cardNotesCmd = &cobra.Command{
	Use:   "notes <card> <text...>",
	Short: "Replace a card's notes",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCardNotes,
}

func init() {
	cardAddCmd.Flags().StringVar(&flagCardBank, "bank", "", "Bank code (amex, chase, citi, boa, discover, other)")
	cardAddCmd.Flags().StringVar(&flagCardName, "name", "", "Card name, e.g. \"Gold Card\"")
	cardAddCmd.Flags().StringVar(&flagCardLast4, "last4", "", "Last four digits")
	cardAddCmd.Flags().StringVar(&flagCardType, "type", "", "credit or debit (default from config)")

	cardCmd.AddCommand(cardAddCmd, cardShowCmd, cardRmCmd, cardNotesCmd)
	rootCmd.AddCommand(cardCmd)
}

func runCardAdd(cmd *cobra.Command, _ []string) error {
	return withWallet(cmd.Context(), true, func(w *wallet.Wallet) error {
		if _, known := catalog.LookupBank(flagCardBank); flagCardBank != "" && !known {
			progress("  Note: %q is not a known bank code; storing it as-is\n", flagCardBank)
		}
		card, err := w.AddCard(cmd.Context(), wallet.CardInput{
			Bank:  flagCardBank,
			Name:  flagCardName,
			Last4: flagCardLast4,
			Type:  flagCardType,
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s (%s) with %d benefit(s)\n", card.DisplayName(), card.BankName(), len(card.Benefits))
		fmt.Printf("  ID: %s\n", card.ID)
		return nil
	})
}

func runCardShow(cmd *cobra.Command, args []string) error {
	return withWallet(cmd.Context(), false, func(w *wallet.Wallet) error {
		card, err := resolveCard(w, args[0])
		if err != nil {
			return err
		}
		printCard(card)
		return nil
	})
}

func runCardRm(cmd *cobra.Command, args []string) error {
	return withWallet(cmd.Context(), false, func(w *wallet.Wallet) error {
		card, err := resolveCard(w, args[0])
		if err != nil {
			return err
		}
		if err := w.DeleteCard(cmd.Context(), card.ID); err != nil {
			return err
		}
		fmt.Printf("  Deleted %s\n", card.DisplayName())
		return nil
	})
}

func runCardNotes(cmd *cobra.Command, args []string) error {
	return withWallet(cmd.Context(), false, func(w *wallet.Wallet) error {
		card, err := resolveCard(w, args[0])
		if err != nil {
			return err
		}
		notes := strings.Join(args[1:], " ")
		if err := w.UpdateNotes(cmd.Context(), card.ID, notes); err != nil {
			return err
		}
		if notes == "" {
			fmt.Printf("  Cleared notes on %s\n", card.DisplayName())
		} else {
			fmt.Printf("  Updated notes on %s\n", card.DisplayName())
		}
		return nil
	})
}

func printCard(card wallet.Card) {
	fmt.Println()
	fmt.Println(cli.RenderTitle(card.DisplayName()))
	fmt.Printf("  %s\n", card.Subtitle())
	if n := card.Network(); n != "" {
		fmt.Printf("  %s\n", cli.RenderMuted(n))
	}
	fmt.Println()

	if len(card.Benefits) == 0 {
		fmt.Println("  No benefits yet. Add one with `smartsaver benefit add`.")
	} else {
		rows := make([][]string, 0, len(card.Benefits))
		for i, b := range card.Benefits {
			remaining := ""
			if b.ShowRemaining() {
				remaining = "$" + cli.FormatAmount(b.Remaining())
			}
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				b.DisplayName(),
				wallet.PeriodLabel(b.Period),
				"$" + cli.FormatAmount(b.Limit),
				"$" + cli.FormatAmount(b.Used),
				remaining,
				cli.RenderUsageBar(b.Used, b.Limit, 12),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Benefits",
			Headers:  []string{"#", "Benefit", "Period", "Limit", "Used", "Remaining", "Usage"},
			Rows:     rows,
			LeftCols: 3,
		}))
	}

	fmt.Println()
	fmt.Println("  Notes")
	if card.Notes == "" {
		fmt.Println("  " + cli.RenderMuted("(none)"))
	} else {
		for _, line := range strings.Split(card.Notes, "\n") {
			fmt.Println("  " + line)
		}
	}
	fmt.Println()
}
