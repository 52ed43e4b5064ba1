package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/cli"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/spf13/cobra"
)

var cardsCmd = &cobra.Command{
	Use:     "cards",
	Aliases: []string{"ls"},
	Short:   "List cards in the wallet",
	Args:    cobra.NoArgs,
	RunE:    runCards,
}

func init() {
	rootCmd.AddCommand(cardsCmd)
}

func runCards(cmd *cobra.Command, _ []string) error {
	w, s, err := openWallet(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	cards := w.Cards()
	if len(cards) == 0 {
		fmt.Println("\n  Your wallet is empty.")
		fmt.Println("  Add a card with `smartsaver card add --bank amex --name \"Gold Card\"`.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("WALLET"))
	fmt.Println()

	rows := make([][]string, 0, len(cards))
	for i, c := range cards {
		var remaining float64
		for _, b := range c.Benefits {
			remaining += b.Remaining()
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.DisplayName(),
			c.BankName(),
			cli.MaskLast4(c.Last4),
			c.TypeLabel(),
			strconv.Itoa(len(c.Benefits)),
			cli.FormatUSD(remaining),
			shortID(c.ID),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"#", "Card", "Bank", "Number", "Type", "Benefits", "Remaining", "ID"},
		Rows:     rows,
		LeftCols: 5,
	}))
	return nil
}

// resolveCard accepts a 1-based list position, a full id, or a unique id
// prefix.
func resolveCard(w *wallet.Wallet, ref string) (wallet.Card, error) {
	ref = strings.TrimSpace(ref)
	cards := w.Cards()

	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(cards) {
		return cards[n-1], nil
	}
	if c, ok := w.Card(ref); ok {
		return c, nil
	}

	var match []wallet.Card
	for _, c := range cards {
		if ref != "" && strings.HasPrefix(c.ID, ref) {
			match = append(match, c)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return wallet.Card{}, fmt.Errorf("%w: %q", wallet.ErrCardNotFound, ref)
	default:
		return wallet.Card{}, fmt.Errorf("card reference %q is ambiguous (%d matches)", ref, len(match))
	}
}

// resolveBenefit accepts a 1-based position within the card.
func resolveBenefit(c wallet.Card, ref string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(ref))
	if err != nil || n < 1 || n > len(c.Benefits) {
		if i := c.BenefitIndex(ref); i >= 0 {
			return i, nil
		}
		return 0, fmt.Errorf("%w: %q on %s", wallet.ErrBenefitNotFound, ref, c.DisplayName())
	}
	return n - 1, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// describeErr turns wallet sentinels into CLI-friendly messages.
func describeErr(err error) error {
	switch {
	case errors.Is(err, wallet.ErrBankRequired):
		return errors.New("a bank is required (--bank)")
	case errors.Is(err, wallet.ErrNameRequired):
		return errors.New("a name is required (--name)")
	default:
		return err
	}
}

func withWallet(ctx context.Context, catalog bool, fn func(*wallet.Wallet) error) error {
	w, s, err := openWallet(ctx, catalog)
	if err != nil {
		return err
	}
	defer s.Close()
	return describeErr(fn(w))
}
