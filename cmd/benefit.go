package cmd

import (
	"fmt"

	"github.com/theirongolddev/smartsaver/internal/cli"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/spf13/cobra"
)

var (
	flagBenefitName   string
	flagBenefitPeriod string
	flagBenefitLimit  string
	flagBenefitUsed   string
)

var benefitCmd = &cobra.Command{
	Use:   "benefit",
	Short: "Add, remove or record usage of a card benefit",
}

var benefitAddCmd = &cobra.Command{
	Use:   "add <card>",
	Short: "Add a benefit to a card",
	Args:  cobra.ExactArgs(1),
	RunE:  runBenefitAdd,
}

var benefitRmCmd = &cobra.Command{
	Use:   "rm <card> <benefit#>",
	Short: "Remove a benefit by its position",
	Args:  cobra.ExactArgs(2),
	RunE:  runBenefitRm,
}

var benefitUseCmd = &cobra.Command{
	Use:   "use <card> <benefit#> <amount>",
	Short: "Set how much of a benefit has been used this period",
	Long: `Set how much of a benefit has been used this period. Non-numeric amounts are recorded as 0.

Flags must come before <card>; everything after it is positional, so a
negative amount such as -5 is read as the amount. Placing "--" before the
arguments works too.`,
	Example: "  smartsaver benefit use 1 2 12.50\n  smartsaver benefit use 1 2 -5",
	Args:    cobra.ExactArgs(3),
	RunE:    runBenefitUse,
}

func init() {
	benefitAddCmd.Flags().StringVar(&flagBenefitName, "name", "", "Benefit name")
	benefitAddCmd.Flags().StringVar(&flagBenefitPeriod, "period", "", "monthly, quarter, semiannual or annual (default from config)")
	benefitAddCmd.Flags().StringVar(&flagBenefitLimit, "limit", "", "Per-period limit in dollars")
	benefitAddCmd.Flags().StringVar(&flagBenefitUsed, "used", "", "Amount already used")

	// Stop flag parsing at <card> so "-5" stays an amount.
	benefitUseCmd.Flags().SetInterspersed(false)

	benefitCmd.AddCommand(benefitAddCmd, benefitRmCmd, benefitUseCmd)
	rootCmd.AddCommand(benefitCmd)
}

func runBenefitAdd(cmd *cobra.Command, args []string) error {
	return withWallet(cmd.Context(), false, func(w *wallet.Wallet) error {
		card, err := resolveCard(w, args[0])
		if err != nil {
			return err
		}
		b, err := w.AddBenefit(cmd.Context(), card.ID, wallet.BenefitInput{
			Name:   flagBenefitName,
			Period: wallet.Period(flagBenefitPeriod),
			Limit:  wallet.ParseAmount(flagBenefitLimit),
			Used:   wallet.ParseAmount(flagBenefitUsed),
		})
		if err != nil {
			return err
		}
		fmt.Printf("  Added %s to %s\n", b.DisplayName(), card.DisplayName())
		fmt.Printf("  %s\n", wallet.MetaText(b))
		return nil
	})
}

func runBenefitRm(cmd *cobra.Command, args []string) error {
	return withWallet(cmd.Context(), false, func(w *wallet.Wallet) error {
		card, err := resolveCard(w, args[0])
		if err != nil {
			return err
		}
		idx, err := resolveBenefit(card, args[1])
		if err != nil {
			return err
		}
		if err := w.RemoveBenefit(cmd.Context(), card.ID, idx); err != nil {
			return err
		}
		fmt.Printf("  Removed %s from %s\n", card.Benefits[idx].DisplayName(), card.DisplayName())
		return nil
	})
}

func runBenefitUse(cmd *cobra.Command, args []string) error {
	return withWallet(cmd.Context(), false, func(w *wallet.Wallet) error {
		card, err := resolveCard(w, args[0])
		if err != nil {
			return err
		}
		idx, err := resolveBenefit(card, args[1])
		if err != nil {
			return err
		}
		used := wallet.ParseAmount(args[2])
		if err := w.SetUsedAt(cmd.Context(), card.ID, idx, used); err != nil {
			return err
		}
		b := card.Benefits[idx]
		b.Used = used
		fmt.Printf("  %s: %s\n", b.DisplayName(), wallet.ProgressText(b))
		if bar := cli.RenderUsageBar(b.Used, b.Limit, 20); bar != "" {
			fmt.Printf("  %s\n", bar)
		}
		return nil
	})
}
