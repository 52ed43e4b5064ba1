package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/smartsaver/internal/cli"
	"github.com/theirongolddev/smartsaver/internal/summary"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/spf13/cobra"
)

var flagSummaryTop int

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Totals across the wallet by period and by card",
	Args:  cobra.NoArgs,
	RunE:  runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&flagSummaryTop, "top", 5, "Show the N benefits with the most money left")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	w, s, err := openWallet(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer s.Close()

	cards := w.Cards()
	if len(cards) == 0 {
		fmt.Println("\n  Your wallet is empty.")
		return nil
	}

	stats := summary.Aggregate(cards)

	fmt.Println()
	fmt.Println(cli.RenderTitle("WALLET SUMMARY"))
	fmt.Println()

	rows := [][]string{
		{"Cards", cli.FormatNumber(int64(stats.Cards))},
		{"Benefits", cli.FormatNumber(int64(stats.Benefits))},
		{"---"},
		{"Limit (this period)", cli.FormatUSD(stats.Limit)},
		{"Used", cli.FormatUSD(stats.Used)},
		{"Remaining", cli.FormatUSD(stats.Remaining)},
		{"Utilization", cli.FormatPercent(stats.Utilization())},
		{"---"},
		{"Yearly value", cli.FormatUSD(stats.AnnualValue)},
	}
	fmt.Print(cli.RenderTable(cli.Table{Rows: rows}))
	fmt.Println()

	periodRows := make([][]string, 0, len(stats.ByPeriod))
	for _, p := range stats.ByPeriod {
		periodRows = append(periodRows, []string{
			p.Label,
			strconv.Itoa(p.Benefits),
			cli.FormatUSD(p.Limit),
			cli.FormatUSD(p.Used),
			cli.FormatUSD(p.Remaining),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "By Period",
		Headers: []string{"Period", "Benefits", "Limit", "Used", "Remaining"},
		Rows:    periodRows,
	}))
	fmt.Println()

	byCard := summary.ByCard(cards)
	cardRows := make([][]string, 0, len(byCard))
	for _, c := range byCard {
		cardRows = append(cardRows, []string{
			c.Name,
			c.Bank,
			strconv.Itoa(c.Benefits),
			cli.FormatUSD(c.Remaining),
			cli.FormatUSD(c.AnnualValue),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "By Card",
		Headers:  []string{"Card", "Bank", "Benefits", "Remaining", "Yearly"},
		Rows:     cardRows,
		LeftCols: 2,
	}))

	if top := summary.TopRemaining(cards, flagSummaryTop); len(top) > 0 && flagSummaryTop > 0 {
		fmt.Println()
		topRows := make([][]string, 0, len(top))
		for _, u := range top {
			topRows = append(topRows, []string{
				u.Benefit.DisplayName(),
				u.Card,
				wallet.PeriodLabel(u.Benefit.Period),
				"$" + cli.FormatAmount(u.Benefit.Remaining()),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    "Use It Before It Resets",
			Headers:  []string{"Benefit", "Card", "Period", "Left"},
			Rows:     topRows,
			LeftCols: 3,
		}))
	}
	fmt.Println()
	return nil
}
