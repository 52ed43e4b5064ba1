package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/smartsaver/internal/catalog"
	"github.com/theirongolddev/smartsaver/internal/cli"
	"github.com/theirongolddev/smartsaver/internal/wallet"

	"github.com/spf13/cobra"
)

var flagCatalogBank string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List banks, card names and their default benefits",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	catalogCmd.Flags().StringVar(&flagCatalogBank, "bank", "", "Only show this bank code")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	src := catalogSource()
	cat := catalog.Load(cmd.Context(), src, nil)

	fmt.Println()
	fmt.Println(cli.RenderTitle("DEFAULT BENEFITS"))
	fmt.Printf("  Source: %s (%d entries)\n\n", src.Describe(), cat.Len())

	for _, bank := range catalog.Banks {
		if flagCatalogBank != "" && bank.Code != flagCatalogBank {
			continue
		}
		rows := make([][]string, 0, len(bank.Cards))
		for _, name := range bank.Cards {
			benefits := cat.DefaultBenefits(bank.Code, name)
			rows = append(rows, []string{
				name,
				benefitNames(benefits),
				strconv.Itoa(len(benefits)),
			})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Title:    fmt.Sprintf("%s (%s)", bank.Label, bank.Code),
			Headers:  []string{"Card", "Includes", "Benefits"},
			Rows:     rows,
			LeftCols: 2,
		}))
		fmt.Println()
	}

	printUnofferedEntries(cat.Entries())
	return nil
}

// printUnofferedEntries lists catalog entries the add-card select cannot
// reach, typically from a custom catalog file.
func printUnofferedEntries(entries []catalog.Entry) {
	var rows [][]string
	for _, e := range entries {
		if catalog.Offered(e.Bank, e.Card) {
			continue
		}
		if flagCatalogBank != "" && e.Bank != flagCatalogBank {
			continue
		}
		rows = append(rows, []string{
			e.Bank,
			e.Card,
			benefitNames(e.Benefits),
			strconv.Itoa(len(e.Benefits)),
		})
	}
	if len(rows) == 0 {
		return
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:    "Not in the add-card list",
		Headers:  []string{"Bank", "Card", "Includes", "Benefits"},
		Rows:     rows,
		LeftCols: 3,
	}))
	fmt.Println("  Use `smartsaver card add --bank <code> --name <card>` to add these by exact name.")
	fmt.Println()
}

func benefitNames(benefits []wallet.Benefit) string {
	names := make([]string, 0, len(benefits))
	for _, b := range benefits {
		names = append(names, fmt.Sprintf("%s $%s/%s", b.DisplayName(), cli.FormatAmount(b.Limit), strings.ToLower(wallet.PeriodLabel(b.Period))))
	}
	s := []rune(strings.Join(names, ", "))
	if len(s) > 70 {
		return string(s[:67]) + "..."
	}
	return string(s)
}
