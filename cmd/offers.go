package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/smartsaver/internal/config"
	"github.com/theirongolddev/smartsaver/internal/offers"

	"github.com/spf13/cobra"
)

var offersCmd = &cobra.Command{
	Use:   "offers [bank]",
	Short: "Run a bank's offer-activation script",
	Long: "Run the offer-activation command configured for a bank under [offers.scripts].\n" +
		"With no argument, list the configured banks. --all runs every script.",
	Args: cobra.MaximumNArgs(1),
	RunE: runOffers,
}

var flagOffersAll bool

func init() {
	offersCmd.Flags().BoolVar(&flagOffersAll, "all", false, "Run every configured script")
	rootCmd.AddCommand(offersCmd)
}

func runOffers(cmd *cobra.Command, args []string) error {
	runner := offers.NewRunner(appCfg.Offers.Scripts)

	if flagOffersAll {
		return runAllOffers(cmd, runner)
	}

	if len(args) == 0 {
		banks := runner.Banks()
		if len(banks) == 0 {
			fmt.Println("\n  No offer scripts configured.")
			fmt.Printf("  Add one under [offers.scripts] in %s, e.g.\n\n", config.ConfigPath())
			fmt.Println("    [offers.scripts]")
			fmt.Println("    amex = \"amex-offers --activate-all\"")
			fmt.Println()
			return nil
		}
		fmt.Println()
		for _, b := range banks {
			line, _ := runner.Command(b)
			fmt.Printf("  %-18s %s\n", runner.Label(b), line)
		}
		fmt.Println()
		return nil
	}

	bank := args[0]
	progress("  Running %s offers script...\n", runner.Label(bank))
	res, err := runner.Run(cmd.Context(), bank)
	if out := strings.TrimRight(res.Output, "\n"); out != "" {
		fmt.Println(out)
	}
	if errors.Is(err, offers.ErrNoScript) {
		return fmt.Errorf("no offers script configured for %q (see `smartsaver offers`)", bank)
	}
	if err != nil {
		return err
	}
	progress("  Done in %s\n", res.Duration.Round(time.Millisecond))
	return nil
}

func runAllOffers(cmd *cobra.Command, runner *offers.Runner) error {
	if len(runner.Banks()) == 0 {
		return errors.New("no offer scripts configured (see `smartsaver offers`)")
	}

	batch := runner.RunAll(cmd.Context(), func(current, total int, res offers.Result, err error) {
		status := "ok"
		if err != nil {
			status = "failed"
		}
		progress("\r  [%d/%d] %s %s", current, total, runner.Label(res.Bank), status)
	})
	progress("\n")

	for i, res := range batch.Results {
		fmt.Printf("\n  %s", runner.Label(res.Bank))
		if err := batch.Errs[i]; err != nil {
			fmt.Printf(" (failed: %v)\n", err)
		} else {
			fmt.Printf(" (%s)\n", res.Duration.Round(time.Millisecond))
		}
		if out := strings.TrimRight(res.Output, "\n"); out != "" {
			fmt.Println(out)
		}
	}
	fmt.Println()

	if batch.Failed > 0 {
		return fmt.Errorf("%d of %d offer scripts failed", batch.Failed, len(batch.Results))
	}
	return nil
}
