// Package offers runs the per-bank offer-activation scripts.
//
// A script is a one-shot command with no parameters and no result contract:
// success is a zero exit status, and its combined output is kept only for
// display.
package offers

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/theirongolddev/smartsaver/internal/catalog"
	"github.com/theirongolddev/smartsaver/internal/logging"
)

// ErrNoScript indicates no script is configured for the bank.
var ErrNoScript = errors.New("offers: no script configured")

const defaultTimeout = 2 * time.Minute

// Result is the outcome of one script run.
type Result struct {
	Bank     string
	Output   string
	Duration time.Duration
}

// Runner maps bank codes to command lines.
type Runner struct {
	scripts map[string][]string
	timeout time.Duration
}

// NewRunner builds a runner from bank → command line. Blank commands are
// ignored. Arguments are split on whitespace; no shell is involved.
func NewRunner(scripts map[string]string) *Runner {
	r := &Runner{scripts: make(map[string][]string), timeout: defaultTimeout}
	for bank, line := range scripts {
		if argv := strings.Fields(line); len(argv) > 0 {
			r.scripts[bank] = argv
		}
	}
	return r
}

// Banks returns the bank codes that have a script, sorted.
func (r *Runner) Banks() []string {
	banks := make([]string, 0, len(r.scripts))
	for b := range r.scripts {
		banks = append(banks, b)
	}
	sort.Strings(banks)
	return banks
}

// Label returns the display label for a configured bank.
func (r *Runner) Label(bank string) string {
	return catalog.BankLabel(bank)
}

// Command returns the configured command line for bank.
func (r *Runner) Command(bank string) (string, bool) {
	argv, ok := r.scripts[bank]
	return strings.Join(argv, " "), ok
}

// Run executes the bank's script once and waits for it to finish.
func (r *Runner) Run(ctx context.Context, bank string) (Result, error) {
	argv, ok := r.scripts[bank]
	if !ok {
		return Result{Bank: bank}, fmt.Errorf("%w for %q", ErrNoScript, bank)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	//nolint:gosec // command comes from the user's own config
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	out, err := cmd.CombinedOutput()
	res := Result{Bank: bank, Output: string(out), Duration: time.Since(start)}
	if err != nil {
		logging.Warnf("offers script for %s failed: %v", bank, err)
		return res, fmt.Errorf("running %s offers script: %w", bank, err)
	}
	logging.Infof("offers script for %s finished in %s", bank, res.Duration.Round(time.Millisecond))
	return res, nil
}
