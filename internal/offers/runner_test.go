package offers

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
)

func TestRunUnknownBank(t *testing.T) {
	r := NewRunner(map[string]string{"amex": "true"})
	_, err := r.Run(context.Background(), "chase")
	if !errors.Is(err, ErrNoScript) {
		t.Fatalf("err = %v, want ErrNoScript", err)
	}
}

func TestBanksSkipsBlankCommands(t *testing.T) {
	r := NewRunner(map[string]string{"chase": "x", "amex": "y", "citi": "   "})
	got := strings.Join(r.Banks(), ",")
	if got != "amex,chase" {
		t.Fatalf("Banks = %s", got)
	}
	if r.Label("amex") != "American Express" {
		t.Fatalf("Label = %q", r.Label("amex"))
	}
	if cmd, ok := r.Command("amex"); !ok || cmd != "y" {
		t.Fatalf("Command = %q, %v", cmd, ok)
	}
}

func TestRunCapturesOutput(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	r := NewRunner(map[string]string{"amex": "echo activated 3 offers"})
	res, err := r.Run(context.Background(), "amex")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(res.Output) != "activated 3 offers" {
		t.Fatalf("Output = %q", res.Output)
	}
	if res.Bank != "amex" {
		t.Fatalf("Bank = %q", res.Bank)
	}
}

func TestRunFailureIsReported(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}
	r := NewRunner(map[string]string{"chase": "false"})
	if _, err := r.Run(context.Background(), "chase"); err == nil {
		t.Fatal("expected error from failing script")
	}
}

func TestRunAllKeepsBankOrderAndCountsFailures(t *testing.T) {
	for _, bin := range []string{"true", "false", "echo"} {
		if _, err := exec.LookPath(bin); err != nil {
			t.Skipf("%s not available", bin)
		}
	}
	r := NewRunner(map[string]string{
		"citi":  "false",
		"amex":  "echo amex",
		"chase": "true",
	})

	var calls []int
	batch := r.RunAll(context.Background(), func(current, total int, _ Result, _ error) {
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
		calls = append(calls, current)
	})

	if len(calls) != 3 {
		t.Fatalf("progress calls = %v", calls)
	}
	if batch.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", batch.Failed)
	}
	want := []string{"amex", "chase", "citi"}
	for i, res := range batch.Results {
		if res.Bank != want[i] {
			t.Fatalf("Results[%d].Bank = %q, want %q", i, res.Bank, want[i])
		}
	}
	if batch.Errs[2] == nil || batch.Errs[0] != nil {
		t.Fatalf("Errs = %v", batch.Errs)
	}
	if strings.TrimSpace(batch.Results[0].Output) != "amex" {
		t.Fatalf("Output = %q", batch.Results[0].Output)
	}
}

func TestRunAllEmpty(t *testing.T) {
	batch := NewRunner(nil).RunAll(context.Background(), nil)
	if len(batch.Results) != 0 || batch.Failed != 0 {
		t.Fatalf("batch = %+v", batch)
	}
}
