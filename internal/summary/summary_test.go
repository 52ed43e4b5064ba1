package summary

import (
	"testing"

	"github.com/theirongolddev/smartsaver/internal/wallet"
)

func testCards() []wallet.Card {
	return []wallet.Card{
		{ID: "c1", Name: "Gold Card", Bank: "American Express", Benefits: []wallet.Benefit{
			{ID: "b1", Name: "Dining", Period: wallet.PeriodMonthly, Limit: 10, Used: 4},
			{ID: "b2", Name: "Resy", Period: wallet.PeriodSemiannual, Limit: 50, Used: 60},
		}},
		{ID: "c2", Bank: "", Benefits: []wallet.Benefit{
			{ID: "b3", Name: "Mystery", Period: "weekly", Limit: 5},
			{ID: "b4", Name: "Travel", Period: wallet.PeriodAnnual, Limit: 300, Used: 100},
		}},
		{ID: "c3", Name: "Empty", Bank: "Other"},
	}
}

func TestAggregate(t *testing.T) {
	stats := Aggregate(testCards())

	if stats.Cards != 3 || stats.Benefits != 4 {
		t.Fatalf("counts = %d cards, %d benefits", stats.Cards, stats.Benefits)
	}
	if stats.Limit != 365 || stats.Used != 164 {
		t.Fatalf("limit/used = %v/%v", stats.Limit, stats.Used)
	}
	// 6 + 0 (overspent floors at zero) + 5 + 200
	if stats.Remaining != 211 {
		t.Fatalf("remaining = %v", stats.Remaining)
	}
	// 120 + 100 + 5 + 300
	if stats.AnnualValue != 525 {
		t.Fatalf("annual value = %v", stats.AnnualValue)
	}

	var order []string
	for _, p := range stats.ByPeriod {
		order = append(order, p.Period)
	}
	want := []string{"monthly", "semiannual", "annual", "other"}
	if len(order) != len(want) {
		t.Fatalf("period rows = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("period rows = %v, want %v", order, want)
		}
	}
	if stats.ByPeriod[3].Label != "Other" || stats.ByPeriod[0].Label != "Monthly" {
		t.Fatalf("labels = %q, %q", stats.ByPeriod[0].Label, stats.ByPeriod[3].Label)
	}
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	if stats.Cards != 0 || stats.Benefits != 0 || len(stats.ByPeriod) != 0 {
		t.Fatalf("got %+v", stats)
	}
	if stats.Utilization() != 0 {
		t.Fatal("utilization of empty wallet should be 0")
	}
}

func TestByCard(t *testing.T) {
	rows := ByCard(testCards())
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[0].Name != "Gold Card" || rows[0].Limit != 60 || rows[0].Remaining != 6 {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].Name != "Untitled card" || rows[1].Bank != "Unknown bank" {
		t.Fatalf("row 1 = %+v", rows[1])
	}
	if rows[2].Benefits != 0 {
		t.Fatalf("row 2 = %+v", rows[2])
	}
}

func TestTopRemaining(t *testing.T) {
	top := TopRemaining(testCards(), 2)
	if len(top) != 2 {
		t.Fatalf("got %d", len(top))
	}
	if top[0].Benefit.ID != "b4" || top[1].Benefit.ID != "b1" {
		t.Fatalf("order = %s, %s", top[0].Benefit.ID, top[1].Benefit.ID)
	}
	if top[1].Card != "Gold Card" {
		t.Fatalf("card = %q", top[1].Card)
	}
}
