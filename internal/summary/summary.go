// Package summary computes aggregate statistics over a card collection.
package summary

import (
	"sort"

	"github.com/theirongolddev/smartsaver/internal/wallet"
)

// OtherPeriod is the row key collecting benefits with unrecognized periods.
const OtherPeriod = "other"

// periodOrder fixes the row order of ByPeriod.
var periodOrder = []string{
	string(wallet.PeriodMonthly),
	string(wallet.PeriodQuarter),
	string(wallet.PeriodSemiannual),
	string(wallet.PeriodAnnual),
	OtherPeriod,
}

// resetsPerYear converts a per-period limit into a yearly value.
var resetsPerYear = map[wallet.Period]float64{
	wallet.PeriodMonthly:    12,
	wallet.PeriodQuarter:    4,
	wallet.PeriodSemiannual: 2,
	wallet.PeriodAnnual:     1,
}

// Totals are the money sums over a set of benefits.
type Totals struct {
	Benefits  int
	Limit     float64
	Used      float64
	Remaining float64
}

// Utilization returns Used/Limit clamped to [0, 1].
func (t Totals) Utilization() float64 {
	return wallet.Benefit{Limit: t.Limit, Used: t.Used}.Utilization()
}

func (t *Totals) add(b wallet.Benefit) {
	t.Benefits++
	t.Limit += b.Limit
	t.Used += b.Used
	t.Remaining += b.Remaining()
}

// PeriodStats is one row of the per-period breakdown.
type PeriodStats struct {
	Period string
	Label  string
	Totals
}

// CardStats is one row of the per-card breakdown.
type CardStats struct {
	ID   string
	Name string
	Bank string
	Totals
	// AnnualValue is the yearly worth of the card's credits; unrecognized
	// periods count once.
	AnnualValue float64
}

// Stats is the wallet-wide summary.
type Stats struct {
	Cards       int
	AnnualValue float64
	Totals
	ByPeriod []PeriodStats
}

// Aggregate computes wallet-wide totals and the per-period breakdown.
// Periods with no benefits are omitted from ByPeriod.
func Aggregate(cards []wallet.Card) Stats {
	stats := Stats{Cards: len(cards)}
	periods := make(map[string]*PeriodStats)

	for _, c := range cards {
		for _, b := range c.Benefits {
			stats.add(b)
			stats.AnnualValue += annualValue(b)

			key := periodKey(b.Period)
			ps, ok := periods[key]
			if !ok {
				ps = &PeriodStats{Period: key, Label: periodLabel(key)}
				periods[key] = ps
			}
			ps.add(b)
		}
	}

	for _, key := range periodOrder {
		if ps, ok := periods[key]; ok {
			stats.ByPeriod = append(stats.ByPeriod, *ps)
		}
	}
	return stats
}

// ByCard returns per-card totals in collection order.
func ByCard(cards []wallet.Card) []CardStats {
	out := make([]CardStats, 0, len(cards))
	for _, c := range cards {
		cs := CardStats{ID: c.ID, Name: c.DisplayName(), Bank: c.BankName()}
		for _, b := range c.Benefits {
			cs.add(b)
			cs.AnnualValue += annualValue(b)
		}
		out = append(out, cs)
	}
	return out
}

// TopRemaining returns up to n benefits with the most money left, largest
// first. Ties keep collection order.
func TopRemaining(cards []wallet.Card, n int) []Unused {
	var all []Unused
	for _, c := range cards {
		for _, b := range c.Benefits {
			if r := b.Remaining(); r > 0 {
				all = append(all, Unused{CardID: c.ID, Card: c.DisplayName(), Benefit: b})
			}
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Benefit.Remaining() > all[j].Benefit.Remaining()
	})
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

// Unused pairs a benefit with the card it belongs to.
type Unused struct {
	CardID  string
	Card    string
	Benefit wallet.Benefit
}

func periodKey(p wallet.Period) string {
	if p.Known() {
		return string(p)
	}
	return OtherPeriod
}

func periodLabel(key string) string {
	if key == OtherPeriod {
		return wallet.PeriodOther
	}
	return wallet.PeriodLabel(wallet.Period(key))
}

func annualValue(b wallet.Benefit) float64 {
	if n, ok := resetsPerYear[b.Period]; ok {
		return b.Limit * n
	}
	return b.Limit
}
