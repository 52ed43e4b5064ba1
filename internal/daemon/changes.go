package daemon

import (
	"github.com/theirongolddev/smartsaver/internal/wallet"
)

// ChangeKind names what happened to a card or benefit between two polls.
type ChangeKind string

// Change kinds, in the order diffCards reports them for a card.
const (
	ChangeCardAdded        ChangeKind = "card_added"
	ChangeCardRemoved      ChangeKind = "card_removed"
	ChangeBenefitAdded     ChangeKind = "benefit_added"
	ChangeBenefitRemoved   ChangeKind = "benefit_removed"
	ChangeBenefitUsed      ChangeKind = "benefit_used"
	ChangeBenefitReset     ChangeKind = "benefit_reset"
	ChangeBenefitExhausted ChangeKind = "benefit_exhausted"
)

// Change is one card- or benefit-level difference between polls.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	CardID    string     `json:"card_id"`
	Card      string     `json:"card"`
	BenefitID string     `json:"benefit_id,omitempty"`
	Benefit   string     `json:"benefit,omitempty"`
	// UsedBefore/UsedAfter are set for used, reset and exhausted changes.
	UsedBefore float64 `json:"used_before,omitempty"`
	UsedAfter  float64 `json:"used_after,omitempty"`
	Remaining  float64 `json:"remaining,omitempty"`
}

// diffCards compares two collections by card id and, within a card, by
// benefit id. Changes follow curr's order; removed cards come last in
// prev's order. Notes, names and limits are not tracked.
func diffCards(prev, curr []wallet.Card) []Change {
	var out []Change

	before := make(map[string]wallet.Card, len(prev))
	for _, c := range prev {
		before[c.ID] = c
	}
	seen := make(map[string]bool, len(curr))

	for _, c := range curr {
		seen[c.ID] = true
		old, ok := before[c.ID]
		if !ok {
			out = append(out, Change{Kind: ChangeCardAdded, CardID: c.ID, Card: c.DisplayName()})
			continue
		}
		out = append(out, diffBenefits(old, c)...)
	}

	for _, c := range prev {
		if !seen[c.ID] {
			out = append(out, Change{Kind: ChangeCardRemoved, CardID: c.ID, Card: c.DisplayName()})
		}
	}
	return out
}

func diffBenefits(prev, curr wallet.Card) []Change {
	var out []Change
	card := curr.DisplayName()

	before := make(map[string]wallet.Benefit, len(prev.Benefits))
	for _, b := range prev.Benefits {
		before[b.ID] = b
	}
	seen := make(map[string]bool, len(curr.Benefits))

	for _, b := range curr.Benefits {
		seen[b.ID] = true
		ch := Change{CardID: curr.ID, Card: card, BenefitID: b.ID, Benefit: b.DisplayName()}

		old, ok := before[b.ID]
		if !ok {
			ch.Kind = ChangeBenefitAdded
			out = append(out, ch)
			continue
		}
		if old.Used == b.Used {
			continue
		}

		ch.UsedBefore, ch.UsedAfter, ch.Remaining = old.Used, b.Used, b.Remaining()
		if b.Used > old.Used {
			ch.Kind = ChangeBenefitUsed
		} else {
			ch.Kind = ChangeBenefitReset
		}
		out = append(out, ch)

		if b.Limit > 0 && old.Remaining() > 0 && b.Remaining() == 0 {
			ch.Kind = ChangeBenefitExhausted
			out = append(out, ch)
		}
	}

	for _, b := range prev.Benefits {
		if !seen[b.ID] {
			out = append(out, Change{
				Kind:      ChangeBenefitRemoved,
				CardID:    curr.ID,
				Card:      card,
				BenefitID: b.ID,
				Benefit:   b.DisplayName(),
			})
		}
	}
	return out
}
