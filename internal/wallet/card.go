// Package wallet holds the card and benefit data model shared by every view:
// the typed decode/encode boundary, the lifecycle operations, and the derived
// display values.
package wallet

import (
	"strings"

	"github.com/theirongolddev/smartsaver/internal/cli"
)

// Card is a single catalogued credit or debit card.
type Card struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Bank     string    `json:"bank"`
	Last4    string    `json:"last4"`
	Type     string    `json:"type"`
	Notes    string    `json:"notes"`
	Benefits []Benefit `json:"benefits"`
}

// Benefit is a recurring statement credit tracked against a per-period limit.
type Benefit struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Period Period  `json:"period"`
	Limit  float64 `json:"limit"`
	Used   float64 `json:"used"`
}

// Card types offered by the add-card forms. Type is a free string in storage.
const (
	TypeCredit = "credit"
	TypeDebit  = "debit"
)

// DisplayName returns the card name, or a placeholder when it is empty.
func (c Card) DisplayName() string {
	if c.Name == "" {
		return "Untitled card"
	}
	return c.Name
}

// BankName returns the stored bank label, or a placeholder when it is empty.
func (c Card) BankName() string {
	if c.Bank == "" {
		return "Unknown bank"
	}
	return c.Bank
}

// TypeLabel returns the uppercased card type, defaulting to CREDIT.
func (c Card) TypeLabel() string {
	if c.Type == "" {
		return strings.ToUpper(TypeCredit)
	}
	return strings.ToUpper(c.Type)
}

// Network guesses the card network from the bank label.
func (c Card) Network() string {
	bank := strings.ToLower(c.Bank)
	switch {
	case strings.Contains(bank, "amex"), strings.Contains(bank, "american express"):
		return "AMEX"
	case strings.Contains(bank, "chase"):
		return "VISA"
	default:
		return ""
	}
}

// Subtitle joins the non-empty bank, last4 and type parts for headers.
func (c Card) Subtitle() string {
	var parts []string
	if c.Bank != "" {
		parts = append(parts, c.Bank)
	}
	if c.Last4 != "" {
		parts = append(parts, c.Last4)
	}
	if c.Type != "" {
		parts = append(parts, strings.ToUpper(c.Type))
	}
	return strings.Join(parts, " • ")
}

// BenefitIndex returns the position of the benefit with the given id, or -1.
func (c Card) BenefitIndex(id string) int {
	for i, b := range c.Benefits {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// DisplayName returns the benefit name, or a placeholder when it is empty.
func (b Benefit) DisplayName() string {
	if b.Name == "" {
		return "Untitled benefit"
	}
	return b.Name
}

// Remaining is the unused part of the limit, floored at zero.
func (b Benefit) Remaining() float64 {
	return Remaining(b.Limit, b.Used)
}

// ShowRemaining reports whether the Remaining segment should be displayed.
// A zero limit suppresses it entirely.
func (b Benefit) ShowRemaining() bool {
	return b.Limit != 0
}

// Utilization returns used/limit clamped to [0, 1]; 0 when there is no limit.
func (b Benefit) Utilization() float64 {
	if b.Limit <= 0 {
		return 0
	}
	pct := b.Used / b.Limit
	if pct < 0 {
		return 0
	}
	if pct > 1 {
		return 1
	}
	return pct
}

// Remaining computes max(0, limit-used).
func Remaining(limit, used float64) float64 {
	r := limit - used
	if r < 0 {
		return 0
	}
	return r
}

// MetaText renders the period line, e.g. "Quarterly $100 per period".
func MetaText(b Benefit) string {
	return PeriodLabel(b.Period) + " $" + cli.FormatAmount(b.Limit) + " per period"
}

// ProgressText renders the usage line, e.g. "Used $40 of $100 Remaining $60".
func ProgressText(b Benefit) string {
	s := "Used $" + cli.FormatAmount(b.Used) + " of $" + cli.FormatAmount(b.Limit)
	if b.ShowRemaining() {
		s += " Remaining $" + cli.FormatAmount(b.Remaining())
	}
	return s
}

func cloneCard(c Card) Card {
	cp := c
	cp.Benefits = append(make([]Benefit, 0, len(c.Benefits)), c.Benefits...)
	return cp
}

func cloneCards(cards []Card) []Card {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = cloneCard(c)
	}
	return out
}
