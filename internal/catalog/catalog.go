// Package catalog loads the default-benefit catalog used to seed new cards.
//
// The document maps a bank code to a map of exact card names to benefit
// templates:
//
//	{"amex": {"Gold Card": [{"name": "...", "period": "monthly", "limit": 10, "used": 0}]}}
package catalog

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/theirongolddev/smartsaver/internal/wallet"
)

// Catalog is an immutable set of benefit templates. The zero value and a nil
// *Catalog are both empty catalogs.
type Catalog struct {
	entries map[string]map[string][]wallet.Benefit
	newID   func() string
}

// Option configures a Catalog.
type Option func(*Catalog)

// WithIDFunc overrides the id generator used for copied templates.
func WithIDFunc(fn func() string) Option {
	return func(c *Catalog) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// Empty returns a catalog with no entries.
func Empty(opts ...Option) *Catalog {
	c := &Catalog{entries: map[string]map[string][]wallet.Benefit{}, newID: uuid.NewString}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Parse decodes a catalog document. The top level must be an object of
// objects; individual templates are coerced like stored benefits.
func Parse(data []byte, opts ...Option) (*Catalog, error) {
	var doc map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parsing document: %w", err)
	}

	c := Empty(opts...)
	for bank, cards := range doc {
		byName := make(map[string][]wallet.Benefit, len(cards))
		for name, raw := range cards {
			byName[name] = wallet.DecodeBenefits(raw)
		}
		c.entries[bank] = byName
	}
	return c, nil
}

// BankLabel implements wallet.Catalog.
func (c *Catalog) BankLabel(code string) string {
	return BankLabel(code)
}

// DefaultBenefits returns fresh copies of the templates for the exact
// (bank code, card name) pair, each with a new id. A miss yields an empty
// slice.
func (c *Catalog) DefaultBenefits(bankCode, cardName string) []wallet.Benefit {
	if c == nil {
		return []wallet.Benefit{}
	}
	tmpl := c.entries[bankCode][cardName]
	out := make([]wallet.Benefit, len(tmpl))
	for i, b := range tmpl {
		b.ID = c.id()
		out[i] = b
	}
	return out
}

// Len returns the number of (bank, card) entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, cards := range c.entries {
		n += len(cards)
	}
	return n
}

// Entry is one (bank, card) row for listings.
type Entry struct {
	Bank     string
	Card     string
	Benefits []wallet.Benefit
}

// Entries lists every entry sorted by bank code then card name.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	var out []Entry
	for bank, cards := range c.entries {
		for name, tmpl := range cards {
			out = append(out, Entry{
				Bank:     bank,
				Card:     name,
				Benefits: append([]wallet.Benefit(nil), tmpl...),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Bank != out[j].Bank {
			return out[i].Bank < out[j].Bank
		}
		return out[i].Card < out[j].Card
	})
	return out
}

func (c *Catalog) id() string {
	if c.newID == nil {
		return uuid.NewString()
	}
	return c.newID()
}
