package wallet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// DecodeError reports a persisted blob that is not a JSON array of cards.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wallet: malformed card collection: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode parses a persisted card collection.
//
// The blob must be a JSON array (or empty/null, which yields no cards).
// Inside it, decoding is tolerant: array entries that are not objects are
// dropped, missing strings become "", amounts are coerced with coerceAmount,
// and a missing or non-array "benefits" becomes an empty slice.
func Decode(data []byte) ([]Card, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []Card{}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, &DecodeError{Err: err}
	}

	cards := make([]Card, 0, len(raws))
	for _, raw := range raws {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
			continue
		}
		cards = append(cards, Card{
			ID:       coerceString(fields["id"]),
			Name:     coerceString(fields["name"]),
			Bank:     coerceString(fields["bank"]),
			Last4:    coerceString(fields["last4"]),
			Type:     coerceString(fields["type"]),
			Notes:    coerceString(fields["notes"]),
			Benefits: DecodeBenefits(fields["benefits"]),
		})
	}
	return cards, nil
}

// DecodeBenefits parses a JSON array of benefits with the same coercion rules
// as Decode. Anything that is not an array yields an empty slice.
func DecodeBenefits(raw json.RawMessage) []Benefit {
	var raws []json.RawMessage
	if err := json.Unmarshal(raw, &raws); err != nil {
		return []Benefit{}
	}

	benefits := make([]Benefit, 0, len(raws))
	for _, r := range raws {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(r, &fields); err != nil || fields == nil {
			continue
		}
		benefits = append(benefits, Benefit{
			ID:     coerceString(fields["id"]),
			Name:   coerceString(fields["name"]),
			Period: Period(coerceString(fields["period"])),
			Limit:  coerceAmount(fields["limit"]),
			Used:   coerceAmount(fields["used"]),
		})
	}
	return benefits
}

// Encode serializes the collection. Benefits always encode as an array.
func Encode(cards []Card) ([]byte, error) {
	out := make([]Card, len(cards))
	for i, c := range cards {
		out[i] = cloneCard(c)
		for j := range out[i].Benefits {
			out[i].Benefits[j].Limit = finiteOrZero(out[i].Benefits[j].Limit)
			out[i].Benefits[j].Used = finiteOrZero(out[i].Benefits[j].Used)
		}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encoding cards: %w", err)
	}
	return data, nil
}

// ParseAmount coerces user input to a number. Empty, non-numeric and
// non-finite input all become 0. Negative values pass through.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(v)
}

func coerceString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	// Numeric ids written by older clients.
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func coerceAmount(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finiteOrZero(f)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseAmount(s)
	}
	return 0
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
