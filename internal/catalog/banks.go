package catalog

// Bank is one entry of the add-card bank select.
type Bank struct {
	Code  string
	Label string
	Cards []string
}

// Banks lists the selectable banks in display order, each with the card
// names offered for it.
var Banks = []Bank{
	{Code: "amex", Label: "American Express", Cards: []string{
		"Blue Cash Preferred",
		"Blue Cash Everyday",
		"Gold Card",
		"Platinum Card",
		"Everyday Card",
	}},
	{Code: "chase", Label: "Chase", Cards: []string{
		"Chase Freedom Flex",
		"Chase Freedom Unlimited",
		"Sapphire Preferred",
		"Sapphire Reserve",
		"Chase Ink Business Cash",
	}},
	{Code: "citi", Label: "Citi", Cards: []string{
		"Citi Custom Cash",
		"Citi Double Cash",
		"Citi Premier",
	}},
	{Code: "boa", Label: "Bank of America", Cards: []string{
		"Bank of America Customized Cash",
		"Bank of America Travel Rewards",
	}},
	{Code: "discover", Label: "Discover", Cards: []string{
		"Discover it Cash Back",
		"Discover it Miles",
	}},
	{Code: "other", Label: "Other", Cards: []string{
		"Generic Credit Card",
		"Generic Debit Card",
	}},
}

// LookupBank finds a bank by code.
func LookupBank(code string) (Bank, bool) {
	for _, b := range Banks {
		if b.Code == code {
			return b, true
		}
	}
	return Bank{}, false
}

// BankLabel maps a bank code to its display label. Unknown codes are
// returned as-is; an empty code becomes "Unknown bank".
func BankLabel(code string) string {
	if b, ok := LookupBank(code); ok {
		return b.Label
	}
	if code == "" {
		return "Unknown bank"
	}
	return code
}

// CardNames returns the card names offered for a bank code, or nil.
func CardNames(code string) []string {
	b, ok := LookupBank(code)
	if !ok {
		return nil
	}
	return append([]string(nil), b.Cards...)
}

// Offered reports whether the add-card select offers card under bank code.
func Offered(code, card string) bool {
	for _, name := range CardNames(code) {
		if name == card {
			return true
		}
	}
	return false
}
