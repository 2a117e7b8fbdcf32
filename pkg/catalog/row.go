package catalog

import (
	"strings"
)

// Variant is a plan tier within a product.
type Variant string

const (
	VariantBronze   Variant = "bronze"
	VariantSilver   Variant = "silver"
	VariantGold     Variant = "gold"
	VariantPlatinum Variant = "platinum"
	VariantDiamond  Variant = "diamond"
	VariantCrown    Variant = "crown"
	VariantDefault  Variant = "default"
	VariantAce      Variant = "ace"
)

// variantKeywords is scanned in declaration order; the first whole-word
// match wins even when a message names several tiers.
var variantKeywords = []Variant{
	VariantBronze,
	VariantSilver,
	VariantGold,
	VariantPlatinum,
	VariantDiamond,
	VariantCrown,
	VariantDefault,
	VariantAce,
}

// Benefit is one named benefit with its description.
type Benefit struct {
	Name        string
	Description string
}

// Row is one (product, variant) offering. Rows are immutable after load.
type Row struct {
	ProductOwner string
	ProductName  string
	ProductID    string
	Variant      Variant
	Description  string
	DeepLink     string

	// Pricing fields are mutually redundant representations of cost;
	// any subset may be present.
	PrepaidDaily    *float64
	PostpaidMonthly *float64
	MonthlyPrice    *float64
	YearlyPrice     *float64

	Benefits []Benefit

	DocumentsRequired string
}

// Normalize lowercases, strips punctuation except ()/+ and collapses
// whitespace. Lookup keys and free-text matching both use this form.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9',
			r == '(', r == ')', r == '/', r == '+':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// tokenize splits normalized text into its whitespace-separated tokens.
func tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// tokenSet returns the distinct tokens of the normalized text.
func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

// key builds the index key for a product/variant pair.
func key(product, variant string) string {
	return Normalize(product) + "|" + Normalize(variant)
}
