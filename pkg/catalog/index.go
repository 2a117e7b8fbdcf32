package catalog

import (
	"math"
	"sort"
)

// matchThreshold is the minimum token-overlap ratio for a fuzzy product match.
const matchThreshold = 0.30

// overBudgetPenalty nudges rows priced above budget behind equally-distant
// rows at or under budget.
const overBudgetPenalty = 0.5

// Index is an immutable lookup over catalog rows keyed by normalized
// (product, variant). Built once per load; shared read-only by all requests.
type Index struct {
	rows     map[string]*Row
	products []string // distinct normalized product names, sorted
	byName   map[string][]*Row
	all      []*Row
}

// NewIndex builds an index from rows. Rows missing a product name or
// variant are dropped, and later duplicates of a (product, variant) key
// are dropped so Lookup and Rows always agree on the same row.
func NewIndex(rows []*Row) *Index {
	idx := &Index{
		rows:   make(map[string]*Row),
		byName: make(map[string][]*Row),
	}
	for _, row := range rows {
		if Normalize(row.ProductName) == "" || Normalize(string(row.Variant)) == "" {
			continue
		}
		k := key(row.ProductName, string(row.Variant))
		if _, exists := idx.rows[k]; exists {
			continue
		}
		idx.rows[k] = row
		name := Normalize(row.ProductName)
		idx.byName[name] = append(idx.byName[name], row)
		idx.all = append(idx.all, row)
	}
	for name := range idx.byName {
		idx.products = append(idx.products, name)
	}
	sort.Strings(idx.products)
	return idx
}

// Len reports the number of indexed rows.
func (idx *Index) Len() int { return len(idx.all) }

// Rows returns all indexed rows. Callers must not mutate them.
func (idx *Index) Rows() []*Row { return idx.all }

// Products returns the sorted distinct normalized product names.
func (idx *Index) Products() []string { return idx.products }

// Lookup returns the row for a normalized (product, variant) pair.
func (idx *Index) Lookup(product, variant string) (*Row, bool) {
	row, ok := idx.rows[key(product, variant)]
	return row, ok
}

// BestProductMatch finds the catalog product whose name tokens best overlap
// the free text. Returns ok=false when no product reaches the threshold.
// Ties go to the first product in sorted order.
func (idx *Index) BestProductMatch(freeText string) (string, bool) {
	queryTokens := tokenSet(freeText)
	if len(queryTokens) == 0 {
		return "", false
	}

	var best string
	var bestScore float64
	for _, name := range idx.products {
		nameTokens := tokenSet(name)
		if len(nameTokens) == 0 {
			continue
		}
		var hits int
		for tok := range nameTokens {
			if _, ok := queryTokens[tok]; ok {
				hits++
			}
		}
		score := float64(hits) / float64(len(nameTokens))
		if score > bestScore {
			best, bestScore = name, score
		}
	}
	if bestScore < matchThreshold {
		return "", false
	}
	return best, true
}

// ExtractVariant scans for variant keywords as whole words. The first
// keyword in declaration order wins, regardless of position in the text.
func ExtractVariant(freeText string) (Variant, bool) {
	tokens := tokenSet(freeText)
	for _, v := range variantKeywords {
		if _, ok := tokens[string(v)]; ok {
			return v, true
		}
	}
	return "", false
}

// MonthlyPrice derives a monthly cost from whichever pricing field is
// populated: monthly price, then postpaid monthly, then prepaid daily
// scaled to a month.
func MonthlyPrice(row *Row) (float64, bool) {
	switch {
	case row.MonthlyPrice != nil:
		return *row.MonthlyPrice, true
	case row.PostpaidMonthly != nil:
		return *row.PostpaidMonthly, true
	case row.PrepaidDaily != nil:
		return *row.PrepaidDaily * 30, true
	}
	return 0, false
}

type pricedRow struct {
	row   *Row
	price float64
}

// Candidates collects every row with a derivable monthly price. With a
// budget it ranks by distance to budget, penalizing rows priced above it;
// without one it ranks ascending by price. At most maxItems are returned.
func (idx *Index) Candidates(budget *float64, maxItems int) []*Row {
	priced := make([]pricedRow, 0, len(idx.all))
	for _, row := range idx.all {
		if price, ok := MonthlyPrice(row); ok {
			priced = append(priced, pricedRow{row, price})
		}
	}

	if budget != nil {
		b := *budget
		sort.SliceStable(priced, func(i, j int) bool {
			return budgetScore(priced[i].price, b) < budgetScore(priced[j].price, b)
		})
	} else {
		sort.SliceStable(priced, func(i, j int) bool {
			return priced[i].price < priced[j].price
		})
	}

	if maxItems > 0 && len(priced) > maxItems {
		priced = priced[:maxItems]
	}
	out := make([]*Row, len(priced))
	for i, p := range priced {
		out[i] = p.row
	}
	return out
}

func budgetScore(price, budget float64) float64 {
	score := math.Abs(price - budget)
	if price > budget {
		score += overBudgetPenalty
	}
	return score
}

// SuggestAlternative proposes a different offering for a known pair:
// the cheapest higher-priced sibling variant, else the nearest
// lower-priced sibling, else the closest-priced row from another product.
// It never returns the original pair.
func (idx *Index) SuggestAlternative(product, variant string) (*Row, bool) {
	base, ok := idx.Lookup(product, variant)
	if !ok {
		return nil, false
	}
	basePrice, hasPrice := MonthlyPrice(base)

	baseKey := key(base.ProductName, string(base.Variant))
	siblings := idx.byName[Normalize(base.ProductName)]
	var higher, lower *Row
	var higherPrice, lowerPrice float64
	for _, sib := range siblings {
		if key(sib.ProductName, string(sib.Variant)) == baseKey {
			continue
		}
		price, ok := MonthlyPrice(sib)
		if !ok {
			continue
		}
		if !hasPrice || price > basePrice {
			if higher == nil || price < higherPrice {
				higher, higherPrice = sib, price
			}
		} else {
			if lower == nil || price > lowerPrice {
				lower, lowerPrice = sib, price
			}
		}
	}
	if higher != nil {
		return higher, true
	}
	if lower != nil {
		return lower, true
	}

	// No priced sibling: fall back to the closest-priced row from a
	// different product.
	if !hasPrice {
		return nil, false
	}
	var best *Row
	var bestDist float64
	baseName := Normalize(base.ProductName)
	for _, row := range idx.all {
		if Normalize(row.ProductName) == baseName {
			continue
		}
		price, ok := MonthlyPrice(row)
		if !ok {
			continue
		}
		dist := math.Abs(price - basePrice)
		if best == nil || dist < bestDist {
			best, bestDist = row, dist
		}
	}
	return best, best != nil
}
