package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fptr(v float64) *float64 { return &v }

func testRows() []*Row {
	return []*Row{
		{
			ProductOwner: "Acme Insurance",
			ProductName:  "BIMA Sehat",
			ProductID:    "BS-01",
			Variant:      VariantBronze,
			MonthlyPrice: fptr(120),
			Description:  "Entry-level health cover.",
			Benefits:     []Benefit{{Name: "Hospitalization", Description: "Up to 50,000"}},
		},
		{
			ProductOwner: "Acme Insurance",
			ProductName:  "BIMA Sehat",
			ProductID:    "BS-02",
			Variant:      VariantSilver,
			MonthlyPrice: fptr(250),
		},
		{
			ProductOwner: "Acme Insurance",
			ProductName:  "BIMA Sehat",
			ProductID:    "BS-03",
			Variant:      VariantGold,
			MonthlyPrice: fptr(400),
		},
		{
			ProductOwner:    "Care Health",
			ProductName:     "Care Shield",
			ProductID:       "CS-01",
			Variant:         VariantDefault,
			PostpaidMonthly: fptr(160),
		},
		{
			ProductOwner: "Care Health",
			ProductName:  "Daily Guard",
			ProductID:    "DG-01",
			Variant:      VariantDefault,
			PrepaidDaily: fptr(5),
		},
	}
}

func TestLookup_Roundtrip(t *testing.T) {
	idx := NewIndex(testRows())
	for _, row := range idx.Rows() {
		got, ok := idx.Lookup(row.ProductName, string(row.Variant))
		require.True(t, ok, "lookup missed %s/%s", row.ProductName, row.Variant)
		assert.Equal(t, row, got)
	}
}

func TestLookup_NormalizesInput(t *testing.T) {
	idx := NewIndex(testRows())
	got, ok := idx.Lookup("  BIMA, Sehat! ", "BRONZE")
	require.True(t, ok)
	assert.Equal(t, "BS-01", got.ProductID)
}

func TestNewIndex_DropsIncompleteRows(t *testing.T) {
	rows := append(testRows(),
		&Row{ProductName: "", Variant: VariantGold},
		&Row{ProductName: "Orphan", Variant: ""},
	)
	idx := NewIndex(rows)
	assert.Equal(t, 5, idx.Len())
}

func TestNewIndex_DuplicateKeyKeepsFirstRow(t *testing.T) {
	dup := &Row{
		ProductOwner: "Other Underwriter",
		ProductName:  "BIMA Sehat",
		Variant:      VariantBronze,
		MonthlyPrice: fptr(100),
	}
	idx := NewIndex(append(testRows(), dup))

	assert.Equal(t, 5, idx.Len(), "duplicate pair must not add a row")

	got, ok := idx.Lookup("BIMA Sehat", "bronze")
	require.True(t, ok)
	assert.Equal(t, "BS-01", got.ProductID, "first loaded row wins")

	// Lookup and Rows must resolve the same object for every key.
	for _, row := range idx.Rows() {
		byKey, ok := idx.Lookup(row.ProductName, string(row.Variant))
		require.True(t, ok)
		assert.Same(t, row, byKey)
	}
}

func TestSuggestAlternative_DuplicateKeyNeverReturnsOriginal(t *testing.T) {
	dup := &Row{
		ProductName:  "BIMA Sehat",
		Variant:      VariantBronze,
		MonthlyPrice: fptr(100),
	}
	idx := NewIndex(append(testRows(), dup))

	alt, ok := idx.SuggestAlternative("BIMA Sehat", "bronze")
	require.True(t, ok)
	same := Normalize(alt.ProductName) == "bima sehat" && alt.Variant == VariantBronze
	assert.False(t, same, "alternative returned the original pair (price %v)", alt.MonthlyPrice)
}

func TestBestProductMatch(t *testing.T) {
	idx := NewIndex(testRows())

	name, ok := idx.BestProductMatch("tell me about the BIMA Sehat bronze plan")
	require.True(t, ok)
	assert.Equal(t, "bima sehat", name)

	// Partial overlap still above threshold.
	name, ok = idx.BestProductMatch("BIMA Bronze plan")
	require.True(t, ok)
	assert.Equal(t, "bima sehat", name)

	_, ok = idx.BestProductMatch("completely unrelated query about weather")
	assert.False(t, ok)

	_, ok = idx.BestProductMatch("")
	assert.False(t, ok)
}

func TestExtractVariant(t *testing.T) {
	v, ok := ExtractVariant("I want the Silver plan")
	require.True(t, ok)
	assert.Equal(t, VariantSilver, v)

	// First declared keyword wins regardless of position in the message.
	v, ok = ExtractVariant("silver or bronze?")
	require.True(t, ok)
	assert.Equal(t, VariantBronze, v)

	// Whole-word only: "goldfinch" must not match gold.
	_, ok = ExtractVariant("a goldfinch flew by")
	assert.False(t, ok)

	_, ok = ExtractVariant("no tier named here")
	assert.False(t, ok)
}

func TestMonthlyPrice_Coalesce(t *testing.T) {
	row := &Row{MonthlyPrice: fptr(100), PostpaidMonthly: fptr(999), PrepaidDaily: fptr(999)}
	price, ok := MonthlyPrice(row)
	require.True(t, ok)
	assert.Equal(t, 100.0, price)

	row = &Row{PostpaidMonthly: fptr(160)}
	price, ok = MonthlyPrice(row)
	require.True(t, ok)
	assert.Equal(t, 160.0, price)

	row = &Row{PrepaidDaily: fptr(5)}
	price, ok = MonthlyPrice(row)
	require.True(t, ok)
	assert.Equal(t, 150.0, price)

	_, ok = MonthlyPrice(&Row{})
	assert.False(t, ok)
}

func TestCandidates_BudgetPenalty(t *testing.T) {
	// Both rows are 20 away from the budget; the at-or-under row wins.
	idx := NewIndex([]*Row{
		{ProductName: "Over", Variant: VariantDefault, MonthlyPrice: fptr(160)},
		{ProductName: "Under", Variant: VariantDefault, MonthlyPrice: fptr(120)},
	})
	got := idx.Candidates(fptr(140), 10)
	require.Len(t, got, 2)
	assert.Equal(t, "Under", got[0].ProductName)
	assert.Equal(t, "Over", got[1].ProductName)
}

func TestCandidates_NoBudgetOrdersByPrice(t *testing.T) {
	idx := NewIndex(testRows())
	got := idx.Candidates(nil, 3)
	require.Len(t, got, 3)
	prev := -1.0
	for _, row := range got {
		price, ok := MonthlyPrice(row)
		require.True(t, ok)
		assert.GreaterOrEqual(t, price, prev)
		prev = price
	}
}

func TestCandidates_SkipsUnpricedRows(t *testing.T) {
	idx := NewIndex(append(testRows(),
		&Row{ProductName: "Free Info", Variant: VariantDefault},
	))
	for _, row := range idx.Candidates(nil, 100) {
		_, ok := MonthlyPrice(row)
		assert.True(t, ok)
	}
}

func TestSuggestAlternative(t *testing.T) {
	idx := NewIndex(testRows())

	// Cheapest higher-priced sibling variant first.
	alt, ok := idx.SuggestAlternative("BIMA Sehat", "bronze")
	require.True(t, ok)
	assert.Equal(t, VariantSilver, alt.Variant)

	// Top variant has no higher sibling: nearest lower wins.
	alt, ok = idx.SuggestAlternative("BIMA Sehat", "gold")
	require.True(t, ok)
	assert.Equal(t, VariantSilver, alt.Variant)

	// Single-variant product falls back to the closest-priced row from a
	// different product: Care Shield is 160, Daily Guard derives to 150,
	// BIMA bronze is 120, so Daily Guard is nearest.
	alt, ok = idx.SuggestAlternative("Care Shield", "default")
	require.True(t, ok)
	assert.Equal(t, "Daily Guard", alt.ProductName)

	_, ok = idx.SuggestAlternative("No Such Plan", "bronze")
	assert.False(t, ok)
}

func TestSuggestAlternative_NeverReturnsOriginal(t *testing.T) {
	idx := NewIndex(testRows())
	for _, row := range idx.Rows() {
		alt, ok := idx.SuggestAlternative(row.ProductName, string(row.Variant))
		if !ok {
			continue
		}
		same := Normalize(alt.ProductName) == Normalize(row.ProductName) &&
			alt.Variant == row.Variant
		assert.False(t, same, "alternative for %s/%s returned itself", row.ProductName, row.Variant)
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "bima sehat (plus)/basic+", Normalize("  BIMA,  Sehat! (Plus)/Basic+ "))
	assert.Equal(t, "", Normalize("!!!"))
}
