package retrieval

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/fikrfree/assistant/pkg/catalog"
)

// BuildDocuments renders every catalog row into one retrievable passage.
// IDs are derived from the (product, variant) key so re-indexing after a
// catalog reload updates in place instead of duplicating.
func BuildDocuments(idx *catalog.Index, source string) []Document {
	rows := idx.Rows()
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, Document{
			ID:      documentID(row),
			Content: renderRow(row),
			Metadata: NodeMetadata{
				ProductName: row.ProductName,
				Variant:     string(row.Variant),
				DeepLink:    row.DeepLink,
				Source:      source,
			},
		})
	}
	return docs
}

func documentID(row *catalog.Row) string {
	key := catalog.Normalize(row.ProductName) + "|" + catalog.Normalize(string(row.Variant))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

func renderRow(row *catalog.Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s variant)", row.ProductName, row.Variant)
	if row.ProductOwner != "" {
		fmt.Fprintf(&b, " by %s", row.ProductOwner)
	}
	b.WriteString(".")
	if row.Description != "" {
		b.WriteString(" ")
		b.WriteString(row.Description)
	}
	if price, ok := catalog.MonthlyPrice(row); ok {
		fmt.Fprintf(&b, " Monthly price: Rs. %.0f.", price)
	}
	if row.YearlyPrice != nil {
		fmt.Fprintf(&b, " Yearly price: Rs. %.0f.", *row.YearlyPrice)
	}
	for _, benefit := range row.Benefits {
		b.WriteString(" Benefit: ")
		b.WriteString(benefit.Name)
		if benefit.Description != "" {
			b.WriteString(" - ")
			b.WriteString(benefit.Description)
		}
		b.WriteString(".")
	}
	if row.DocumentsRequired != "" {
		fmt.Fprintf(&b, " Documents required: %s.", row.DocumentsRequired)
	}
	return b.String()
}
