package bot

import (
	"fmt"
	"strings"

	"github.com/fikrfree/assistant/pkg/catalog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// maxBenefitBullets caps the benefit list in a formatted answer.
const maxBenefitBullets = 6

// formatRow renders one catalog row as a structured exact-match answer.
func formatRow(row *catalog.Row) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## %s — %s\n\n", row.ProductName, titleCaser.String(string(row.Variant)))
	if row.ProductOwner != "" {
		fmt.Fprintf(&b, "**Provider:** %s\n\n", row.ProductOwner)
	}
	if pricing := pricingLine(row); pricing != "" {
		fmt.Fprintf(&b, "**Pricing:** %s\n\n", pricing)
	}
	if row.Description != "" {
		b.WriteString(row.Description)
		b.WriteString("\n\n")
	}
	if len(row.Benefits) > 0 {
		b.WriteString("**Benefits:**\n")
		for i, benefit := range row.Benefits {
			if i >= maxBenefitBullets {
				break
			}
			b.WriteString("- ")
			b.WriteString(benefit.Name)
			if benefit.Description != "" {
				b.WriteString(": ")
				b.WriteString(benefit.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if row.DocumentsRequired != "" {
		fmt.Fprintf(&b, "**Documents required:** %s\n\n", row.DocumentsRequired)
	}
	if row.DeepLink != "" {
		fmt.Fprintf(&b, "[Learn more](%s)\n", row.DeepLink)
	}
	b.WriteString(disclaimerTail)
	return b.String()
}

// pricingLine consolidates whichever price fields are populated.
func pricingLine(row *catalog.Row) string {
	var parts []string
	if row.MonthlyPrice != nil {
		parts = append(parts, fmt.Sprintf("Rs. %.0f/month", *row.MonthlyPrice))
	}
	if row.PostpaidMonthly != nil {
		parts = append(parts, fmt.Sprintf("Rs. %.0f/month postpaid", *row.PostpaidMonthly))
	}
	if row.PrepaidDaily != nil {
		parts = append(parts, fmt.Sprintf("Rs. %.0f/day prepaid", *row.PrepaidDaily))
	}
	if row.YearlyPrice != nil {
		parts = append(parts, fmt.Sprintf("Rs. %.0f/year", *row.YearlyPrice))
	}
	return strings.Join(parts, " · ")
}

// formatShortlist renders ranked rows as a comparison table with links.
func formatShortlist(rows []*catalog.Row, budget *float64) string {
	var b strings.Builder

	if budget != nil {
		fmt.Fprintf(&b, "Here are the plans closest to your budget of Rs. %.0f/month:\n\n", *budget)
	} else {
		b.WriteString("Here are our plans, most affordable first:\n\n")
	}

	b.WriteString("| Plan | Variant | Monthly Price | Highlight |\n")
	b.WriteString("|------|---------|---------------|----------|\n")
	for _, row := range rows {
		price := "—"
		if p, ok := catalog.MonthlyPrice(row); ok {
			price = fmt.Sprintf("Rs. %.0f", p)
		}
		highlight := ""
		if len(row.Benefits) > 0 {
			highlight = row.Benefits[0].Name
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			row.ProductName, titleCaser.String(string(row.Variant)), price, highlight)
	}

	var links []string
	seen := make(map[string]struct{})
	for _, row := range rows {
		if row.DeepLink == "" {
			continue
		}
		if _, dup := seen[row.DeepLink]; dup {
			continue
		}
		seen[row.DeepLink] = struct{}{}
		links = append(links, fmt.Sprintf("- [%s (%s)](%s)",
			row.ProductName, titleCaser.String(string(row.Variant)), row.DeepLink))
	}
	if len(links) > 0 {
		b.WriteString("\n**Plan links:**\n")
		b.WriteString(strings.Join(links, "\n"))
		b.WriteString("\n")
	}

	b.WriteString(disclaimerTail)
	return b.String()
}

// formatAlternative frames a suggested row as a replacement for the
// original pair.
func formatAlternative(original string, row *catalog.Row) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Instead of %s, you might consider:\n\n", original)
	b.WriteString(formatRow(row))
	return b.String()
}
