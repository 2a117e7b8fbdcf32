package bot

import (
	"fmt"
	"strings"

	"github.com/fikrfree/assistant/internal/retrieval"
)

// maxSourceLinks caps the deduplicated link list appended after a
// generated answer.
const maxSourceLinks = 5

// renderContext flattens retrieved passages into one system message.
func renderContext(nodes []retrieval.Node) string {
	var b strings.Builder
	b.WriteString("Context passages:\n")
	for i, node := range nodes {
		content := strings.TrimSpace(node.Content)
		if content == "" {
			continue
		}
		fmt.Fprintf(&b, "\n[%d] %s", i+1, content)
		if node.Metadata.ProductName != "" {
			fmt.Fprintf(&b, " (product: %s", node.Metadata.ProductName)
			if node.Metadata.Variant != "" {
				fmt.Fprintf(&b, ", variant: %s", node.Metadata.Variant)
			}
			b.WriteString(")")
		}
	}
	return b.String()
}

// retrievalTail builds the fixed postlude for a generated answer: the
// dominant product, deduplicated source links and the disclaimer.
func retrievalTail(nodes []retrieval.Node) string {
	var b strings.Builder

	if product := dominantProduct(nodes); product != "" {
		fmt.Fprintf(&b, "\n\n**Related product:** %s", product)
	}

	var links []string
	seen := make(map[string]struct{})
	for _, node := range nodes {
		link := node.Metadata.DeepLink
		if link == "" {
			continue
		}
		if _, dup := seen[link]; dup {
			continue
		}
		seen[link] = struct{}{}
		label := node.Metadata.ProductName
		if label == "" {
			label = link
		}
		links = append(links, fmt.Sprintf("- [%s](%s)", label, link))
		if len(links) >= maxSourceLinks {
			break
		}
	}
	if len(links) > 0 {
		b.WriteString("\n\n**Sources:**\n")
		b.WriteString(strings.Join(links, "\n"))
	}

	b.WriteString(disclaimerTail)
	return b.String()
}

// dominantProduct returns the product named by the most passages.
func dominantProduct(nodes []retrieval.Node) string {
	counts := make(map[string]int)
	var best string
	var bestCount int
	for _, node := range nodes {
		name := node.Metadata.ProductName
		if name == "" {
			continue
		}
		counts[name]++
		if counts[name] > bestCount {
			best, bestCount = name, counts[name]
		}
	}
	return best
}
