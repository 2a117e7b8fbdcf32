package bot

import (
	"regexp"
	"strconv"
	"strings"
)

// alternativeTrigger matches the structured command the UI's "suggest
// alternative" action emits, e.g. "suggest alternative for BIMA Sehat Gold".
var alternativeTrigger = regexp.MustCompile(
	`(?i)^suggest\s+(?:an?\s+)?alternative\s+(?:for|to)\s+(.+?)\s+` +
		`(bronze|silver|gold|platinum|diamond|crown|default|ace)\s*$`)

// parseAlternativeTrigger extracts the (product, variant) pair from an
// alternative-suggestion command.
func parseAlternativeTrigger(text string) (product, variant string, ok bool) {
	m := alternativeTrigger.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.ToLower(m[2]), true
}

// compareTrigger matches the compare UI action, e.g.
// "compare: BIMA Sehat, Care Shield".
var compareTrigger = regexp.MustCompile(`(?i)^compare\s*:\s*(.+)$`)

// parseCompareTrigger extracts the explicitly named products.
func parseCompareTrigger(text string) ([]string, bool) {
	m := compareTrigger.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, false
	}
	var names []string
	for _, part := range regexp.MustCompile(`(?i)\s*(?:,|\bvs\.?\b|\band\b)\s*`).Split(m[1], -1) {
		if part = strings.TrimSpace(part); part != "" {
			names = append(names, part)
		}
	}
	return names, len(names) > 0
}

var budgetPattern = regexp.MustCompile(
	`(?i)(?:rs\.?|pkr|rupees?)?\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// dailyRateCutoff: amounts under this are read as a daily rate and
// scaled to a monthly figure.
const dailyRateCutoff = 200

// parseBudget finds a budget amount in free text. Small values are
// treated as daily rates and scaled to monthly.
func parseBudget(text string) (float64, bool) {
	m := budgetPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if v < dailyRateCutoff {
		v *= 30
	}
	return v, true
}

// emergencyKeywords trigger the fixed safety response regardless of any
// catalog terms also present in the message.
var emergencyKeywords = []string{
	"emergency",
	"severe pain",
	"chest pain",
	"heart attack",
	"stroke",
	"unconscious",
	"not breathing",
	"cannot breathe",
	"can't breathe",
	"heavy bleeding",
	"bleeding heavily",
	"overdose",
	"suicide",
}

func isEmergency(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range emergencyKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// shortlistKeywords route budget and recommendation questions to the
// shortlist strategy.
var shortlistKeywords = []string{
	"recommend",
	"suggest",
	"best plan",
	"which plan",
	"compare",
	"budget",
	"cheapest",
	"affordable",
	"shortlist",
	"options",
	"under rs",
	"sasta",
	"kam paise",
}

func wantsShortlist(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range shortlistKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
