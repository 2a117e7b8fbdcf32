package safety

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Sensitivity levels for injection detection.
type Sensitivity int

const (
	// SensitivityLow catches obvious injection attempts.
	SensitivityLow Sensitivity = iota
	// SensitivityMedium catches moderate injection attempts.
	SensitivityMedium
	// SensitivityHigh catches subtle attempts at the cost of more false
	// positives.
	SensitivityHigh
)

// LengthScanner rejects empty and oversized messages.
type LengthScanner struct {
	maxChars int
}

// NewLengthScanner bounds message length in characters.
func NewLengthScanner(maxChars int) *LengthScanner {
	if maxChars <= 0 {
		maxChars = 1000
	}
	return &LengthScanner{maxChars: maxChars}
}

func (s *LengthScanner) Name() string { return "length" }

func (s *LengthScanner) Scan(text string) ScanResult {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	switch {
	case n == 0:
		return ScanResult{Scanner: s.Name(), Passed: false, Details: "message is empty"}
	case n > s.maxChars:
		return ScanResult{
			Scanner: s.Name(),
			Passed:  false,
			Details: fmt.Sprintf("message exceeds %d characters", s.maxChars),
		}
	}
	return ScanResult{Scanner: s.Name(), Passed: true}
}

type injectionPattern struct {
	regex    *regexp.Regexp
	weight   float64
	desc     string
	minLevel Sensitivity
}

var injectionPatterns = []injectionPattern{
	{
		regex:    regexp.MustCompile(`(?i)ignore\s+(all\s+)?previous\s+instructions?`),
		weight:   1.0,
		desc:     "ignore previous instructions",
		minLevel: SensitivityLow,
	},
	{
		regex:    regexp.MustCompile(`(?i)disregard\s+(your\s+|all\s+)?instructions?`),
		weight:   1.0,
		desc:     "disregard instructions",
		minLevel: SensitivityLow,
	},
	{
		regex:    regexp.MustCompile(`(?i)forget\s+(everything|all|your\s+instructions?)`),
		weight:   1.0,
		desc:     "forget everything",
		minLevel: SensitivityLow,
	},
	{
		regex:    regexp.MustCompile(`(?i)you\s+are\s+now\s+a`),
		weight:   0.9,
		desc:     "role hijack",
		minLevel: SensitivityLow,
	},
	{
		regex:    regexp.MustCompile(`(?i)pretend\s+(to\s+be|you\s+are)`),
		weight:   0.8,
		desc:     "pretend to be",
		minLevel: SensitivityMedium,
	},
	{
		regex:    regexp.MustCompile(`(?i)new\s+instructions?:\s*`),
		weight:   0.7,
		desc:     "new instructions",
		minLevel: SensitivityMedium,
	},
	{
		regex:    regexp.MustCompile(`(?i)reveal\s+(your\s+)?(system\s+)?prompt`),
		weight:   0.8,
		desc:     "prompt extraction",
		minLevel: SensitivityMedium,
	},
	{
		regex:    regexp.MustCompile(`(?i)\bDAN\b|jailbreak`),
		weight:   0.6,
		desc:     "jailbreak keyword",
		minLevel: SensitivityHigh,
	},
}

// InjectionScanner detects prompt injection attempts with a weighted
// pattern table.
type InjectionScanner struct {
	sensitivity Sensitivity
	threshold   float64
}

// NewInjectionScanner creates a detector at the given sensitivity.
func NewInjectionScanner(sensitivity Sensitivity) *InjectionScanner {
	return &InjectionScanner{sensitivity: sensitivity, threshold: 0.7}
}

func (s *InjectionScanner) Name() string { return "prompt_injection" }

func (s *InjectionScanner) Scan(text string) ScanResult {
	var confidence float64
	var matched []string
	for _, p := range injectionPatterns {
		if p.minLevel > s.sensitivity {
			continue
		}
		if p.regex.MatchString(text) {
			matched = append(matched, p.desc)
			if p.weight > confidence {
				confidence = p.weight
			}
		}
	}
	if confidence >= s.threshold {
		return ScanResult{
			Scanner:    s.Name(),
			Passed:     false,
			Confidence: confidence,
			Details:    strings.Join(matched, "; "),
		}
	}
	return ScanResult{Scanner: s.Name(), Passed: true, Confidence: confidence}
}

// toxicTerms is intentionally small; the upstream moderation endpoint is
// the real filter, this catches the unambiguous cases before spending a
// generation call.
var toxicTerms = []string{
	"kill yourself",
	"i will kill you",
	"fuck you",
	"bhenchod",
	"madarchod",
}

// ToxicityScanner rejects overtly abusive messages.
type ToxicityScanner struct{}

// NewToxicityScanner creates the static-list toxicity check.
func NewToxicityScanner() *ToxicityScanner { return &ToxicityScanner{} }

func (s *ToxicityScanner) Name() string { return "toxicity" }

func (s *ToxicityScanner) Scan(text string) ScanResult {
	lower := strings.ToLower(text)
	for _, term := range toxicTerms {
		if strings.Contains(lower, term) {
			return ScanResult{Scanner: s.Name(), Passed: false, Details: "abusive content"}
		}
	}
	return ScanResult{Scanner: s.Name(), Passed: true}
}
