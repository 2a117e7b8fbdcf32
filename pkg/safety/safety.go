// Package safety gates inbound messages before any routing occurs.
// Each scanner returns an independent pass/fail verdict; one failure
// rejects the message with a fixed decline response.
package safety

// ScanResult is a single scanner's verdict.
type ScanResult struct {
	Scanner    string  `json:"scanner"`
	Passed     bool    `json:"passed"`
	Confidence float64 `json:"confidence,omitempty"`
	Details    string  `json:"details,omitempty"`
}

// Scanner inspects a message and passes or fails it.
type Scanner interface {
	Name() string
	Scan(text string) ScanResult
}

// Report aggregates per-scanner verdicts for one message.
type Report struct {
	Passed  bool         `json:"passed"`
	Results []ScanResult `json:"results"`
}

// Gate runs every configured scanner against a message.
type Gate struct {
	scanners []Scanner
}

// NewGate builds a gate over the given scanners.
func NewGate(scanners ...Scanner) *Gate {
	return &Gate{scanners: scanners}
}

// DefaultGate is the production scanner set.
func DefaultGate(maxInputChars int) *Gate {
	return NewGate(
		NewLengthScanner(maxInputChars),
		NewInjectionScanner(SensitivityMedium),
		NewToxicityScanner(),
	)
}

// Scan runs all scanners. Every scanner runs even after a failure so the
// report names each failing check. A nil gate passes everything.
func (g *Gate) Scan(text string) Report {
	report := Report{Passed: true}
	if g == nil {
		return report
	}
	for _, s := range g.scanners {
		result := s.Scan(text)
		if !result.Passed {
			report.Passed = false
		}
		report.Results = append(report.Results, result)
	}
	return report
}
