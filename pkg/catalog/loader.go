package catalog

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Load parses every source file (CSV or XLSX) and builds an index.
// Unreadable or empty sources are skipped with a warning; only an empty
// source list is an error. Rows missing product name or variant are dropped.
func Load(sources []string, logger zerolog.Logger) (*Index, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no catalog sources configured")
	}

	var rows []*Row
	for _, src := range sources {
		parsed, err := loadFile(src)
		if err != nil {
			logger.Warn().Err(err).Str("source", src).Msg("skipping catalog source")
			continue
		}
		if len(parsed) == 0 {
			logger.Warn().Str("source", src).Msg("catalog source has no usable rows")
			continue
		}
		logger.Info().Str("source", src).Int("rows", len(parsed)).Msg("loaded catalog source")
		rows = append(rows, parsed...)
	}

	// Sources can repeat a (product, variant) pair; the first row wins.
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if Normalize(row.ProductName) == "" || Normalize(string(row.Variant)) == "" {
			continue
		}
		k := key(row.ProductName, string(row.Variant))
		if _, dup := seen[k]; dup {
			logger.Warn().Str("product", row.ProductName).Str("variant", string(row.Variant)).
				Msg("duplicate catalog row dropped")
			continue
		}
		seen[k] = struct{}{}
	}
	return NewIndex(rows), nil
}

func loadFile(path string) ([]*Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return loadXLSX(path)
	default:
		return loadCSV(path)
	}
}

func loadCSV(path string) ([]*Row, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(raw)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = sniffDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return recordsToRows(records), nil
}

func loadXLSX(path string) ([]*Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s: workbook has no sheets", path)
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	return recordsToRows(records), nil
}

// decodeText tries UTF-8 (with or without BOM) first, then the legacy
// single-byte encodings the catalog exports have historically used.
func decodeText(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	for _, cm := range []*charmap.Charmap{charmap.Windows1252, charmap.ISO8859_1} {
		if decoded, err := cm.NewDecoder().Bytes(raw); err == nil {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("undecodable text encoding")
}

// sniffDelimiter picks the delimiter that appears most often in the header line.
func sniffDelimiter(text string) rune {
	header := text
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		header = text[:i]
	}
	best, bestCount := ',', strings.Count(header, ",")
	for _, cand := range []rune{';', '\t', '|'} {
		if n := strings.Count(header, string(cand)); n > bestCount {
			best, bestCount = cand, n
		}
	}
	return best
}

func recordsToRows(records [][]string) []*Row {
	if len(records) < 2 {
		return nil
	}
	cols := mapColumns(records[0])
	rows := make([]*Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := recordToRow(rec, cols)
		if row == nil {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// mapColumns resolves header names to column positions, tolerating case,
// spacing and underscore differences.
func mapColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(h)
		name = strings.NewReplacer(" ", "", "_", "", "-", "").Replace(name)
		cols[strings.TrimSpace(name)] = i
	}
	return cols
}

func recordToRow(rec []string, cols map[string]int) *Row {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	name := field("productname")
	variant := field("variant")
	if name == "" || variant == "" {
		return nil
	}

	row := &Row{
		ProductOwner:      field("productowner"),
		ProductName:       name,
		ProductID:         field("productid"),
		Variant:           Variant(Normalize(variant)),
		Description:       field("productdescription"),
		DeepLink:          field("deeplink"),
		PrepaidDaily:      parsePrice(field("prepaiddaily")),
		PostpaidMonthly:   parsePrice(field("postpaidmonthly")),
		MonthlyPrice:      parsePrice(field("monthlyprice")),
		YearlyPrice:       parsePrice(field("yearlyprice")),
		DocumentsRequired: field("documentsrequired"),
	}
	for i := 1; i <= 5; i++ {
		benefit := field(fmt.Sprintf("benefit%d", i))
		desc := field(fmt.Sprintf("description%d", i))
		if benefit == "" && desc == "" {
			continue
		}
		row.Benefits = append(row.Benefits, Benefit{Name: benefit, Description: desc})
	}
	return row
}

var pricePattern = regexp.MustCompile(`[0-9][0-9,]*(?:\.[0-9]+)?`)

// parsePrice extracts a numeric value from a price cell, tolerating
// thousands separators and currency markers. Returns nil when no number
// is present.
func parsePrice(s string) *float64 {
	match := pricePattern.FindString(s)
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return nil
	}
	return &v
}
