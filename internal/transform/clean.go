package transform

// clean.go normalizes the messy cell values real exports contain: currency
// symbols and thousands separators in numbers, half a dozen date formats,
// Excel formula prefixes, and serial date numbers. Every normalization that
// changes a value is counted so the job can report how much it cleaned.

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var numberShapeRe = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// cleanCell strips common export artifacts: surrounding whitespace, Excel
// formula prefixes (="value"), and stray quotes.
func cleanCell(s string) (string, bool) {
	orig := s
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else {
		s = strings.TrimPrefix(s, "=")
	}
	s = strings.Trim(s, `"'`)
	s = strings.TrimSpace(s)
	return s, s != orig
}

// parseNumber converts a currency/number-like string to a float64.
// Handles ₹/$/€/£ symbols, thousands separators, accounting-format
// parentheses for negatives, and trailing percent signs.
func parseNumber(s string) (value float64, ok bool, cleaned bool) {
	s, changed := cleanCell(s)
	if s == "" {
		return 0, false, false
	}

	orig := s
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = "-" + strings.TrimSpace(s[1:len(s)-1])
	}
	for _, sym := range []string{"₹", "$", "€", "£", ",", "%"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(s)
	if s != orig {
		changed = true
	}

	if !numberShapeRe.MatchString(s) {
		return 0, false, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, false
	}
	return v, true, changed
}

// Date layouts tried in order. Exports from Indian retail tools are
// day-first, so those come before month-first.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006", "2/1/2006",
	"02-01-2006", "2-1-2006",
	"02.01.2006",
	"02/01/06", "2/1/06",
	"2 Jan 2006", "02-Jan-2006", "2-Jan-06",
	"Jan 2, 2006",
	"20060102",
}

// parseDate normalizes a date string to ISO form (2006-01-02). Accepts the
// layouts above plus Excel serial numbers.
func parseDate(s string) (iso string, ok bool, cleaned bool) {
	s, _ = cleanCell(s)
	if s == "" {
		return "", false, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			iso = t.Format("2006-01-02")
			return iso, true, iso != s
		}
	}

	// Excel serial dates: days since 1899-12-30. The range covers 1954
	// through 2064, which is plenty for transaction exports.
	if n, err := strconv.Atoi(s); err == nil && n > 20000 && n < 60000 {
		t := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
		return t.Format("2006-01-02"), true, true
	}

	return "", false, false
}

// parseText cleans a free-text value.
func parseText(s string) (string, bool) {
	return cleanCell(s)
}
