// Package profile summarizes a column's sample values into a coarse type
// label and a digit-masked pattern string. Only the label and the masked
// pattern ever leave the pipeline; raw cell values are never forwarded to the
// AI classification or mapping calls.
package profile

import (
	"regexp"
	"strings"
)

// MaxSamples is the number of sample values considered per column.
const MaxSamples = 20

// ValueType is the coarse type label of a column.
type ValueType string

const (
	TypeEmpty  ValueType = "empty"
	TypeNumber ValueType = "number"
	TypeDate   ValueType = "date"
	TypePhone  ValueType = "phone"
	TypeText   ValueType = "text"
)

// Profile describes a column without exposing its raw values.
type Profile struct {
	Type    ValueType `json:"type"`
	Pattern string    `json:"pattern"`
}

var (
	// Currency or number: optional symbol, thousands separators, optional
	// decimals, accounting parentheses, trailing percent.
	numberRe = regexp.MustCompile(`^[₹$€£]?\s*\(?-?\d[\d,]*(\.\d+)?\)?%?$`)

	// Digits joined by date separators (12/04/2024, 2024-04-12, 12.4.24).
	dateRe = regexp.MustCompile(`^\d{1,4}[-/.]\d{1,2}[-/.]\d{1,4}$`)

	// 10-digit subscriber numbers with optional country code and separators.
	phoneRe = regexp.MustCompile(`^(\+?\d{1,3}[-\s]?)?\d{5}[-\s]?\d{5}$`)

	digitRe = regexp.MustCompile(`\d`)
)

// Column profiles up to MaxSamples values from one column.
//
// Inference order: empty, then number (80% of non-empty samples number-like),
// then date-within-number (60% of the numeric samples date-like), then phone
// (70%), then date over all samples (60%), else text.
func Column(values []string) Profile {
	if len(values) > MaxSamples {
		values = values[:MaxSamples]
	}

	var nonEmpty []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			nonEmpty = append(nonEmpty, v)
		}
	}
	if len(nonEmpty) == 0 {
		return Profile{Type: TypeEmpty}
	}

	p := Profile{Pattern: maskPattern(nonEmpty)}

	numeric, dateish, phoneish := 0, 0, 0
	var dateWithinNumeric int
	for _, v := range nonEmpty {
		isNum := numberRe.MatchString(v)
		isDate := dateRe.MatchString(v)
		if isNum || isDate {
			numeric++
			if isDate {
				dateWithinNumeric++
			}
		}
		if isDate {
			dateish++
		}
		if phoneRe.MatchString(v) {
			phoneish++
		}
	}

	n := len(nonEmpty)
	switch {
	case ratio(numeric, n) >= 0.8:
		if ratio(dateWithinNumeric, numeric) >= 0.6 {
			p.Type = TypeDate
		} else {
			p.Type = TypeNumber
		}
	case ratio(phoneish, n) >= 0.7:
		p.Type = TypePhone
	case ratio(dateish, n) >= 0.6:
		p.Type = TypeDate
	default:
		p.Type = TypeText
	}
	return p
}

// maskPattern joins the first three non-empty samples with every digit
// replaced by '#', truncated to 20 characters.
func maskPattern(samples []string) string {
	if len(samples) > 3 {
		samples = samples[:3]
	}
	masked := make([]string, len(samples))
	for i, s := range samples {
		masked[i] = digitRe.ReplaceAllString(s, "#")
	}
	joined := strings.Join(masked, ", ")
	if len(joined) > 20 {
		joined = joined[:20]
	}
	return joined
}

func ratio(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
