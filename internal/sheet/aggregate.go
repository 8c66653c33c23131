package sheet

import (
	"regexp"
	"strings"
)

// Aggregate sheets (monthly summaries, dashboards, KPI roll-ups) carry totals
// derived from the transactional sheets. Importing them would double-count,
// so they are excluded before classification ever sees them.

var (
	summaryNameRe = regexp.MustCompile(`(?i)summary|report|analytics|dashboard|overview|analysis|trend`)

	// Register-style names override a summary-looking name: a "Sales Report
	// Register" is still transactional.
	transactionalNameRe = regexp.MustCompile(`(?i)register|ledger|voucher|invoice|item|inventory|stock|master`)

	transactionalHeaderRe = regexp.MustCompile(`(?i)date|invoice|voucher|qty|quantity|rate|price|sku|hsn|item|name|party|amount`)
)

// summaryVocabulary are first-column values typical of KPI roll-up rows.
var summaryVocabulary = []string{
	"total", "grand total", "net", "average", "growth",
	"percentage", "summary", "opening", "closing", "profit",
}

// IsAggregate reports whether a sheet is a non-transactional aggregate or
// report sheet that should be skipped.
//
// A sheet is aggregate when its name matches summary keywords without any
// register/ledger marker, or when its headers lack every transactional column
// marker while its first-column values carry summary vocabulary.
func IsAggregate(s Sheet) bool {
	if summaryNameRe.MatchString(s.Name) && !transactionalNameRe.MatchString(s.Name) {
		return true
	}

	for _, h := range s.Headers {
		if transactionalHeaderRe.MatchString(h) {
			return false
		}
	}
	return hasSummaryVocabulary(s)
}

func hasSummaryVocabulary(s Sheet) bool {
	if len(s.Headers) == 0 {
		return false
	}
	first := s.Headers[0]
	for _, v := range s.Column(first, 10) {
		lower := strings.ToLower(strings.TrimSpace(v))
		for _, word := range summaryVocabulary {
			if strings.Contains(lower, word) {
				return true
			}
		}
	}
	return false
}
