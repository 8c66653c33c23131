package sheet

import (
	"fmt"
	"strings"
)

// MaxHeaderSearchRows is how deep into a sheet the header scan looks.
const MaxHeaderSearchRows = 40

// longCellCutoff is the length beyond which a cell reads like prose, not a
// column name.
const longCellCutoff = 45

// headerKeywords are domain words that make a row look like a header.
var headerKeywords = []string{
	"item", "product", "sku", "hsn", "stock", "voucher", "invoice",
	"date", "qty", "amount", "price", "customer", "supplier", "gst",
}

// ChooseHeaderRow returns the index of the most header-like row within the
// first MaxHeaderSearchRows rows, or -1 if the grid has no non-empty cell.
//
// Each candidate scores 2 points per non-empty cell, plus 1 per keyword token
// hit, minus 2 per cell longer than longCellCutoff. If no row scores
// positively, the first row with any non-empty cell wins.
func ChooseHeaderRow(grid [][]string) int {
	limit := len(grid)
	if limit > MaxHeaderSearchRows {
		limit = MaxHeaderSearchRows
	}

	best, bestScore := -1, 0
	firstNonEmpty := -1
	for i := 0; i < limit; i++ {
		score := scoreHeaderRow(grid[i])
		if firstNonEmpty < 0 && !isEmptyRow(grid[i]) {
			firstNonEmpty = i
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return best
	}
	return firstNonEmpty
}

func scoreHeaderRow(row []string) int {
	score := 0
	for _, cell := range row {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			continue
		}
		score += 2
		if len(cell) > longCellCutoff {
			score -= 2
		}
		lower := strings.ToLower(cell)
		for _, kw := range headerKeywords {
			if strings.Contains(lower, kw) {
				score++
				break
			}
		}
	}
	return score
}

// NormalizeHeader lowercases a header name and strips everything but letters
// and digits, so "Invoice No." and "invoice_no" compare equal.
func NormalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DedupeHeaders trims header names and guarantees uniqueness: empty names
// become column_N (1-based position) and repeats get a numeric suffix
// (name_2, name_3, ...). The result has the same length as the input.
func DedupeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	counts := make(map[string]int, len(raw))
	taken := make(map[string]bool, len(raw))

	for i, h := range raw {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for taken[name] {
			counts[base]++
			name = fmt.Sprintf("%s_%d", base, counts[base]+1)
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
