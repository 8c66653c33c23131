// Package classify decides which import destination a sheet belongs to.
//
// Classification is a state-free, two-tier decision. Tier 1 is a
// deterministic keyword score over normalized headers and the sheet name.
// Tier 2, when an AI client is configured, asks the model using only column
// names and profiled value types; raw cell values never leave the process.
// The AI answer is parsed strictly and any failure falls back to tier 1.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/rkotak/bookimport/internal/ai"
	"github.com/rkotak/bookimport/internal/entity"
	"github.com/rkotak/bookimport/internal/profile"
	"github.com/rkotak/bookimport/internal/sheet"
)

// minScore is the tier-1 cutoff: below it a sheet is unclassifiable by
// heuristics alone.
const minScore = 2

// headerKeywords are matched as substrings of normalized header names.
var headerKeywords = map[entity.ImportType][]string{
	entity.Inventory: {"sku", "hsn", "stock", "mrp", "sellingprice", "itemcode", "itemname", "barcode", "openingstock"},
	entity.Customers: {"customer", "receivable", "mobile", "phone", "billingaddress", "creditlimit"},
	entity.Suppliers: {"vendor", "supplier", "purchaseprice", "payable"},
	entity.Sales:     {"invoiceno", "qty", "amount", "totalamount", "invoicedate", "voucherno"},
	entity.Expenses:  {"expense", "debit", "credit", "paidto", "expensecategory"},
}

// nameFamilies are sheet-name patterns per type; a match is worth two header
// keyword hits.
var nameFamilies = map[entity.ImportType]*regexp.Regexp{
	entity.Inventory: regexp.MustCompile(`(?i)stock|item|product|inventory|catalog`),
	entity.Customers: regexp.MustCompile(`(?i)customer|debtor|buyer`),
	entity.Suppliers: regexp.MustCompile(`(?i)supplier|vendor|creditor|purchase`),
	entity.Sales:     regexp.MustCompile(`(?i)sale|invoice|voucher|billing`),
	entity.Expenses:  regexp.MustCompile(`(?i)expense|spend|payment`),
}

// Classifier assigns sheets to import types. A nil AI client disables tier 2.
type Classifier struct {
	AI *ai.Client
}

// Classify returns the import type for a sheet, or ok=false when the sheet
// should be skipped. Skipping is never an error: an unclassifiable sheet is
// logged and dropped, the job carries on.
func (c *Classifier) Classify(ctx context.Context, s sheet.Sheet) (entity.ImportType, bool) {
	heuristic, heuristicOK := Heuristic(s.Name, s.Headers)

	if c.AI != nil {
		if t, err := c.aiClassify(ctx, s); err == nil {
			return t, true
		} else {
			slog.Warn("AI classification failed, using heuristic",
				"sheet", s.Name,
				"error", err,
			)
		}
	}

	if !heuristicOK {
		slog.Warn("sheet unclassifiable, skipping", "sheet", s.Name)
	}
	return heuristic, heuristicOK
}

// Heuristic is the tier-1 decision: one point per matched header keyword, two
// per sheet-name family match. The best type wins if it scores at least
// minScore; ties break in canonical order so the result is deterministic.
func Heuristic(sheetName string, headers []string) (entity.ImportType, bool) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = sheet.NormalizeHeader(h)
	}

	var best entity.ImportType
	bestScore := 0
	for _, t := range entity.CanonicalOrder {
		score := 0
		for _, kw := range headerKeywords[t] {
			for _, h := range normalized {
				if strings.Contains(h, kw) {
					score++
					break
				}
			}
		}
		if nameFamilies[t].MatchString(sheetName) {
			score += 2
		}
		if score > bestScore {
			best, bestScore = t, score
		}
	}

	if bestScore < minScore {
		return "", false
	}
	return best, true
}

type aiDecision struct {
	Category string `json:"category"`
}

func (c *Classifier) aiClassify(ctx context.Context, s sheet.Sheet) (entity.ImportType, error) {
	resp, err := c.AI.Complete(ctx, classifyPrompt(s))
	if err != nil {
		return "", err
	}

	raw, err := ai.ExtractJSON(resp)
	if err != nil {
		return "", err
	}
	var d aiDecision
	if err := json.Unmarshal(raw, &d); err != nil {
		return "", fmt.Errorf("decode classification: %w", err)
	}

	t := entity.ImportType(strings.ToLower(strings.TrimSpace(d.Category)))
	if !t.Valid() {
		return "", fmt.Errorf("unrecognized category %q", d.Category)
	}
	return t, nil
}

// classifyPrompt describes the sheet by column name and profiled type only.
func classifyPrompt(s sheet.Sheet) string {
	var b strings.Builder
	b.WriteString("Classify this spreadsheet tab into exactly one category: ")
	b.WriteString("inventory, customers, suppliers, sales, expenses.\n")
	b.WriteString("Rules: aggregate/summary tabs must not be classified; ")
	b.WriteString("item or stock catalogs are inventory; invoice or register rows are sales.\n")
	fmt.Fprintf(&b, "Tab name: %q\nColumns:\n", s.Name)
	for _, h := range s.Headers {
		p := profile.Column(s.Column(h, profile.MaxSamples))
		fmt.Fprintf(&b, "- %s (%s)\n", h, p.Type)
	}
	b.WriteString("Respond with JSON only: {\"category\": \"...\"}\n")
	return b.String()
}
