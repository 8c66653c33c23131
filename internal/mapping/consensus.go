package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/rkotak/bookimport/internal/ai"
	"github.com/rkotak/bookimport/internal/entity"
	"github.com/rkotak/bookimport/internal/profile"
	"github.com/rkotak/bookimport/internal/sheet"
)

// numericHeadingThreshold is the share of numeric-looking samples that
// disqualifies a column from feeding the inventory name field.
const numericHeadingThreshold = 0.8

// unitColumnRe matches unit-of-measure column names after normalization.
var unitColumnRe = regexp.MustCompile(`^(uom|unit|units|pcs|nos)$|uom`)

// Error is a user-facing mapping failure. The sheet it concerns cannot be
// imported as mapped, but other sheets in the same job are unaffected.
type Error struct {
	Sheet  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("sheet %q: %s", e.Sheet, e.Reason)
}

// FailureKind marks mapping errors as sheet-scoped: the sheet is skipped,
// the job continues.
func (e *Error) FailureKind() entity.FailureKind { return entity.FailureDegraded }

// Mapper builds the consensus schema for classified sheets. A nil AI client
// limits it to the pattern baseline.
type Mapper struct {
	AI *ai.Client
}

// Map produces the final schema for one sheet. The pattern baseline is
// computed unconditionally; AI passes refine it when available, and every
// produced schema passes the guardrails regardless of origin.
func (m *Mapper) Map(ctx context.Context, t entity.ImportType, s sheet.Sheet) (Schema, error) {
	baseline := PatternMap(t, s.Headers)
	schema := baseline

	if m.AI != nil {
		primary, confidence, err := aiMap(ctx, m.AI.Complete, t, s)
		if err != nil {
			slog.Warn("AI mapping failed, using pattern baseline",
				"sheet", s.Name,
				"type", t,
				"error", err,
			)
		} else if m.AI.HasVerifier() {
			verifier, _, vErr := aiMap(ctx, m.AI.CompleteVerifier, t, s)
			if vErr != nil {
				slog.Warn("verifier mapping failed, merging primary only",
					"sheet", s.Name,
					"error", vErr,
				)
				verifier = nil
			}
			schema = Merge(baseline, primary, verifier)
		} else {
			// Single-call variant: trust a non-empty mapping at the floor.
			if len(primary) > 0 && confidence < singleCallConfidenceFloor {
				confidence = singleCallConfidenceFloor
			}
			slog.Debug("single-pass AI mapping", "sheet", s.Name, "confidence", confidence)
			schema = Merge(baseline, primary, nil)
		}
	}

	schema = applyGuardrails(t, schema)
	if err := rejectNumericHeading(t, schema, s); err != nil {
		return nil, err
	}
	if len(schema) == 0 {
		return nil, &Error{Sheet: s.Name, Reason: "no columns could be mapped; use clearer column headings"}
	}
	return schema, nil
}

// Merge reconciles the three mappings deterministically:
//   - the AI primary overrides the baseline wherever it mapped a field;
//   - the verifier takes every field the primary omitted entirely, even
//     over a baseline mapping;
//   - when primary and verifier disagree, the primary wins.
func Merge(baseline, primary, verifier Schema) Schema {
	merged := make(Schema, len(baseline)+len(primary))
	for field, col := range baseline {
		merged[field] = col
	}
	for field, col := range primary {
		merged[field] = col
	}
	for field, col := range verifier {
		if _, mapped := primary[field]; !mapped {
			merged[field] = col
		}
	}
	return merged
}

// IsUnitColumn reports whether a header names a unit-of-measure column.
func IsUnitColumn(header string) bool {
	return unitColumnRe.MatchString(sheet.NormalizeHeader(header))
}

// applyGuardrails enforces the non-negotiable rules on a finished schema,
// whichever path produced it. Today that is one rule: a sales sku may never
// resolve to a unit-of-measure column.
func applyGuardrails(t entity.ImportType, schema Schema) Schema {
	if t != entity.Sales {
		return schema
	}
	if col, ok := schema["sku"]; ok && IsUnitColumn(col) {
		slog.Warn("guardrail: dropped sku mapping to unit column", "column", col)
		delete(schema, "sku")
	}
	return schema
}

// rejectNumericHeading refuses an inventory mapping whose name column is
// dominated by numeric values. Importing numbers as item names silently
// corrupts the catalog; the user is asked for clearer headers instead.
func rejectNumericHeading(t entity.ImportType, schema Schema, s sheet.Sheet) error {
	if t != entity.Inventory {
		return nil
	}
	col, ok := schema["name"]
	if !ok {
		return nil
	}

	samples := s.Column(col, profile.MaxSamples)
	numeric, total := 0, 0
	for _, v := range samples {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		total++
		if looksNumeric(v) {
			numeric++
		}
	}
	if total > 0 && float64(numeric)/float64(total) >= numericHeadingThreshold {
		return &Error{
			Sheet:  s.Name,
			Reason: fmt.Sprintf("numeric-heavy column %q mapped to item name; use clearer column headings", col),
		}
	}
	return nil
}

var numericValueRe = regexp.MustCompile(`^[₹$€£]?\s*-?\d[\d,]*(\.\d+)?$`)

func looksNumeric(v string) bool {
	return numericValueRe.MatchString(v)
}
