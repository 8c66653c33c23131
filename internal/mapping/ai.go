package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rkotak/bookimport/internal/ai"
	"github.com/rkotak/bookimport/internal/entity"
	"github.com/rkotak/bookimport/internal/profile"
	"github.com/rkotak/bookimport/internal/sheet"
)

// singleCallConfidenceFloor is applied when only one AI pass runs: a mapping
// that produced at least one field is trusted at 0.85 minimum. A higher
// native confidence is never lowered.
const singleCallConfidenceFloor = 0.85

type aiMapping struct {
	Mapping    map[string]string `json:"mapping"`
	Confidence float64           `json:"confidence"`
}

// aiMap asks one model pass for a field-to-column mapping. The prompt carries
// column names and profiled value descriptions only, never raw cell values.
func aiMap(ctx context.Context, complete func(context.Context, string) (string, error), t entity.ImportType, s sheet.Sheet) (Schema, float64, error) {
	resp, err := complete(ctx, mapPrompt(t, s))
	if err != nil {
		return nil, 0, err
	}

	raw, err := ai.ExtractJSON(resp)
	if err != nil {
		return nil, 0, err
	}
	var m aiMapping
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, 0, fmt.Errorf("decode mapping: %w", err)
	}

	return sanitizeAIMapping(t, m.Mapping, s.Headers), m.Confidence, nil
}

// sanitizeAIMapping drops anything the model made up: fields outside the
// allowed list for the type, columns absent from the sheet, and the sales
// sku-to-unit-column mapping the guardrail forbids.
func sanitizeAIMapping(t entity.ImportType, proposed map[string]string, headers []string) Schema {
	allowed := make(map[string]bool)
	for _, f := range t.Fields() {
		allowed[f] = true
	}
	present := make(map[string]string, len(headers))
	for _, h := range headers {
		present[sheet.NormalizeHeader(h)] = h
	}

	schema := make(Schema)
	for field, column := range proposed {
		field = strings.TrimSpace(field)
		if !allowed[field] {
			continue
		}
		header, ok := present[sheet.NormalizeHeader(column)]
		if !ok {
			continue
		}
		if t == entity.Sales && field == "sku" && IsUnitColumn(header) {
			continue
		}
		schema[field] = header
	}
	return schema
}

func mapPrompt(t entity.ImportType, s sheet.Sheet) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Map spreadsheet columns to %s fields.\n", t)
	fmt.Fprintf(&b, "Allowed fields: %s.\n", strings.Join(t.Fields(), ", "))
	b.WriteString("Only map a field when a column clearly holds it; omit uncertain fields.\n")
	if t == entity.Sales {
		b.WriteString("Never map sku to a unit-of-measure column (UOM, Unit, Pcs, Nos).\n")
	}
	b.WriteString("Columns:\n")
	for _, h := range s.Headers {
		p := profile.Column(s.Column(h, profile.MaxSamples))
		fmt.Fprintf(&b, "- %q: type %s, pattern %q\n", h, p.Type, p.Pattern)
	}
	b.WriteString("Respond with JSON only: {\"mapping\": {\"field\": \"column\"}, \"confidence\": 0.0}\n")
	return b.String()
}
