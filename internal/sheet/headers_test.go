package sheet

import (
	"reflect"
	"strings"
	"testing"
)

func TestChooseHeaderRow(t *testing.T) {
	tests := []struct {
		name string
		grid [][]string
		want int
	}{
		{
			name: "header in first row",
			grid: [][]string{
				{"Item Name", "Qty", "Rate", "Amount"},
				{"Sugar 1kg", "10", "45", "450"},
			},
			want: 0,
		},
		{
			name: "title banner before header",
			grid: [][]string{
				{"ABC Traders - Stock Report"},
				{},
				{"Item Name", "HSN Code", "Stock Qty", "Rate"},
				{"Sugar 1kg", "1701", "25", "45"},
			},
			want: 2,
		},
		{
			name: "prose row loses to header row",
			grid: [][]string{
				{"This sheet lists every stock item exported from the billing system on request"},
				{"Item", "SKU", "Price"},
			},
			want: 1,
		},
		{
			// a long cell cancels its own credit but keeps its keyword,
			// so one prose cell does not sink an otherwise strong header
			name: "header with one long cell still wins",
			grid: [][]string{
				{"Item description exported from the billing system", "Item", "Qty"},
				{"Sugar", "10", "45"},
			},
			want: 0,
		},
		{
			name: "all empty",
			grid: [][]string{{}, {"", ""}},
			want: -1,
		},
		{
			name: "no positive score falls back to first non-empty",
			grid: [][]string{
				{},
				{strings.Repeat("x", 60)},
				{strings.Repeat("y", 50), strings.Repeat("z", 50)},
			},
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChooseHeaderRow(tt.grid); got != tt.want {
				t.Errorf("ChooseHeaderRow() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestChooseHeaderRow_Deterministic(t *testing.T) {
	grid := [][]string{
		{"Item", "Qty"},
		{"Item", "Qty"},
	}
	// Equal scores must always resolve to the earlier row.
	for i := 0; i < 10; i++ {
		if got := ChooseHeaderRow(grid); got != 0 {
			t.Fatalf("ChooseHeaderRow() = %d, want 0", got)
		}
	}
}

func TestDedupeHeaders(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no duplicates",
			in:   []string{"Item", "Qty"},
			want: []string{"Item", "Qty"},
		},
		{
			name: "empty names become positional",
			in:   []string{"Item", "", "Rate", ""},
			want: []string{"Item", "column_2", "Rate", "column_4"},
		},
		{
			name: "repeats get suffixes",
			in:   []string{"Amount", "Amount", "Amount"},
			want: []string{"Amount", "Amount_2", "Amount_3"},
		},
		{
			name: "suffix collision with existing name",
			in:   []string{"a", "a_2", "a"},
			want: []string{"a", "a_2", "a_3"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DedupeHeaders(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DedupeHeaders(%v) = %v, want %v", tt.in, got, tt.want)
			}
			seen := make(map[string]bool)
			for _, h := range got {
				if seen[h] {
					t.Errorf("duplicate header %q survived dedupe", h)
				}
				seen[h] = true
			}
		})
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Invoice No.", "invoiceno"},
		{"invoice_no", "invoiceno"},
		{"  GST @ 18% ", "gst18"},
		{"HSN/SAC Code", "hsnsaccode"},
	}
	for _, tt := range tests {
		if got := NormalizeHeader(tt.in); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
