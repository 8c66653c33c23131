package classify

import (
	"context"
	"testing"

	"github.com/rkotak/bookimport/internal/entity"
	"github.com/rkotak/bookimport/internal/sheet"
)

func TestHeuristic(t *testing.T) {
	tests := []struct {
		name      string
		sheetName string
		headers   []string
		want      entity.ImportType
		wantOK    bool
	}{
		{
			name:      "stock item master",
			sheetName: "Stock Item Master",
			headers:   []string{"Item Name", "HSN Code", "Rate", "Stock Qty"},
			want:      entity.Inventory,
			wantOK:    true,
		},
		{
			name:      "sales register",
			sheetName: "Sales Register Apr",
			headers:   []string{"Invoice No", "Invoice Date", "Party Name", "Qty", "Amount"},
			want:      entity.Sales,
			wantOK:    true,
		},
		{
			name:      "customer list",
			sheetName: "Customer List",
			headers:   []string{"Customer Name", "Mobile", "Address"},
			want:      entity.Customers,
			wantOK:    true,
		},
		{
			name:      "supplier ledger",
			sheetName: "Vendor Ledger",
			headers:   []string{"Supplier Name", "GSTIN", "Payable"},
			want:      entity.Suppliers,
			wantOK:    true,
		},
		{
			name:      "expense sheet",
			sheetName: "Expenses FY24",
			headers:   []string{"Date", "Expense Category", "Paid To", "Debit"},
			want:      entity.Expenses,
			wantOK:    true,
		},
		{
			name:      "no signal",
			sheetName: "Sheet1",
			headers:   []string{"Col A", "Col B"},
			wantOK:    false,
		},
		{
			name:      "name family alone reaches the cutoff",
			sheetName: "Inventory",
			headers:   []string{"A", "B"},
			want:      entity.Inventory,
			wantOK:    true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Heuristic(tt.sheetName, tt.headers)
			if ok != tt.wantOK {
				t.Fatalf("Heuristic() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("Heuristic() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHeuristic_Deterministic(t *testing.T) {
	// The same inputs must always yield the same answer, even when several
	// types could plausibly score the same.
	headers := []string{"Item Name", "Qty", "Amount"}
	first, ok := Heuristic("Data", headers)
	if !ok {
		t.Fatal("Heuristic() ok = false, want true")
	}
	for i := 0; i < 20; i++ {
		got, _ := Heuristic("Data", headers)
		if got != first {
			t.Fatalf("Heuristic() = %q on run %d, first run gave %q", got, i, first)
		}
	}
}

func TestClassify_NoAI(t *testing.T) {
	c := &Classifier{}
	s := sheet.Sheet{
		Name:    "Stock Item Master",
		Headers: []string{"Item Name", "HSN Code", "Stock Qty"},
	}
	got, ok := c.Classify(context.Background(), s)
	if !ok {
		t.Fatal("Classify() ok = false, want true")
	}
	if got != entity.Inventory {
		t.Errorf("Classify() = %q, want %q", got, entity.Inventory)
	}
}

func TestClassify_UnclassifiableSkips(t *testing.T) {
	c := &Classifier{}
	s := sheet.Sheet{Name: "Sheet1", Headers: []string{"X", "Y"}}
	if _, ok := c.Classify(context.Background(), s); ok {
		t.Error("Classify() ok = true for unclassifiable sheet, want false")
	}
}
