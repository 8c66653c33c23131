package sheet

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParse_CSV(t *testing.T) {
	data := []byte("Item Name,Qty,Rate\nSugar 1kg,10,45\nRice 5kg,2,320\n")

	sheets, err := Parse("stock.csv", data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(sheets) != 1 {
		t.Fatalf("got %d sheets, want 1", len(sheets))
	}

	s := sheets[0]
	if s.Name != "stock" {
		t.Errorf("sheet name = %q, want %q", s.Name, "stock")
	}
	if len(s.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(s.Rows))
	}
	if got := s.Rows[0]["Item Name"]; got != "Sugar 1kg" {
		t.Errorf("first row item = %q, want %q", got, "Sugar 1kg")
	}
}

func TestParse_CSVWithBanner(t *testing.T) {
	data := []byte("ABC Traders Stock Export\n\nItem Name,HSN,Stock Qty\nSugar 1kg,1701,25\n")

	sheets, err := Parse("export.csv", data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	s := sheets[0]
	if len(s.Headers) != 3 || s.Headers[0] != "Item Name" {
		t.Errorf("headers = %v, want header row below banner", s.Headers)
	}
	if len(s.Rows) != 1 {
		t.Errorf("got %d rows, want 1", len(s.Rows))
	}
}

func TestParse_Workbook(t *testing.T) {
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Item Name", "SKU", "Rate"},
		{"Sugar 1kg", "SG001", 45},
		{"Rice 5kg", "RC005", 320},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}

	sheets, err := Parse("items.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(sheets) != 1 {
		t.Fatalf("got %d sheets, want 1", len(sheets))
	}
	s := sheets[0]
	if len(s.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(s.Rows))
	}
	if got := s.Rows[1]["SKU"]; got != "RC005" {
		t.Errorf("SKU = %q, want %q", got, "RC005")
	}
}

func TestParse_Empty(t *testing.T) {
	if _, err := Parse("x.csv", nil); err == nil {
		t.Error("Parse() on empty data: want error")
	}
}

func TestColumn_Limit(t *testing.T) {
	s := Sheet{
		Headers: []string{"a"},
		Rows: []map[string]string{
			{"a": "1"}, {"a": "2"}, {"a": "3"},
		},
	}
	if got := s.Column("a", 2); len(got) != 2 {
		t.Errorf("Column() returned %d values, want 2", len(got))
	}
}
