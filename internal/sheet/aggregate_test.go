package sheet

import "testing"

func TestIsAggregate(t *testing.T) {
	tests := []struct {
		name  string
		sheet Sheet
		want  bool
	}{
		{
			name:  "monthly summary by name",
			sheet: Sheet{Name: "Monthly Summary", Headers: []string{"Month", "Revenue"}},
			want:  true,
		},
		{
			name:  "dashboard by name",
			sheet: Sheet{Name: "Dashboard", Headers: []string{"Metric", "Value"}},
			want:  true,
		},
		{
			name:  "register overrides summary-looking name",
			sheet: Sheet{Name: "Sales Report Register", Headers: []string{"Invoice No", "Date", "Amount"}},
			want:  false,
		},
		{
			name:  "transactional headers keep the sheet",
			sheet: Sheet{Name: "Sheet1", Headers: []string{"Item Name", "Qty", "Rate"}},
			want:  false,
		},
		{
			name: "kpi rollup without transactional headers",
			sheet: Sheet{
				Name:    "Sheet2",
				Headers: []string{"Metric", "Value"},
				Rows: []map[string]string{
					{"Metric": "Grand Total", "Value": "125000"},
					{"Metric": "Growth %", "Value": "12"},
				},
			},
			want: true,
		},
		{
			name: "unknown headers but plain data rows",
			sheet: Sheet{
				Name:    "Sheet3",
				Headers: []string{"Col A", "Col B"},
				Rows: []map[string]string{
					{"Col A": "widget", "Col B": "4"},
				},
			},
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAggregate(tt.sheet); got != tt.want {
				t.Errorf("IsAggregate(%q) = %v, want %v", tt.sheet.Name, got, tt.want)
			}
		})
	}
}
