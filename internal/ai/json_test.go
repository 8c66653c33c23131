package ai

import "testing"

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			in:   `{"category": "sales"}`,
			want: `{"category": "sales"}`,
		},
		{
			name: "markdown fence",
			in:   "```json\n{\"category\": \"inventory\"}\n```",
			want: `{"category": "inventory"}`,
		},
		{
			name: "prose around the object",
			in:   `Sure! The mapping is {"mapping": {"name": "Item"}} as requested.`,
			want: `{"mapping": {"name": "Item"}}`,
		},
		{
			name: "braces inside strings",
			in:   `{"reason": "value {with} braces and \"quotes\""}`,
			want: `{"reason": "value {with} braces and \"quotes\""}`,
		},
		{
			name:    "no object",
			in:      "cannot help with that",
			wantErr: true,
		},
		{
			name:    "unbalanced",
			in:      `{"category": "sales"`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && string(got) != tt.want {
				t.Errorf("ExtractJSON() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNew_NoKeyDisablesAI(t *testing.T) {
	c, err := New(Config{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c != nil {
		t.Error("New() with no API key should return a nil client")
	}
}
