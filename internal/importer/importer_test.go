package importer

import "testing"

func TestChunkBounds(t *testing.T) {
	tests := []struct {
		name             string
		n, offset, limit int
		wantLo, wantHi   int
	}{
		{"full chunk", 100, 0, 50, 0, 50},
		{"tail chunk", 100, 80, 50, 80, 100},
		{"offset past end", 100, 120, 50, 100, 100},
		{"negative offset", 100, -5, 50, 0, 50},
		{"zero limit takes the rest", 100, 10, 0, 10, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := chunkBounds(tt.n, tt.offset, tt.limit)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("chunkBounds(%d, %d, %d) = (%d, %d), want (%d, %d)",
					tt.n, tt.offset, tt.limit, lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestNullText(t *testing.T) {
	if got := nullText(""); got != nil {
		t.Errorf("nullText(\"\") = %v, want nil", got)
	}
	if got := nullText("x"); got != "x" {
		t.Errorf("nullText(\"x\") = %v, want \"x\"", got)
	}
}
