package common

import "testing"

func TestPairKey(t *testing.T) {
	tests := []struct {
		name             string
		a, b             string
		wantLo, wantHi   string
	}{
		{name: "already ordered", a: "n1", b: "n2", wantLo: "n1", wantHi: "n2"},
		{name: "reversed", a: "n2", b: "n1", wantLo: "n1", wantHi: "n2"},
		{name: "equal", a: "n1", b: "n1", wantLo: "n1", wantHi: "n1"},
		{name: "empty sorts first", a: "n1", b: "", wantLo: "", wantHi: "n1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := PairKey(tt.a, tt.b)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("PairKey(%q, %q) = (%q, %q), want (%q, %q)",
					tt.a, tt.b, lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}

	// Both argument orders must map to the same key so a relation between
	// two news items occupies exactly one row.
	lo1, hi1 := PairKey("x", "y")
	lo2, hi2 := PairKey("y", "x")
	if lo1 != lo2 || hi1 != hi2 {
		t.Errorf("PairKey not symmetric: (%q,%q) vs (%q,%q)", lo1, hi1, lo2, hi2)
	}
}
