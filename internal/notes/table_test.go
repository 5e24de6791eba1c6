package notes

import (
	"math"
	"testing"
)

func TestFrequencyKnownNotes(t *testing.T) {
	cases := []struct {
		name string
		want float64
	}{
		{"A4", 440.00},
		{"C4", 261.63},
		{"E3", 164.81},
		{"B5", 987.77},
	}
	for _, tc := range cases {
		got, ok := Frequency(tc.name)
		if !ok {
			t.Fatalf("Frequency(%q) not found", tc.name)
		}
		if math.Abs(got-tc.want) > 0.01 {
			t.Errorf("Frequency(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestFrequencyUnknownNote(t *testing.T) {
	for _, name := range []string{"", "H3", "C9", "e3"} {
		if _, ok := Frequency(name); ok {
			t.Errorf("Frequency(%q) should not resolve", name)
		}
	}
}

func TestTableSpansThreeOctaves(t *testing.T) {
	names := Names()
	if len(names) != 36 {
		t.Fatalf("table has %d entries, want 36", len(names))
	}
	lo, _ := Frequency("C3")
	hi, _ := Frequency("B5")
	ratio := hi / lo
	// Just under three octaves between the lowest and highest entry.
	if ratio < 7 || ratio > 8 {
		t.Errorf("B5/C3 ratio = %v, want just under 8", ratio)
	}
}
