package uno

import (
	"reflect"
	"testing"
)

func TestLegal(t *testing.T) {
	tests := []struct {
		name      string
		candidate Card
		top       Card
		bound     Color
		want      bool
	}{
		{"color match", "R7", "R5", NoColor, true},
		{"rank match", "B7", "R7", NoColor, true},
		{"no match", "B3", "R7", NoColor, false},
		{"function color match", "BS", "B7", NoColor, true},
		{"function rank match", "BS", "RS", NoColor, true},
		{"wild always playable", "WW", "R5", NoColor, true},
		{"wild draw four always playable", "WD", "G9", NoColor, true},
		{"wild on wild", "WD", "WW", Blue, true},
		{"bound color match on wild top", "B3", "WW", Blue, true},
		{"bound color mismatch on wild top", "R3", "WW", Blue, false},
		{"bound color match on wild draw four top", "G2", "WD", Green, true},
		{"draw two is not wild", "RD", "B3", NoColor, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Legal(tc.candidate, tc.top, tc.bound); got != tc.want {
				t.Errorf("Legal(%s, %s, %q) = %v, want %v", tc.candidate, tc.top, tc.bound, got, tc.want)
			}
		})
	}
}

func TestCardHelpers(t *testing.T) {
	if Card("R5").Color() != Red || Card("R5").Rank() != "5" {
		t.Error("R5 should be a red five")
	}
	if !Card("R5").IsNumber() || Card("RS").IsNumber() || Card("WW").IsNumber() {
		t.Error("IsNumber misclassifies cards")
	}
	if !Card("WW").IsWild() || !Card("WD").IsWild() || Card("RD").IsWild() {
		t.Error("IsWild misclassifies cards")
	}
	if Card("WW").Color() != NoColor {
		t.Error("Wilds carry no printed color")
	}

	valid := []Card{"R0", "Y9", "GS", "BR", "RD", "WW", "WD"}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("%s should be valid", c)
		}
	}
	invalid := []Card{"", "R", "X5", "RA", "R10", "SK", "TL", "WS"}
	for _, c := range invalid {
		if c.Valid() {
			t.Errorf("%s should be invalid", c)
		}
	}
}

func TestSortHand(t *testing.T) {
	hand := []Card{"WD", "B2", "RD", "R0", "WW", "GS", "R9", "Y4", "RS"}
	SortHand(hand)
	want := []Card{"R0", "R9", "RS", "RD", "Y4", "GS", "B2", "WW", "WD"}
	if !reflect.DeepEqual(hand, want) {
		t.Errorf("SortHand = %v, want %v", hand, want)
	}
}
