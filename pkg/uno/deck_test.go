package uno

import (
	"math/rand"
	"testing"
)

// testRNG creates a deterministic RNG for testing
func testRNG() *rand.Rand {
	return rand.New(rand.NewSource(42))
}

func TestNewDeckComposition(t *testing.T) {
	deck := NewDeck(testRNG())

	if len(deck) != DeckSize {
		t.Fatalf("Expected deck size %d, got %d", DeckSize, len(deck))
	}

	counts := make(map[Card]int)
	for _, c := range deck {
		if !c.Valid() {
			t.Errorf("Invalid card in deck: %q", c)
		}
		counts[c]++
	}

	for _, color := range Colors {
		if got := counts[Card(string(color)+"0")]; got != 1 {
			t.Errorf("Expected 1 %s0, got %d", color, got)
		}
		for r := '1'; r <= '9'; r++ {
			card := Card(string(color) + string(r))
			if counts[card] != 2 {
				t.Errorf("Expected 2 of %s, got %d", card, counts[card])
			}
		}
		for _, r := range []string{RankSkip, RankReverse, RankDrawTwo} {
			card := Card(string(color) + r)
			if counts[card] != 2 {
				t.Errorf("Expected 2 of %s, got %d", card, counts[card])
			}
		}
	}
	if counts[WildCard] != 4 {
		t.Errorf("Expected 4 WW, got %d", counts[WildCard])
	}
	if counts[WildDrawFour] != 4 {
		t.Errorf("Expected 4 WD, got %d", counts[WildDrawFour])
	}
}

func TestNewDeckShuffleDeterminism(t *testing.T) {
	deck1 := NewDeck(rand.New(rand.NewSource(42)))
	deck2 := NewDeck(rand.New(rand.NewSource(42)))
	for i := range deck1 {
		if deck1[i] != deck2[i] {
			t.Fatalf("Decks with same seed differ at position %d", i)
		}
	}

	deck3 := NewDeck(rand.New(rand.NewSource(43)))
	same := true
	for i := range deck1 {
		if deck1[i] != deck3[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Decks with different seeds should have different orders")
	}
}
