package uno

import "math/rand"

// DeckSize is the fixed size of a full draw pile.
const DeckSize = 108

// NewDeck builds the standard 108-card multiset in a uniformly random
// permutation: per color one 0, two each of 1-9, two each of skip,
// reverse and draw-two, plus four of each wild. The back of the returned
// slice is the next card to draw.
func NewDeck(rng *rand.Rand) []Card {
	deck := make([]Card, 0, DeckSize)
	for _, c := range Colors {
		deck = append(deck, Card(string(c)+"0"))
		for r := '1'; r <= '9'; r++ {
			card := Card(string(c) + string(r))
			deck = append(deck, card, card)
		}
		for _, r := range []string{RankSkip, RankReverse, RankDrawTwo} {
			card := Card(string(c) + r)
			deck = append(deck, card, card)
		}
	}
	for i := 0; i < 4; i++ {
		deck = append(deck, WildCard, WildDrawFour)
	}
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})
	return deck
}
