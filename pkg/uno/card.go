package uno

import (
	"math/rand"
	"sort"
)

// Color represents a card color. The zero value means no color is in
// effect (no wild has been played on top).
type Color string

const (
	NoColor Color = ""
	Red     Color = "R"
	Yellow  Color = "Y"
	Green   Color = "G"
	Blue    Color = "B"
)

// Colors lists the four playable colors in display order.
var Colors = []Color{Red, Yellow, Green, Blue}

// Valid reports whether c is one of the four playable colors.
func (c Color) Valid() bool {
	switch c {
	case Red, Yellow, Green, Blue:
		return true
	}
	return false
}

// RandomColor picks a color uniformly at random. Used when a client plays
// a wild without declaring a color.
func RandomColor(rng *rand.Rand) Color {
	return Colors[rng.Intn(len(Colors))]
}

// Card is a two-character card code: a color letter (R, Y, G or B)
// followed by a rank (0-9, S for skip, R for reverse, D for draw-two),
// or one of the colorless wilds WW (wild) and WD (wild draw-four).
//
// The codes SK and TL never appear in a hand or the draw pile; they are
// history markers for a voluntary pass and a timeout draw respectively.
type Card string

const (
	WildCard     Card = "WW"
	WildDrawFour Card = "WD"

	// Table history markers.
	SkipMarker    Card = "SK"
	TimeoutMarker Card = "TL"
)

// Function ranks.
const (
	RankSkip    = "S"
	RankReverse = "R"
	RankDrawTwo = "D"
)

// Color returns the card's printed color, or NoColor for wilds.
func (c Card) Color() Color {
	if c.IsWild() || len(c) < 1 {
		return NoColor
	}
	return Color(c[:1])
}

// Rank returns the card's rank portion ("0".."9", "S", "R" or "D").
func (c Card) Rank() string {
	if len(c) < 2 {
		return ""
	}
	return string(c[1:])
}

// IsWild reports whether the card is WW or WD.
func (c Card) IsWild() bool {
	return c == WildCard || c == WildDrawFour
}

// IsNumber reports whether the card is a plain number card.
func (c Card) IsNumber() bool {
	if len(c) != 2 || !Color(c[:1]).Valid() {
		return false
	}
	return c[1] >= '0' && c[1] <= '9'
}

// Valid reports whether the code names a real card in the 108-card set.
func (c Card) Valid() bool {
	if c.IsWild() {
		return true
	}
	if len(c) != 2 || !Color(c[:1]).Valid() {
		return false
	}
	switch c.Rank() {
	case RankSkip, RankReverse, RankDrawTwo:
		return true
	}
	return c.IsNumber()
}

// Legal reports whether candidate may be played on top. When top is a
// wild the color it was bound to at play time stands in for its printed
// color; wilds themselves are always playable.
func Legal(candidate, top Card, bound Color) bool {
	if candidate.IsWild() {
		return true
	}
	if top.IsWild() {
		return candidate.Color() == bound
	}
	return candidate.Color() == top.Color() || candidate.Rank() == top.Rank()
}

var colorOrder = map[Color]int{Red: 0, Yellow: 1, Green: 2, Blue: 3}
var funcOrder = map[string]int{RankSkip: 1, RankReverse: 2, RankDrawTwo: 3}

// sortKey orders a hand for display: colors R, Y, G, B, then numbers
// before function cards, wilds last. Purely cosmetic.
func sortKey(c Card) (int, int, int) {
	if c.IsWild() {
		if c == WildDrawFour {
			return 4, 0, 1
		}
		return 4, 0, 0
	}
	if c.IsNumber() {
		return colorOrder[c.Color()], 0, int(c[1] - '0')
	}
	return colorOrder[c.Color()], 1, funcOrder[c.Rank()]
}

// SortHand sorts a hand in place into display order.
func SortHand(hand []Card) {
	sort.Slice(hand, func(i, j int) bool {
		ci, ni, vi := sortKey(hand[i])
		cj, nj, vj := sortKey(hand[j])
		if ci != cj {
			return ci < cj
		}
		if ni != nj {
			return ni < nj
		}
		if vi != vj {
			return vi < vj
		}
		return hand[i] < hand[j]
	})
}
