package uno

import (
	"errors"
	"math/rand"
)

// Room status values.
const (
	StatusWaiting  = "waiting"
	StatusPlaying  = "playing"
	StatusFinished = "finished"
)

// HandSize is the number of cards dealt to each seat at game start.
const HandSize = 7

// Validation failures returned by room operations. None of them leaves
// the room mutated.
var (
	ErrNotPlaying  = errors.New("game is not in progress")
	ErrNotYourTurn = errors.New("not your turn")
	ErrCardNotHeld = errors.New("card not in hand")
	ErrIllegalMove = errors.New("card does not match")
)

// Room is the authoritative state of a single game. All fields are
// exported and JSON-serializable so the registry can be snapshotted to
// durable storage and reloaded after a restart.
//
// A Room does not lock itself: every access, including reads, must be
// serialized by the owning store's mutex. Mutating operations bump
// Revision so pollers can detect changes without hashing responses;
// idle-tick bookkeeping deliberately does not, since it is invisible in
// the poll snapshot.
type Room struct {
	Count      int               `json:"count"`  // target seat count
	Status     string            `json:"status"` // waiting, playing, finished
	Seats      []string          `json:"player"` // identities in turn order once dealt
	Hands      map[string][]Card `json:"hand"`
	Deck       []Card            `json:"deck"` // back of slice = next draw
	Top        Card              `json:"top"`
	BoundColor Color             `json:"chosen_color"`
	Turn       int               `json:"turn"`
	Direction  int               `json:"direction"` // +1 or -1
	History    []Card            `json:"table_history"`
	IdleTicks  []int             `json:"wait_time"` // per-seat stall counters
	Winner     string            `json:"winner"`    // display name, set by the owning store
	Revision   uint64            `json:"revision"`
}

// NewRoom creates an empty room waiting for count players.
func NewRoom(count int) *Room {
	return &Room{
		Count:     count,
		Status:    StatusWaiting,
		Hands:     make(map[string][]Card),
		Direction: 1,
	}
}

// AddPlayer appends an identity to the seat list. The caller is
// responsible for capacity and status checks.
func (r *Room) AddPlayer(uid string) {
	r.Seats = append(r.Seats, uid)
	r.Revision++
}

// Full reports whether every seat is taken.
func (r *Room) Full() bool {
	return len(r.Seats) >= r.Count
}

// SeatOf returns uid's seat index, or -1.
func (r *Room) SeatOf(uid string) int {
	for i, id := range r.Seats {
		if id == uid {
			return i
		}
	}
	return -1
}

// Deal transitions the room from waiting to playing: seat order is
// shuffled (so join order is not turn order), a fresh deck is built,
// every seat receives HandSize cards, and the starting top card is drawn
// until it is a plain number card.
func (r *Room) Deal(rng *rand.Rand) {
	rng.Shuffle(len(r.Seats), func(i, j int) {
		r.Seats[i], r.Seats[j] = r.Seats[j], r.Seats[i]
	})
	r.Deck = NewDeck(rng)
	for _, uid := range r.Seats {
		hand := make([]Card, 0, HandSize)
		for i := 0; i < HandSize; i++ {
			if c, ok := r.draw(); ok {
				hand = append(hand, c)
			}
		}
		SortHand(hand)
		r.Hands[uid] = hand
	}
	for {
		c, _ := r.draw()
		if c.IsNumber() {
			r.Top = c
			break
		}
		// Put the function card back and reshuffle before retrying.
		r.Deck = append(r.Deck, c)
		rng.Shuffle(len(r.Deck), func(i, j int) {
			r.Deck[i], r.Deck[j] = r.Deck[j], r.Deck[i]
		})
	}
	r.History = []Card{r.Top}
	r.Turn = 0
	r.Direction = 1
	r.IdleTicks = make([]int, len(r.Seats))
	r.Status = StatusPlaying
	r.Revision++
}

// Play applies uid's card to the table. chosen is the color a wild
// binds to; when it is not a valid color the server substitutes one at
// random. On any validation failure the room is left untouched.
func (r *Room) Play(uid string, card Card, chosen Color, rng *rand.Rand) error {
	if r.Status != StatusPlaying {
		return ErrNotPlaying
	}
	seat := r.SeatOf(uid)
	if seat != r.Turn {
		return ErrNotYourTurn
	}
	hand := r.Hands[uid]
	idx := -1
	for i, c := range hand {
		if c == card {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrCardNotHeld
	}
	if !Legal(card, r.Top, r.BoundColor) {
		return ErrIllegalMove
	}

	r.Hands[uid] = append(hand[:idx], hand[idx+1:]...)
	r.Top = card
	r.History = append(r.History, card)
	if card.IsWild() {
		if !chosen.Valid() {
			chosen = RandomColor(rng)
		}
		r.BoundColor = chosen
	} else {
		r.BoundColor = NoColor
	}

	// Direction flips before the draw target and the next turn are
	// resolved.
	if card.Rank() == RankReverse {
		r.Direction = -r.Direction
	}

	drawCount, skipNext := 0, false
	switch {
	case card == WildDrawFour:
		drawCount, skipNext = 4, true
	case card == WildCard:
		// Extra turn only.
	case card.Rank() == RankDrawTwo:
		drawCount, skipNext = 2, true
	case card.Rank() == RankSkip:
		skipNext = true
	case card.Rank() == RankReverse && len(r.Seats) == 2:
		// Heads-up, reversing onto yourself skips the only opponent.
		skipNext = true
	}

	if drawCount > 0 {
		target := r.Seats[r.seatAt(1)]
		r.refillIfNeeded(rng)
		for i := 0; i < drawCount; i++ {
			if c, ok := r.draw(); ok {
				r.Hands[target] = append(r.Hands[target], c)
			}
		}
		SortHand(r.Hands[target])
	}

	switch {
	case card.IsWild():
		// The wild's seat plays again.
		r.resetIdle()
	case skipNext:
		r.advance(2)
	default:
		r.advance(1)
	}

	if len(r.Hands[uid]) == 0 {
		r.Status = StatusFinished
	}
	r.Revision++
	return nil
}

// SkipDraw is the voluntary pass: uid draws one card in lieu of playing
// and the turn moves on. Legality of the claim that no card was playable
// is not checked; the server trusts the client here.
func (r *Room) SkipDraw(uid string, rng *rand.Rand) error {
	if r.Status != StatusPlaying {
		return ErrNotPlaying
	}
	if r.SeatOf(uid) != r.Turn {
		return ErrNotYourTurn
	}
	r.drawPass(SkipMarker, rng)
	return nil
}

// ForceDraw is the scheduler's timeout path: the stalled current seat
// draws one card, a timeout marker is recorded and the turn moves on.
func (r *Room) ForceDraw(rng *rand.Rand) {
	if r.Status != StatusPlaying {
		return
	}
	r.drawPass(TimeoutMarker, rng)
}

func (r *Room) drawPass(marker Card, rng *rand.Rand) {
	uid := r.Seats[r.Turn]
	r.refillIfNeeded(rng)
	if c, ok := r.draw(); ok {
		r.Hands[uid] = append(r.Hands[uid], c)
		SortHand(r.Hands[uid])
		r.History = append(r.History, marker)
	}
	r.advance(1)
	r.Revision++
}

// TickIdle bumps the current seat's stall counter and returns its new
// value. Does not bump Revision: idle time is invisible to pollers.
func (r *Room) TickIdle() int {
	if len(r.IdleTicks) != len(r.Seats) {
		r.IdleTicks = make([]int, len(r.Seats))
	}
	r.IdleTicks[r.Turn]++
	return r.IdleTicks[r.Turn]
}

// NextSeat returns the index of the seat after the current one in the
// active direction.
func (r *Room) NextSeat() int {
	return r.seatAt(1)
}

func (r *Room) seatAt(steps int) int {
	n := len(r.Seats)
	if n == 0 {
		return 0
	}
	return ((r.Turn+steps*r.Direction)%n + n) % n
}

func (r *Room) advance(steps int) {
	r.Turn = r.seatAt(steps)
	r.resetIdle()
}

func (r *Room) resetIdle() {
	r.IdleTicks = make([]int, len(r.Seats))
}

// draw pops the next card off the back of the pile.
func (r *Room) draw() (Card, bool) {
	if len(r.Deck) == 0 {
		return "", false
	}
	c := r.Deck[len(r.Deck)-1]
	r.Deck = r.Deck[:len(r.Deck)-1]
	return c, true
}

// refillIfNeeded replaces an exhausted draw pile with a fresh shuffled
// deck. Table history is kept intact rather than recycled; the same
// 108-card multiset is reused on every refill.
func (r *Room) refillIfNeeded(rng *rand.Rand) {
	if len(r.Deck) == 0 {
		r.Deck = NewDeck(rng)
	}
}
