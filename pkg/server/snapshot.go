package server

import (
	"github.com/vctt94/uno-go/pkg/uno"
)

// GameSnapshot is the immutable per-caller view returned to pollers. It
// carries only the caller's own hand; other seats are exposed as hand
// counts. Revision changes on every state mutation so clients can skip
// redraws without hashing the payload.
type GameSnapshot struct {
	Count        int        `json:"count"`
	Players      []string   `json:"players"`
	Hand         []uno.Card `json:"hand"`
	CurrentIdx   int        `json:"current_idx"`
	NextIdx      int        `json:"next_idx"`
	MyIdx        int        `json:"my_idx"`
	Top          uno.Card   `json:"top"`
	ChosenColor  uno.Color  `json:"chosen_color"`
	TableHistory []uno.Card `json:"table_history"`
	GameStatus   string     `json:"game_status"`
	Winner       string     `json:"winner,omitempty"`
	HandCount    []int      `json:"hand_count"`
	Direction    int        `json:"direction"`
	Revision     uint64     `json:"revision"`
}

// Status collects a snapshot of the room the identity belongs to. The
// copies are taken under the registry lock; marshaling happens outside.
func (s *Server) Status(uid string) (*GameSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.where[uid]
	if !ok {
		return nil, ErrInvalidIdentity
	}
	room, ok := s.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}

	snap := &GameSnapshot{
		Count:        room.Count,
		Players:      make([]string, len(room.Seats)),
		Hand:         append([]uno.Card(nil), room.Hands[uid]...),
		CurrentIdx:   room.Turn,
		NextIdx:      room.NextSeat(),
		MyIdx:        room.SeatOf(uid),
		Top:          room.Top,
		ChosenColor:  room.BoundColor,
		TableHistory: append([]uno.Card(nil), room.History...),
		GameStatus:   room.Status,
		Winner:       room.Winner,
		HandCount:    make([]int, len(room.Seats)),
		Direction:    room.Direction,
		Revision:     room.Revision,
	}
	for i, id := range room.Seats {
		name, ok := s.names[id]
		if !ok {
			name = "Joining..."
		}
		snap.Players[i] = name
		snap.HandCount[i] = len(room.Hands[id])
	}
	return snap, nil
}
