package server

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/vctt94/uno-go/pkg/server/internal/db"
	"github.com/vctt94/uno-go/pkg/uno"
)

// Room size bounds enforced at creation. The client prompt advertises
// 2-8 but the server has always accepted up to 12.
const (
	MinPlayers = 2
	MaxPlayers = 12
)

const roomIDLen = 6

// Validation failures reported to callers. None of them mutates state.
var (
	ErrInvalidIdentity = errors.New("invalid uid")
	ErrRoomNotFound    = errors.New("room not found")
	ErrRoomFull        = errors.New("room is full")
	ErrGameStarted     = errors.New("game has already started")
	ErrInvalidCount    = errors.New("invalid player count")
)

// Config holds configuration for a Server.
type Config struct {
	DB         Database
	LogBackend *logging.LogBackend

	// Seed makes deck shuffles deterministic when nonzero (tests).
	Seed int64

	// BanSecret guards the IP ban admin endpoints.
	BanSecret string

	// TickInterval is the scheduler's tick period (default 1s) and
	// IdleLimit the number of ticks a seat may stall before it is
	// force-drawn and skipped (default 60).
	TickInterval time.Duration
	IdleLimit    int

	// Grace periods before an abandoned or concluded room is purged.
	WaitingGrace  time.Duration
	FinishedGrace time.Duration
}

// Server owns the room registry and the identity maps. Every access to
// them, from request handlers and from the per-room scheduler loops,
// goes through one mutex: critical sections are tiny and the single
// serialization point keeps the play/timeout race trivially ordered.
type Server struct {
	log slog.Logger
	cfg Config
	db  Database

	mu         sync.Mutex
	rooms      map[string]*uno.Room
	names      map[string]string // uid -> display name
	where      map[string]string // uid -> room id
	rng        *rand.Rand
	schedulers map[string]context.CancelFunc

	// Room state saving synchronization
	saveMu      sync.Mutex
	saveMutexes map[string]*sync.Mutex // roomID -> mutex for that room's saves
	saveWg      sync.WaitGroup

	// IP ban list for the HTTP layer.
	banMu  sync.RWMutex
	banned map[string]bool
}

// NewServer creates a new game server and restores any persisted state,
// re-arming the auto-advance scheduler for rooms still in play.
func NewServer(cfg Config) (*Server, error) {
	if cfg.TickInterval == 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.IdleLimit == 0 {
		cfg.IdleLimit = 60
	}
	if cfg.WaitingGrace == 0 {
		cfg.WaitingGrace = 5 * time.Minute
	}
	if cfg.FinishedGrace == 0 {
		cfg.FinishedGrace = 10 * time.Minute
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	s := &Server{
		log:         cfg.LogBackend.Logger("SRVR"),
		cfg:         cfg,
		db:          cfg.DB,
		rooms:       make(map[string]*uno.Room),
		names:       make(map[string]string),
		where:       make(map[string]string),
		rng:         rand.New(rand.NewSource(seed)),
		schedulers:  make(map[string]context.CancelFunc),
		saveMutexes: make(map[string]*sync.Mutex),
		banned:      make(map[string]bool),
	}

	if err := s.loadState(); err != nil {
		s.log.Errorf("Failed to load persisted state: %v", err)
	}

	return s, nil
}

// Stop cancels every scheduler loop and waits for in-flight async saves
// to drain.
func (s *Server) Stop() {
	s.mu.Lock()
	for id, cancel := range s.schedulers {
		cancel()
		delete(s.schedulers, id)
	}
	s.mu.Unlock()
	s.saveWg.Wait()
}

// CreateRoom allocates a fresh waiting room for count players and
// schedules its short-grace cleanup.
func (s *Server) CreateRoom(count int) (string, error) {
	if count < MinPlayers || count > MaxPlayers {
		return "", ErrInvalidCount
	}

	s.mu.Lock()
	id := s.newRoomID()
	s.rooms[id] = uno.NewRoom(count)
	s.mu.Unlock()

	s.saveRoomAsync(id, "room created")
	s.scheduleCleanup(id, s.cfg.WaitingGrace, true)
	s.log.Infof("Room %s created for %d players", id, count)
	return id, nil
}

// JoinRoom admits a player into a waiting room and mints their identity
// token. Filling the last seat atomically shuffles the seat order, deals
// every hand, flips the starting top card and starts the room's
// scheduler.
func (s *Server) JoinRoom(roomID, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return "", ErrRoomNotFound
	}
	if room.Status != uno.StatusWaiting {
		return "", ErrGameStarted
	}
	if room.Full() {
		return "", ErrRoomFull
	}

	uid := uuid.NewString()
	s.names[uid] = username
	s.where[uid] = roomID
	room.AddPlayer(uid)
	if err := s.db.SaveIdentity(&db.Identity{UID: uid, Name: username, RoomID: roomID}); err != nil {
		s.log.Errorf("Failed to persist identity %s: %v", uid, err)
	}

	if room.Full() {
		room.Deal(s.rng)
		s.startSchedulerLocked(roomID)
		s.log.Infof("Room %s is full, game started with %d seats", roomID, len(room.Seats))
	}

	s.saveRoomLocked(roomID, room, "player joined")
	return uid, nil
}

// Play applies a play request: either a card from the caller's hand or
// the voluntary pass marker SK, which draws one card in lieu of playing.
func (s *Server) Play(uid string, card uno.Card, chosen uno.Color) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	roomID, ok := s.where[uid]
	if !ok {
		return ErrInvalidIdentity
	}
	room, ok := s.rooms[roomID]
	if !ok {
		return ErrRoomNotFound
	}

	var err error
	if card == uno.SkipMarker {
		err = room.SkipDraw(uid, s.rng)
	} else {
		err = room.Play(uid, card, chosen, s.rng)
	}
	if err != nil {
		return err
	}

	if room.Status == uno.StatusFinished {
		room.Winner = s.names[uid]
		s.stopSchedulerLocked(roomID)
		s.scheduleCleanup(roomID, s.cfg.FinishedGrace, false)
		s.log.Infof("Room %s finished, winner %q", roomID, room.Winner)
	}

	s.saveRoomLocked(roomID, room, "play")
	return nil
}

// startSchedulerLocked spawns the auto-advance loop for a room. Caller
// must hold s.mu.
func (s *Server) startSchedulerLocked(roomID string) {
	if _, ok := s.schedulers[roomID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.schedulers[roomID] = cancel
	go s.runScheduler(ctx, roomID)
}

// stopSchedulerLocked cancels a room's scheduler. Caller must hold s.mu.
func (s *Server) stopSchedulerLocked(roomID string) {
	if cancel, ok := s.schedulers[roomID]; ok {
		cancel()
		delete(s.schedulers, roomID)
	}
}

// runScheduler ticks once per interval while the room is playing. Each
// tick bumps the current seat's idle counter; at the limit the seat is
// force-drawn one card and the turn advances. The room may vanish or
// finish between ticks, so both are re-checked under the lock.
func (s *Server) runScheduler(ctx context.Context, roomID string) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		s.mu.Lock()
		room, ok := s.rooms[roomID]
		if !ok || room.Status != uno.StatusPlaying {
			delete(s.schedulers, roomID)
			s.mu.Unlock()
			return
		}
		if room.TickIdle() >= s.cfg.IdleLimit {
			stalled := room.Turn
			room.ForceDraw(s.rng)
			s.log.Infof("Seat %d (%s) in room %s timed out, forced draw and skip",
				stalled, s.names[room.Seats[stalled]], roomID)
			s.saveRoomLocked(roomID, room, "timeout advance")
		}
		s.mu.Unlock()
	}
}

// scheduleCleanup purges a room after the grace period. A short grace
// reclaims rooms that never filled (onlyIfWaiting); a long grace
// reclaims finished games so late pollers still see the result.
func (s *Server) scheduleCleanup(roomID string, delay time.Duration, onlyIfWaiting bool) {
	time.AfterFunc(delay, func() {
		s.mu.Lock()
		room, ok := s.rooms[roomID]
		if !ok || (onlyIfWaiting && room.Status != uno.StatusWaiting) {
			s.mu.Unlock()
			return
		}
		uids := append([]string(nil), room.Seats...)
		for _, uid := range uids {
			delete(s.names, uid)
			delete(s.where, uid)
		}
		delete(s.rooms, roomID)
		s.stopSchedulerLocked(roomID)
		s.mu.Unlock()

		for _, uid := range uids {
			if err := s.db.DeleteIdentity(uid); err != nil {
				s.log.Errorf("Failed to delete identity %s: %v", uid, err)
			}
		}
		if err := s.db.DeleteRoomState(roomID); err != nil {
			s.log.Errorf("Failed to delete room state %s: %v", roomID, err)
		}
		s.log.Infof("Cleaned up room %s", roomID)
	})
}

// saveRoomLocked snapshots a room's state while s.mu is held and hands
// the write to a background goroutine, serialized per room so saves
// cannot land out of order.
func (s *Server) saveRoomLocked(roomID string, room *uno.Room, reason string) {
	state, err := json.Marshal(room)
	if err != nil {
		s.log.Errorf("Failed to marshal room %s: %v", roomID, err)
		return
	}

	s.saveMu.Lock()
	saveMutex, exists := s.saveMutexes[roomID]
	if !exists {
		saveMutex = &sync.Mutex{}
		s.saveMutexes[roomID] = saveMutex
	}
	s.saveMu.Unlock()

	s.saveWg.Add(1)
	go func() {
		defer s.saveWg.Done()
		saveMutex.Lock()
		defer saveMutex.Unlock()

		if err := s.db.SaveRoomState(roomID, state); err != nil {
			s.log.Errorf("Failed to save room state for %s (%s): %v", roomID, reason, err)
		} else {
			s.log.Debugf("Saved room state for %s (trigger: %s)", roomID, reason)
		}
	}()
}

// saveRoomAsync is saveRoomLocked for callers not holding s.mu.
func (s *Server) saveRoomAsync(roomID, reason string) {
	s.mu.Lock()
	room, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.saveRoomLocked(roomID, room, reason)
	s.mu.Unlock()
}

// loadState restores the registry from the database at startup and
// re-arms schedulers and cleanup timers.
func (s *Server) loadState() error {
	states, err := s.db.LoadRoomStates()
	if err != nil {
		return err
	}
	idents, err := s.db.LoadIdentities()
	if err != nil {
		return err
	}

	s.mu.Lock()
	for id, state := range states {
		room := uno.NewRoom(0)
		if err := json.Unmarshal(state, room); err != nil {
			s.log.Errorf("Failed to restore room %s: %v", id, err)
			continue
		}
		s.rooms[id] = room
	}
	for _, ident := range idents {
		s.names[ident.UID] = ident.Name
		s.where[ident.UID] = ident.RoomID
	}

	restarted := 0
	for id, room := range s.rooms {
		switch room.Status {
		case uno.StatusPlaying:
			s.startSchedulerLocked(id)
			restarted++
		case uno.StatusWaiting:
			s.scheduleCleanup(id, s.cfg.WaitingGrace, true)
		case uno.StatusFinished:
			s.scheduleCleanup(id, s.cfg.FinishedGrace, false)
		}
	}
	loaded := len(s.rooms)
	s.mu.Unlock()

	if loaded > 0 {
		s.log.Infof("Restored %d rooms (%d playing) and %d identities", loaded, restarted, len(idents))
	}
	return nil
}

// newRoomID mints an unused numeric room id. Caller must hold s.mu.
func (s *Server) newRoomID() string {
	digits := []byte("0123456789")
	for {
		id := make([]byte, roomIDLen)
		for i := range id {
			id[i] = digits[s.rng.Intn(len(digits))]
		}
		if _, taken := s.rooms[string(id)]; !taken {
			return string(id)
		}
	}
}
