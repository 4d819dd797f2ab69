package server

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/vctt94/uno-go/pkg/server/internal/db"
	"github.com/vctt94/uno-go/pkg/uno"
)

// InMemoryDB implements Database interface for testing
type InMemoryDB struct {
	mu         sync.RWMutex
	roomStates map[string][]byte
	identities map[string]*db.Identity
}

// NewInMemoryDB creates a new in-memory database for testing
func NewInMemoryDB() *InMemoryDB {
	return &InMemoryDB{
		roomStates: make(map[string][]byte),
		identities: make(map[string]*db.Identity),
	}
}

func (m *InMemoryDB) SaveRoomState(roomID string, state []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roomStates[roomID] = append([]byte(nil), state...)
	return nil
}

func (m *InMemoryDB) DeleteRoomState(roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roomStates, roomID)
	return nil
}

func (m *InMemoryDB) LoadRoomStates() (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte, len(m.roomStates))
	for id, state := range m.roomStates {
		out[id] = append([]byte(nil), state...)
	}
	return out, nil
}

func (m *InMemoryDB) SaveIdentity(ident *db.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ident
	m.identities[ident.UID] = &cp
	return nil
}

func (m *InMemoryDB) DeleteIdentity(uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.identities, uid)
	return nil
}

func (m *InMemoryDB) LoadIdentities() ([]*db.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*db.Identity, 0, len(m.identities))
	for _, ident := range m.identities {
		cp := *ident
		out = append(out, &cp)
	}
	return out, nil
}

func (m *InMemoryDB) Close() error { return nil }

// createTestLogBackend creates a LogBackend for testing
func createTestLogBackend() *logging.LogBackend {
	logBackend, err := logging.NewLogBackend(logging.LogConfig{
		LogFile:        "",      // Empty for testing - will use stdout
		DebugLevel:     "error", // Set to error to reduce test output
		MaxLogFiles:    1,
		MaxBufferLines: 100,
	})
	if err != nil {
		return &logging.LogBackend{}
	}
	return logBackend
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	if cfg.DB == nil {
		cfg.DB = NewInMemoryDB()
	}
	if cfg.LogBackend == nil {
		logBackend := createTestLogBackend()
		t.Cleanup(func() { logBackend.Close() })
		cfg.LogBackend = logBackend
	}
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	s, err := NewServer(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Stop)
	return s
}

// newBareServer returns a minimal Server for tests that hand-craft room
// state instead of going through CreateRoom/JoinRoom.
func newBareServer() *Server {
	return &Server{
		log: slog.Disabled,
		cfg: Config{
			TickInterval:  time.Second,
			IdleLimit:     60,
			WaitingGrace:  time.Minute,
			FinishedGrace: time.Minute,
		},
		db:          NewInMemoryDB(),
		rooms:       make(map[string]*uno.Room),
		names:       make(map[string]string),
		where:       make(map[string]string),
		rng:         rand.New(rand.NewSource(1)),
		schedulers:  make(map[string]context.CancelFunc),
		saveMutexes: make(map[string]*sync.Mutex),
		banned:      make(map[string]bool),
	}
}

func TestCreateRoomBounds(t *testing.T) {
	s := newTestServer(t, Config{})

	id, err := s.CreateRoom(4)
	require.NoError(t, err)
	assert.Len(t, id, roomIDLen)

	_, err = s.CreateRoom(1)
	assert.ErrorIs(t, err, ErrInvalidCount)
	_, err = s.CreateRoom(13)
	assert.ErrorIs(t, err, ErrInvalidCount)

	id2, err := s.CreateRoom(12)
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestJoinRoomStartsWhenFull(t *testing.T) {
	s := newTestServer(t, Config{})

	id, err := s.CreateRoom(2)
	require.NoError(t, err)

	_, err = s.JoinRoom("000000", "ghost")
	assert.ErrorIs(t, err, ErrRoomNotFound)

	aliceUID, err := s.JoinRoom(id, "alice")
	require.NoError(t, err)

	snap, err := s.Status(aliceUID)
	require.NoError(t, err)
	assert.Equal(t, uno.StatusWaiting, snap.GameStatus)
	assert.Empty(t, snap.Hand)

	bobUID, err := s.JoinRoom(id, "bob")
	require.NoError(t, err)

	// Room filled: game is dealt and running.
	snap, err = s.Status(bobUID)
	require.NoError(t, err)
	assert.Equal(t, uno.StatusPlaying, snap.GameStatus)
	assert.Len(t, snap.Hand, uno.HandSize)
	assert.Equal(t, []int{7, 7}, snap.HandCount)
	assert.ElementsMatch(t, []string{"alice", "bob"}, snap.Players)
	assert.True(t, snap.Top.IsNumber(), "starting top must be a number card")
	assert.Equal(t, 1, snap.Direction)

	_, err = s.JoinRoom(id, "carol")
	assert.ErrorIs(t, err, ErrGameStarted)
}

func TestJoinRoomFull(t *testing.T) {
	s := newBareServer()
	room := uno.NewRoom(2)
	room.AddPlayer("u1")
	room.AddPlayer("u2")
	s.rooms["123456"] = room

	_, err := s.JoinRoom("123456", "late")
	assert.ErrorIs(t, err, ErrRoomFull)
}

func TestPlayValidation(t *testing.T) {
	s := newTestServer(t, Config{})

	id, err := s.CreateRoom(2)
	require.NoError(t, err)
	uids := make(map[string]string)
	for _, name := range []string{"alice", "bob"} {
		uid, err := s.JoinRoom(id, name)
		require.NoError(t, err)
		uids[name] = uid
	}

	err = s.Play("bogus-uid", uno.SkipMarker, uno.NoColor)
	assert.ErrorIs(t, err, ErrInvalidIdentity)

	// Seat order is shuffled at deal time, so look up whose turn it is.
	snap, err := s.Status(uids["alice"])
	require.NoError(t, err)
	mover := uids[snap.Players[snap.CurrentIdx]]
	waiter := uids[snap.Players[(snap.CurrentIdx+1)%2]]

	err = s.Play(waiter, uno.SkipMarker, uno.NoColor)
	assert.ErrorIs(t, err, uno.ErrNotYourTurn)
	err = s.Play(mover, uno.Card("R5"), uno.NoColor)
	assert.Error(t, err) // either not held or not matching, never silent
}

func TestPlaySkipDrawAdvances(t *testing.T) {
	s := newTestServer(t, Config{})

	id, err := s.CreateRoom(2)
	require.NoError(t, err)
	uids := make(map[string]string)
	for _, name := range []string{"alice", "bob"} {
		uid, err := s.JoinRoom(id, name)
		require.NoError(t, err)
		uids[name] = uid
	}

	before, err := s.Status(uids["alice"])
	require.NoError(t, err)
	mover := uids[before.Players[before.CurrentIdx]]

	require.NoError(t, s.Play(mover, uno.SkipMarker, uno.NoColor))

	after, err := s.Status(mover)
	require.NoError(t, err)
	assert.NotEqual(t, before.CurrentIdx, after.CurrentIdx)
	assert.Len(t, after.Hand, uno.HandSize+1)
	assert.Equal(t, uno.SkipMarker, after.TableHistory[len(after.TableHistory)-1])
	assert.Greater(t, after.Revision, before.Revision)
}

func TestPlayWinSetsWinnerName(t *testing.T) {
	s := newBareServer()

	room := uno.NewRoom(2)
	room.Status = uno.StatusPlaying
	room.Seats = []string{"u1", "u2"}
	room.Hands = map[string][]uno.Card{
		"u1": {"R5"},
		"u2": {"G2", "B8"},
	}
	room.Deck = uno.NewDeck(s.rng)
	room.Top = "R3"
	room.History = []uno.Card{"R3"}
	room.Turn = 0
	room.Direction = 1
	room.IdleTicks = []int{0, 0}
	s.rooms["777777"] = room
	s.names["u1"] = "alice"
	s.names["u2"] = "bob"
	s.where["u1"] = "777777"
	s.where["u2"] = "777777"

	require.NoError(t, s.Play("u1", "R5", uno.NoColor))
	s.Stop()

	snap, err := s.Status("u2")
	require.NoError(t, err)
	assert.Equal(t, uno.StatusFinished, snap.GameStatus)
	assert.Equal(t, "alice", snap.Winner)

	err = s.Play("u2", "G2", uno.NoColor)
	assert.ErrorIs(t, err, uno.ErrNotPlaying)
}

func TestSchedulerForceDraw(t *testing.T) {
	s := newTestServer(t, Config{
		TickInterval: 5 * time.Millisecond,
		IdleLimit:    3,
	})

	id, err := s.CreateRoom(2)
	require.NoError(t, err)
	var uid string
	for i, name := range []string{"alice", "bob"} {
		u, err := s.JoinRoom(id, name)
		require.NoError(t, err)
		if i == 0 {
			uid = u
		}
	}

	before, err := s.Status(uid)
	require.NoError(t, err)

	// The stalled seat must be force-drawn a card, leave a timeout
	// marker in the history and lose its turn.
	require.Eventually(t, func() bool {
		snap, err := s.Status(uid)
		if err != nil {
			return false
		}
		return len(snap.TableHistory) > 0 &&
			snap.TableHistory[len(snap.TableHistory)-1] == uno.TimeoutMarker
	}, 2*time.Second, 5*time.Millisecond)

	// Further timeouts may land while we look, so the stalled seat has
	// at least one extra card.
	after, err := s.Status(uid)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.HandCount[before.CurrentIdx], uno.HandSize+1)
}

func TestPersistenceAcrossRestart(t *testing.T) {
	memDB := NewInMemoryDB()
	logBackend := createTestLogBackend()
	defer logBackend.Close()

	s1, err := NewServer(Config{DB: memDB, LogBackend: logBackend, Seed: 7})
	require.NoError(t, err)

	id, err := s1.CreateRoom(2)
	require.NoError(t, err)
	aliceUID, err := s1.JoinRoom(id, "alice")
	require.NoError(t, err)
	_, err = s1.JoinRoom(id, "bob")
	require.NoError(t, err)

	before, err := s1.Status(aliceUID)
	require.NoError(t, err)
	s1.Stop()

	// A fresh process restores rooms and identities from the database.
	s2, err := NewServer(Config{DB: memDB, LogBackend: logBackend, Seed: 8})
	require.NoError(t, err)
	defer s2.Stop()

	after, err := s2.Status(aliceUID)
	require.NoError(t, err)
	assert.Equal(t, uno.StatusPlaying, after.GameStatus)
	assert.Equal(t, before.Hand, after.Hand)
	assert.Equal(t, before.Top, after.Top)
	assert.Equal(t, before.Revision, after.Revision)
	assert.Equal(t, before.Players, after.Players)
}

func TestCleanupPurgesWaitingRoom(t *testing.T) {
	s := newTestServer(t, Config{
		WaitingGrace: 10 * time.Millisecond,
	})

	id, err := s.CreateRoom(3)
	require.NoError(t, err)
	uid, err := s.JoinRoom(id, "alice")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, err := s.Status(uid)
		return err != nil
	}, 2*time.Second, 5*time.Millisecond)

	_, err = s.JoinRoom(id, "bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestCleanupSparesActiveRoom(t *testing.T) {
	s := newTestServer(t, Config{
		WaitingGrace: 10 * time.Millisecond,
	})

	id, err := s.CreateRoom(2)
	require.NoError(t, err)
	uid, err := s.JoinRoom(id, "alice")
	require.NoError(t, err)
	_, err = s.JoinRoom(id, "bob")
	require.NoError(t, err)

	// The short grace only reclaims rooms that never filled.
	time.Sleep(50 * time.Millisecond)
	snap, err := s.Status(uid)
	require.NoError(t, err)
	assert.Equal(t, uno.StatusPlaying, snap.GameStatus)
}

func TestRoomIDsAreUnique(t *testing.T) {
	s := newTestServer(t, Config{})

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := s.CreateRoom(2)
		require.NoError(t, err, fmt.Sprintf("room %d", i))
		assert.False(t, seen[id])
		seen[id] = true
	}
}
