package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vctt94/bisonbotkit/logging"

	"github.com/vctt94/uno-go/pkg/server"
	"github.com/vctt94/uno-go/pkg/uno"
)

// startTestServer spins up the real HTTP surface backed by a throwaway
// sqlite file.
func startTestServer(t *testing.T) *Client {
	t.Helper()

	database, err := server.NewDatabase(filepath.Join(t.TempDir(), "uno.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	logBackend, err := logging.NewLogBackend(logging.LogConfig{
		DebugLevel:     "error",
		MaxLogFiles:    1,
		MaxBufferLines: 100,
	})
	require.NoError(t, err)
	t.Cleanup(func() { logBackend.Close() })

	srv, err := server.NewServer(server.Config{
		DB:         database,
		LogBackend: logBackend,
		Seed:       42,
	})
	require.NoError(t, err)
	t.Cleanup(srv.Stop)

	httpSrv := httptest.NewServer(srv.Router())
	t.Cleanup(httpSrv.Close)

	return NewClient(Config{ServerURL: httpSrv.URL})
}

func TestClientFullGameFlow(t *testing.T) {
	c := startTestServer(t)
	ctx := context.Background()

	roomID, err := c.CreateRoom(ctx, 2)
	require.NoError(t, err)
	require.Len(t, roomID, 6)

	aliceUID, err := c.JoinRoom(ctx, roomID, "alice")
	require.NoError(t, err)

	snap, err := c.Status(ctx, aliceUID)
	require.NoError(t, err)
	assert.Equal(t, uno.StatusWaiting, snap.GameStatus)

	bobUID, err := c.JoinRoom(ctx, roomID, "bob")
	require.NoError(t, err)

	snap, err = c.Status(ctx, bobUID)
	require.NoError(t, err)
	require.Equal(t, uno.StatusPlaying, snap.GameStatus)
	assert.Len(t, snap.Hand, uno.HandSize)

	// The seat on turn passes voluntarily, drawing one card.
	uids := map[string]string{"alice": aliceUID, "bob": bobUID}
	mover := uids[snap.Players[snap.CurrentIdx]]
	require.NoError(t, c.Play(ctx, mover, string(uno.SkipMarker), ""))

	snap, err = c.Status(ctx, mover)
	require.NoError(t, err)
	assert.Len(t, snap.Hand, uno.HandSize+1)
}

func TestClientRejectionReasons(t *testing.T) {
	c := startTestServer(t)
	ctx := context.Background()

	_, err := c.CreateRoom(ctx, 1)
	require.Error(t, err)
	assert.Equal(t, "Invalid player count", Rejected(err))

	_, err = c.JoinRoom(ctx, "000000", "alice")
	require.Error(t, err)
	assert.Equal(t, "Room not found", Rejected(err))

	_, err = c.Status(ctx, "nobody")
	require.Error(t, err)
	assert.Equal(t, "Invalid uid", Rejected(err))

	err = c.Play(ctx, "nobody", "R5", "")
	require.Error(t, err)
	assert.Equal(t, "Invalid uid", Rejected(err))
}

func TestClientVersionCheck(t *testing.T) {
	c := startTestServer(t)
	ctx := context.Background()

	ok, minVersion, err := c.CheckVersion(ctx, server.MinClientVersion)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, server.MinClientVersion, minVersion)

	ok, _, err = c.CheckVersion(ctx, "2.9.9")
	require.NoError(t, err)
	assert.False(t, ok)
}
