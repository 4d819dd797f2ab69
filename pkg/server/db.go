package server

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vctt94/uno-go/pkg/server/internal/db"
)

// Database defines the interface for registry persistence. The whole
// room table and the identity maps are periodically flushed through it
// and reloaded at process start so in-flight games survive a restart.
type Database interface {
	// Room state, stored as an opaque JSON blob per room.
	SaveRoomState(roomID string, state []byte) error
	DeleteRoomState(roomID string) error
	LoadRoomStates() (map[string][]byte, error)

	// Identity bindings (uid -> display name, uid -> room).
	SaveIdentity(ident *db.Identity) error
	DeleteIdentity(uid string) error
	LoadIdentities() ([]*db.Identity, error)

	// Close closes the database connection
	Close() error
}

// NewDatabase creates a new database connection
func NewDatabase(dbPath string) (Database, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %v", err)
	}

	return db.NewDB(dbPath)
}
