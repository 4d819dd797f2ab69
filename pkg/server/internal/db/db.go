package db

import (
	"database/sql"
	"fmt"
)

// Identity binds a minted player token to a display name and the room it
// belongs to.
type Identity struct {
	UID    string
	Name   string
	RoomID string
}

// DB represents the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
func NewDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create tables if they don't exist
	if err := createTables(db); err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// createTables creates the necessary database tables
func createTables(db *sql.DB) error {
	// Room state is persisted as the registry's own JSON encoding so the
	// schema does not chase the game state shape.
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rooms (
			id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS identities (
			uid TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			room_id TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return err
	}

	return nil
}

// SaveRoomState upserts a room's serialized state.
func (db *DB) SaveRoomState(roomID string, state []byte) error {
	_, err := db.Exec(`
		INSERT INTO rooms (id, state, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = CURRENT_TIMESTAMP
	`, roomID, string(state))
	if err != nil {
		return fmt.Errorf("failed to save room state: %v", err)
	}
	return nil
}

// DeleteRoomState removes a room's persisted state.
func (db *DB) DeleteRoomState(roomID string) error {
	_, err := db.Exec("DELETE FROM rooms WHERE id = ?", roomID)
	return err
}

// LoadRoomStates returns the serialized state of every persisted room.
func (db *DB) LoadRoomStates() (map[string][]byte, error) {
	rows, err := db.Query("SELECT id, state FROM rooms")
	if err != nil {
		return nil, fmt.Errorf("failed to load room states: %v", err)
	}
	defer rows.Close()

	states := make(map[string][]byte)
	for rows.Next() {
		var id, state string
		if err := rows.Scan(&id, &state); err != nil {
			return nil, err
		}
		states[id] = []byte(state)
	}
	return states, rows.Err()
}

// SaveIdentity upserts an identity binding.
func (db *DB) SaveIdentity(ident *Identity) error {
	_, err := db.Exec(`
		INSERT INTO identities (uid, name, room_id)
		VALUES (?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET name = excluded.name, room_id = excluded.room_id
	`, ident.UID, ident.Name, ident.RoomID)
	if err != nil {
		return fmt.Errorf("failed to save identity: %v", err)
	}
	return nil
}

// DeleteIdentity removes an identity binding.
func (db *DB) DeleteIdentity(uid string) error {
	_, err := db.Exec("DELETE FROM identities WHERE uid = ?", uid)
	return err
}

// LoadIdentities returns every persisted identity binding.
func (db *DB) LoadIdentities() ([]*Identity, error) {
	rows, err := db.Query("SELECT uid, name, room_id FROM identities")
	if err != nil {
		return nil, fmt.Errorf("failed to load identities: %v", err)
	}
	defer rows.Close()

	var idents []*Identity
	for rows.Next() {
		ident := &Identity{}
		if err := rows.Scan(&ident.UID, &ident.Name, &ident.RoomID); err != nil {
			return nil, err
		}
		idents = append(idents, ident)
	}
	return idents, rows.Err()
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
