package client

import (
	"os"
	"path/filepath"
	"strings"
)

// The identity cache lets a dropped terminal rejoin its game: the uid
// minted at join time and the chosen nickname are kept as plain files
// under the user's config dir.
const (
	uidFile      = "uno_uid.txt"
	usernameFile = "uno_username.txt"
)

func cacheDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir, err = os.UserHomeDir()
		if err != nil {
			return "", err
		}
	}
	dir = filepath.Join(dir, "uno")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

func readCached(name string) string {
	dir, err := cacheDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func writeCached(name, value string) error {
	dir, err := cacheDir()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name), []byte(value), 0600)
}

// CachedUID returns the identity token from a previous session, if any.
func CachedUID() string { return readCached(uidFile) }

// SaveUID persists the identity token for session resumption.
func SaveUID(uid string) error { return writeCached(uidFile, uid) }

// ClearUID forgets the cached identity, typically once its game ended.
func ClearUID() {
	dir, err := cacheDir()
	if err != nil {
		return
	}
	os.Remove(filepath.Join(dir, uidFile))
}

// CachedUsername returns the nickname from a previous session, if any.
func CachedUsername() string { return readCached(usernameFile) }

// SaveUsername persists the nickname for future sessions.
func SaveUsername(name string) error { return writeCached(usernameFile, name) }
