// Package testutil provides shared test helpers for setting up session stores and upload directories.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/aalifyx/internal/session"
	"github.com/starford/aalifyx/internal/storage"
)

// SessionStore opens a SQLite session store in a temp directory that is
// closed when the test ends.
func SessionStore(t *testing.T) *session.SQLiteStore {
	t.Helper()
	store, err := session.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// SessionManager returns a Manager over a fresh SessionStore with a one hour TTL.
func SessionManager(t *testing.T) *session.Manager {
	t.Helper()
	return session.NewManager(SessionStore(t), time.Hour, nil)
}

// Uploads creates a temporary upload directory with a storage.Provider.
func Uploads(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}
