// Package testutil provides shared test helpers for libraries, databases and alerts.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/homilyd/internal/storage"
	"github.com/starford/homilyd/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "homilyd-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestLibrary creates a temporary library directory with the default prefixes.
func TestLibrary(t *testing.T) (string, *storage.Library) {
	t.Helper()
	dir := t.TempDir()
	lib, err := storage.NewLibrary(dir, "Mass-", "Homily-")
	if err != nil {
		t.Fatal(err)
	}
	return dir, lib
}

// WriteFile writes content to name inside dir and sets its modification time.
func WriteFile(t *testing.T, dir, name, content string, mod time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if !mod.IsZero() {
		if err := os.Chtimes(p, mod, mod); err != nil {
			t.Fatal(err)
		}
	}
	return p
}

// Alert is one notification captured by Notifier.
type Alert struct {
	Subject string
	Message string
}

// Notifier records alerts in memory.
type Notifier struct {
	mu     sync.Mutex
	alerts []Alert
}

// Notify implements alert.Notifier.
func (n *Notifier) Notify(_ context.Context, subject, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, Alert{Subject: subject, Message: message})
}

// Alerts returns a copy of the recorded alerts.
func (n *Notifier) Alerts() []Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Alert(nil), n.alerts...)
}
