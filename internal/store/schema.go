// Package store is the SQLite-backed structured store for recording
// summaries and weekend comparison records, with optional FTS5 search.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS recordings (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	recording_id          TEXT NOT NULL,
	group_key             TEXT NOT NULL,
	title                 TEXT NOT NULL DEFAULT '',
	description           TEXT NOT NULL DEFAULT '',
	special_context       TEXT NOT NULL DEFAULT '',
	liturgical_day        TEXT NOT NULL DEFAULT '',
	liturgical_year_cycle TEXT NOT NULL DEFAULT '',
	recorded_at           DATETIME NOT NULL,
	processed_at          DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_recordings_group_key ON recordings(group_key);
CREATE INDEX IF NOT EXISTS idx_recordings_recording_id ON recordings(recording_id);

CREATE TABLE IF NOT EXISTS compared_groups (
	group_key   TEXT PRIMARY KEY,
	compared_at DATETIME NOT NULL
);
`

// DB wraps a sql.DB with store operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(coreSchemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply core schema: %w", err)
	}
	if err := initFTS(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply fts schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
