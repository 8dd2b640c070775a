//go:build sqlite_fts5

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/homilyd/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS summaries_fts USING fts5(
			row_id UNINDEXED,
			recording_id UNINDEXED,
			group_key UNINDEXED,
			title,
			description,
			special,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsInsert(ctx context.Context, tx *sql.Tx, id int64, s models.RecordingSummary) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO summaries_fts (row_id, recording_id, group_key, title, description, special) VALUES (?, ?, ?, ?, ?, ?)`,
		id, s.RecordingID, s.GroupKey, s.Title, s.Description, s.SpecialContext)
	if err != nil {
		return fmt.Errorf("store: insert fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 full-text search and returns matching summaries with snippets.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT recording_id,
		       group_key,
		       title,
		       snippet(summaries_fts, 4, '<b>', '</b>', '...', 32)
		FROM summaries_fts
		WHERE summaries_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("store: search: %w", err)
	}
	defer rows.Close()

	out := make([]SearchResult, 0)
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.RecordingID, &r.GroupKey, &r.Title, &r.Snippet); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
