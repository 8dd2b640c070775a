package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/models"
)

const summaryColumns = `id, recording_id, group_key, title, description, special_context,
	liturgical_day, liturgical_year_cycle, recorded_at, processed_at`

// InsertSummary stores a new summary row and its search entry. Summaries are
// never updated; re-analysis inserts another row.
func (db *DB) InsertSummary(ctx context.Context, s models.RecordingSummary) (int64, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.ExecContext(ctx, `
		INSERT INTO recordings (recording_id, group_key, title, description, special_context,
			liturgical_day, liturgical_year_cycle, recorded_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.RecordingID, s.GroupKey, s.Title, s.Description, s.SpecialContext,
		s.LiturgicalDay, s.LiturgicalYearCycle, s.RecordedAt.UTC(), utc(s.ProcessedAt))
	if err != nil {
		return 0, fmt.Errorf("store: insert summary: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: insert summary id: %w", err)
	}

	if err := ftsInsert(ctx, tx, id, s); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: commit: %w", err)
	}
	return id, nil
}

// SummariesByGroupKey returns the rows for key in insertion order.
func (db *DB) SummariesByGroupKey(ctx context.Context, key string) ([]models.RecordingSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+summaryColumns+` FROM recordings WHERE group_key = ? ORDER BY id`, key)
	if err != nil {
		return nil, fmt.Errorf("store: summaries by key: %w", err)
	}
	defer rows.Close()

	out := make([]models.RecordingSummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DistinctGroupKeys returns every group key, sorted.
func (db *DB) DistinctGroupKeys(ctx context.Context) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT DISTINCT group_key FROM recordings ORDER BY group_key`)
	if err != nil {
		return nil, fmt.Errorf("store: distinct keys: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// HasComparisonRecord reports whether key has been marked compared.
func (db *DB) HasComparisonRecord(ctx context.Context, key string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM compared_groups WHERE group_key = ?`, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: has comparison: %w", err)
	}
	return n > 0, nil
}

// MarkCompared records key as evaluated. Marking twice keeps the first record.
func (db *DB) MarkCompared(ctx context.Context, key string, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO compared_groups (group_key, compared_at) VALUES (?, ?)`, key, utc(at))
	if err != nil {
		return fmt.Errorf("store: mark compared: %w", err)
	}
	return nil
}

// ComparisonRecord returns the record for key, or apperr.ErrNotFound.
func (db *DB) ComparisonRecord(ctx context.Context, key string) (*models.ComparisonRecord, error) {
	rec := &models.ComparisonRecord{GroupKey: key}
	err := db.conn.QueryRowContext(ctx,
		`SELECT compared_at FROM compared_groups WHERE group_key = ?`, key).Scan(&rec.ComparedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: comparison record: %w", err)
	}
	return rec, nil
}

// HasRecording reports whether any summary exists for recordingID.
func (db *DB) HasRecording(ctx context.Context, recordingID string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM recordings WHERE recording_id = ?`, recordingID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("store: has recording: %w", err)
	}
	return n > 0, nil
}

// LatestSummary returns the newest summary for recordingID, or apperr.ErrNotFound.
func (db *DB) LatestSummary(ctx context.Context, recordingID string) (*models.RecordingSummary, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM recordings WHERE recording_id = ? ORDER BY id DESC LIMIT 1`, recordingID)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListGroups returns weekend groups, newest key first, with the total count.
func (db *DB) ListGroups(ctx context.Context, limit, offset int) ([]models.WeekendGroup, int, error) {
	if limit <= 0 {
		limit = 50
	}

	var total int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT count(DISTINCT group_key) FROM recordings`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("store: count groups: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT r.group_key, count(*), c.group_key IS NOT NULL
		FROM recordings r
		LEFT JOIN compared_groups c ON c.group_key = r.group_key
		GROUP BY r.group_key
		ORDER BY r.group_key DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: list groups: %w", err)
	}
	defer rows.Close()

	out := make([]models.WeekendGroup, 0)
	for rows.Next() {
		var g models.WeekendGroup
		if err := rows.Scan(&g.GroupKey, &g.Count, &g.Compared); err != nil {
			return nil, 0, err
		}
		out = append(out, g)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (models.RecordingSummary, error) {
	var s models.RecordingSummary
	err := sc.Scan(&s.ID, &s.RecordingID, &s.GroupKey, &s.Title, &s.Description, &s.SpecialContext,
		&s.LiturgicalDay, &s.LiturgicalYearCycle, &s.RecordedAt, &s.ProcessedAt)
	return s, err
}
