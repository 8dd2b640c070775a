//go:build sqlite_fts5

package store

import (
	"context"
	"strings"
	"testing"
)

func TestFTS5_TableExists(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM summaries_fts`).Scan(&count); err != nil {
		t.Fatalf("summaries_fts table missing: %v", err)
	}
}

func TestFTS5_SearchWithSnippet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	s := row("Mass-1.mp3", "2025-06-15", "Prodigal")
	s.Description = "The father runs to meet the prodigal son."
	if _, err := db.InsertSummary(ctx, s); err != nil {
		t.Fatalf("InsertSummary: %v", err)
	}

	hits, err := db.Search(ctx, "prodigal", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("hits = %d, want 1", len(hits))
	}
	if !strings.Contains(hits[0].Snippet, "<b>") {
		t.Errorf("snippet = %q, want highlight", hits[0].Snippet)
	}
}
