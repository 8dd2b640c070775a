package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "homilyd-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func row(id, key, title string) models.RecordingSummary {
	return models.RecordingSummary{
		RecordingID:    id,
		GroupKey:       key,
		Title:          title,
		Description:    "A homily about " + title,
		SpecialContext: "None",
		RecordedAt:     time.Date(2025, 6, 14, 16, 0, 0, 0, time.UTC),
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM recordings`).Scan(&count); err != nil {
		t.Fatalf("recordings table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM compared_groups`).Scan(&count); err != nil {
		t.Fatalf("compared_groups table missing: %v", err)
	}
}

func TestInsertAndSummariesByGroupKey(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	for _, s := range []models.RecordingSummary{
		row("Mass-1.mp3", "2025-06-15", "Mercy"),
		row("Mass-2.mp3", "2025-06-15", "Mercy again"),
		row("Mass-3.mp3", "2025-06-08", "Pentecost"),
	} {
		if _, err := db.InsertSummary(ctx, s); err != nil {
			t.Fatalf("InsertSummary: %v", err)
		}
	}

	got, err := db.SummariesByGroupKey(ctx, "2025-06-15")
	if err != nil {
		t.Fatalf("SummariesByGroupKey: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].RecordingID != "Mass-1.mp3" || got[1].RecordingID != "Mass-2.mp3" {
		t.Errorf("order = %q, %q", got[0].RecordingID, got[1].RecordingID)
	}
	if !got[0].RecordedAt.Equal(time.Date(2025, 6, 14, 16, 0, 0, 0, time.UTC)) {
		t.Errorf("recorded_at = %v", got[0].RecordedAt)
	}
	if got[0].ProcessedAt.IsZero() {
		t.Error("processed_at not set")
	}

	keys, err := db.DistinctGroupKeys(ctx)
	if err != nil {
		t.Fatalf("DistinctGroupKeys: %v", err)
	}
	if len(keys) != 2 || keys[0] != "2025-06-08" || keys[1] != "2025-06-15" {
		t.Errorf("keys = %v", keys)
	}
}

func TestReanalysisInsertsNewRow(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if _, err := db.InsertSummary(ctx, row("Mass-1.mp3", "2025-06-15", "First")); err != nil {
		t.Fatal(err)
	}
	if _, err := db.InsertSummary(ctx, row("Mass-1.mp3", "2025-06-15", "Second")); err != nil {
		t.Fatal(err)
	}

	latest, err := db.LatestSummary(ctx, "Mass-1.mp3")
	if err != nil {
		t.Fatalf("LatestSummary: %v", err)
	}
	if latest.Title != "Second" {
		t.Errorf("title = %q, want %q", latest.Title, "Second")
	}

	ok, err := db.HasRecording(ctx, "Mass-1.mp3")
	if err != nil || !ok {
		t.Errorf("HasRecording = %v, %v", ok, err)
	}
	if _, err := db.LatestSummary(ctx, "Mass-9.mp3"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing recording err = %v, want ErrNotFound", err)
	}
}

func TestMarkComparedIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first := time.Date(2025, 6, 15, 21, 5, 0, 0, time.UTC)
	if err := db.MarkCompared(ctx, "2025-06-15", first); err != nil {
		t.Fatalf("MarkCompared: %v", err)
	}
	if err := db.MarkCompared(ctx, "2025-06-15", first.Add(time.Hour)); err != nil {
		t.Fatalf("MarkCompared again: %v", err)
	}

	ok, err := db.HasComparisonRecord(ctx, "2025-06-15")
	if err != nil || !ok {
		t.Fatalf("HasComparisonRecord = %v, %v", ok, err)
	}

	var n int
	if err := db.conn.QueryRow(`SELECT count(*) FROM compared_groups`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("records = %d, want 1", n)
	}

	rec, err := db.ComparisonRecord(ctx, "2025-06-15")
	if err != nil {
		t.Fatalf("ComparisonRecord: %v", err)
	}
	if !rec.ComparedAt.Equal(first) {
		t.Errorf("compared_at = %v, want %v", rec.ComparedAt, first)
	}
	if _, err := db.ComparisonRecord(ctx, "2025-06-22"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing record err = %v", err)
	}
}

func TestListGroups(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, _ = db.InsertSummary(ctx, row("a", "2025-06-15", "x"))
	_, _ = db.InsertSummary(ctx, row("b", "2025-06-15", "y"))
	_, _ = db.InsertSummary(ctx, row("c", "2025-06-08", "z"))
	_ = db.MarkCompared(ctx, "2025-06-08", time.Now())

	groups, total, err := db.ListGroups(ctx, 10, 0)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if total != 2 || len(groups) != 2 {
		t.Fatalf("total = %d, len = %d", total, len(groups))
	}
	if groups[0].GroupKey != "2025-06-15" || groups[0].Count != 2 || groups[0].Compared {
		t.Errorf("groups[0] = %+v", groups[0])
	}
	if groups[1].GroupKey != "2025-06-08" || !groups[1].Compared {
		t.Errorf("groups[1] = %+v", groups[1])
	}

	page, _, err := db.ListGroups(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 || page[0].GroupKey != "2025-06-08" {
		t.Errorf("page = %+v", page)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, _ = db.InsertSummary(ctx, row("a", "2025-06-15", "Forgiveness"))
	_, _ = db.InsertSummary(ctx, row("b", "2025-06-15", "Stewardship"))

	hits, err := db.Search(ctx, "Forgiveness", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].RecordingID != "a" {
		t.Errorf("hits = %+v", hits)
	}
}
