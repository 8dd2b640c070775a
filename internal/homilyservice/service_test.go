package homilyservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/boundary"
	"github.com/starford/homilyd/internal/grouping"
	"github.com/starford/homilyd/internal/models"
	"github.com/starford/homilyd/internal/testutil"
)

const scenarioA = "00:00:05.000 --> 00:00:07.000\nThe Gospel of the Lord.\n\n00:00:08.000 --> 00:00:20.000\nBrothers and sisters...\n\n00:00:21.000 --> 00:00:25.000\nLet us offer our prayers.\n"

type stubInferrer struct{ answer string }

func (s stubInferrer) InferStart(context.Context, string) (string, error) { return s.answer, nil }

func newService(t *testing.T) (*Service, string) {
	t.Helper()
	db := testutil.TestDB(t)
	dir, lib := testutil.TestLibrary(t)
	svc := NewService(Deps{
		Store:    db,
		Library:  lib,
		Detector: boundary.NewDetector(boundary.DefaultConfig()),
		Inferrer: stubInferrer{answer: "00:00:08.000"},
		Rule:     grouping.DefaultRule(time.UTC),
	}, Settings{})

	ctx := context.Background()
	for _, id := range []string{"Mass-a.mp3", "Mass-b.mp3"} {
		if _, err := db.InsertSummary(ctx, models.RecordingSummary{
			RecordingID: id, GroupKey: "2025-06-15", Title: "T " + id, RecordedAt: time.Now(),
		}); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.MarkCompared(ctx, "2025-06-15", time.Date(2025, 6, 15, 21, 30, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}
	return svc, dir
}

func TestWeekend(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	w, err := svc.Weekend(ctx, "2025-06-15")
	if err != nil {
		t.Fatalf("Weekend: %v", err)
	}
	if len(w.Summaries) != 2 || !w.Compared || w.ComparedAt == nil {
		t.Errorf("weekend = %+v", w)
	}
	if !w.Deadline.Equal(time.Date(2025, 6, 15, 21, 0, 0, 0, time.UTC)) {
		t.Errorf("deadline = %v", w.Deadline)
	}

	if _, err := svc.Weekend(ctx, "2025-06-22"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("empty weekend err = %v, want ErrNotFound", err)
	}
	if _, err := svc.Weekend(ctx, "yesterday"); !errors.Is(err, apperr.ErrInvalidGroupKey) {
		t.Errorf("bad key err = %v, want ErrInvalidGroupKey", err)
	}
}

func TestDetect(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Detect(ctx, []byte(scenarioA), false)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if res.Window.Start != 8 || res.Window.End != 21 || res.Window.Source != models.SourceHeuristic {
		t.Errorf("window = %+v", res.Window)
	}
	if res.Verdict != boundary.VerdictSuspicious || res.Cues != 3 {
		t.Errorf("result = %+v", res)
	}

	noGospel := []byte("00:00:08.000 --> 00:00:20.000\nBrothers and sisters...\n")
	if _, err := svc.Detect(ctx, noGospel, false); !errors.Is(err, apperr.ErrBoundaryNotFound) {
		t.Errorf("without fallback err = %v, want ErrBoundaryNotFound", err)
	}
	res, err = svc.Detect(ctx, noGospel, true)
	if err != nil {
		t.Fatalf("Detect with fallback: %v", err)
	}
	if res.Window.Source != models.SourceFallback {
		t.Errorf("source = %q, want fallback", res.Window.Source)
	}
}

func TestRecordingsAndUpload(t *testing.T) {
	svc, dir := newService(t)
	ctx := context.Background()
	testutil.WriteFile(t, dir, "Mass-a.mp3", "x", time.Now().Add(-time.Hour))
	testutil.WriteFile(t, dir, "Mass-c.mp3", "x", time.Now())

	if err := svc.UploadTranscript(ctx, "Mass-c.vtt", []byte(scenarioA)); err != nil {
		t.Fatalf("UploadTranscript: %v", err)
	}
	if err := svc.UploadTranscript(ctx, "Mass-zzz.vtt", []byte(scenarioA)); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("orphan upload err = %v, want ErrNotFound", err)
	}
	if err := svc.UploadTranscript(ctx, "Mass-c.exe", []byte("x")); err == nil {
		t.Error("expected error for bad extension")
	}

	items, err := svc.ListRecordings(ctx)
	if err != nil {
		t.Fatalf("ListRecordings: %v", err)
	}
	if len(items) != 2 || items[0].Name != "Mass-c.mp3" {
		t.Fatalf("items = %+v", items)
	}
	if !items[0].HasCues || items[0].Analyzed {
		t.Errorf("Mass-c = %+v", items[0])
	}
	if !items[1].Analyzed {
		t.Errorf("Mass-a = %+v", items[1])
	}
}

func TestSweepAndProcessDisabled(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Sweep(context.Background()); err == nil {
		t.Error("expected error without sweeper")
	}
	if _, err := svc.Process(context.Background(), "Mass-a.mp3"); err == nil {
		t.Error("expected error without pipeline")
	}
}
