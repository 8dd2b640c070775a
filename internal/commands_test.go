package internal

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/homilyd/internal/testutil"
)

const homilyVTT = `WEBVTT

00:10:00.000 --> 00:10:10.000
The Gospel of the Lord.

00:10:12.000 --> 00:10:30.000
Brothers and sisters, today we hear about the lost sheep.

00:20:00.000 --> 00:20:05.000
Let us offer our prayers to God.
`

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
}

func (g *fakeGenerator) Generate(_ context.Context, prompt string, _ float32) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	switch {
	case strings.Contains(prompt, `"liturgical_day"`):
		return `{"title":"The Lost Sheep","description":"God seeks the lost.","special":"","liturgical_day":"","liturgical_year":"C"}`, nil
	case strings.Contains(prompt, `"start"`):
		return `{"start": ""}`, nil
	default:
		return `{"status":"similar","summary":"All homilies are consistent."}`, nil
	}
}

type fakeExecutor struct {
	mu    sync.Mutex
	calls [][]string
}

func (e *fakeExecutor) Execute(_ context.Context, name string, args ...string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, append([]string{name}, args...))
	return "", nil
}

type env struct {
	dir      string
	gen      *fakeGenerator
	exec     *fakeExecutor
	notifier *testutil.Notifier
	opts     []Option
}

func newEnv(t *testing.T) *env {
	t.Helper()
	dir := t.TempDir()

	cfg := NewDefaultConfig()
	cfg.LLM.APIKeys = []string{"test"}
	cfg.Library.Path = dir
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "homilyd.db")
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	e := &env{dir: dir, gen: &fakeGenerator{}, exec: &fakeExecutor{}, notifier: &testutil.Notifier{}}
	e.opts = []Option{
		WithConfig(cfg),
		WithLogOutput(io.Discard),
		WithGenerator(e.gen),
		WithExecutor(e.exec),
		WithNotifier(e.notifier),
	}
	return e
}

func (e *env) recording(t *testing.T, base string, at time.Time) {
	t.Helper()
	testutil.WriteFile(t, e.dir, base+".mp3", "audio", at)
	testutil.WriteFile(t, e.dir, base+".txt", "Brothers and sisters, today we hear about the lost sheep and the joy in heaven.", at)
	testutil.WriteFile(t, e.dir, base+".vtt", homilyVTT, at)
}

func TestTestAlert(t *testing.T) {
	e := newEnv(t)
	if err := TestAlert(context.Background(), e.opts...); err != nil {
		t.Fatalf("TestAlert: %v", err)
	}
	alerts := e.notifier.Alerts()
	if len(alerts) != 1 || !strings.Contains(alerts[0].Message, "TEST-Mass.mp3") {
		t.Errorf("alerts = %+v", alerts)
	}
}

func TestProcessLatest(t *testing.T) {
	e := newEnv(t)
	e.recording(t, "Mass-20250607", time.Date(2025, 6, 7, 18, 0, 0, 0, time.UTC))
	e.recording(t, "Mass-20250614", time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC))

	res, err := ProcessLatest(context.Background(), e.opts...)
	if err != nil {
		t.Fatalf("ProcessLatest: %v", err)
	}
	if res.Recording != "Mass-20250614.mp3" {
		t.Errorf("recording = %q", res.Recording)
	}
	if res.Summary == nil || res.Summary.GroupKey != "2025-06-15" {
		t.Errorf("summary = %+v", res.Summary)
	}
	if res.Window == nil || res.Window.Start != 612 || res.Window.End != 1200 {
		t.Errorf("window = %+v", res.Window)
	}
	if len(e.exec.calls) != 1 || e.exec.calls[0][0] != "ffmpeg" {
		t.Fatalf("ffmpeg calls = %v", e.exec.calls)
	}
	if got := e.exec.calls[0][len(e.exec.calls[0])-1]; filepath.Base(got) != "Homily-20250614.mp3" {
		t.Errorf("dest = %q", got)
	}
	if alerts := e.notifier.Alerts(); len(alerts) != 0 {
		t.Errorf("unexpected alerts: %+v", alerts)
	}
}

func TestAnalyzeThenExtractLatest(t *testing.T) {
	e := newEnv(t)
	e.recording(t, "Mass-20250614", time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC))
	ctx := context.Background()

	s, err := AnalyzeLatest(ctx, e.opts...)
	if err != nil {
		t.Fatalf("AnalyzeLatest: %v", err)
	}
	if s.Title != "The Lost Sheep" || s.ID == 0 {
		t.Errorf("summary = %+v", s)
	}
	if len(e.exec.calls) != 0 {
		t.Errorf("analyze should not extract")
	}

	if _, err := ExtractLatest(ctx, e.opts...); err != nil {
		t.Fatalf("ExtractLatest: %v", err)
	}
	if len(e.exec.calls) != 1 {
		t.Errorf("ffmpeg calls = %d, want 1", len(e.exec.calls))
	}
}

func TestProcessLatest_EmptyLibrary(t *testing.T) {
	e := newEnv(t)
	if _, err := ProcessLatest(context.Background(), e.opts...); err == nil {
		t.Fatal("expected error for empty library")
	}
}

func TestProcessByName(t *testing.T) {
	e := newEnv(t)
	e.recording(t, "Mass-20250614", time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC))

	if _, err := Process(context.Background(), "Mass-20250614.mp3", e.opts...); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if _, err := Process(context.Background(), "Mass-missing.mp3", e.opts...); err == nil {
		t.Fatal("expected error for unknown recording")
	}
}

func TestSweepCommand(t *testing.T) {
	e := newEnv(t)
	e.recording(t, "Mass-20250614", time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC))
	e.recording(t, "Mass-20250615", time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for _, name := range []string{"Mass-20250614.mp3", "Mass-20250615.mp3"} {
		if _, err := Process(ctx, name, e.opts...); err != nil {
			t.Fatalf("Process %s: %v", name, err)
		}
	}

	rep, err := Sweep(ctx, e.opts...)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if rep.Compared != 1 || rep.Deviations != 0 {
		t.Errorf("report = %+v", rep)
	}

	rep, err = Sweep(ctx, e.opts...)
	if err != nil {
		t.Fatalf("second Sweep: %v", err)
	}
	if rep.Compared != 0 || rep.Already != 1 {
		t.Errorf("second report = %+v", rep)
	}
}

func TestBuild_RequiresConfig(t *testing.T) {
	if err := TestAlert(context.Background()); err == nil {
		t.Fatal("expected error without config")
	}
}
