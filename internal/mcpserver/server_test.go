package mcpserver

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/homilyd/internal/boundary"
	"github.com/starford/homilyd/internal/grouping"
	"github.com/starford/homilyd/internal/homilyservice"
	"github.com/starford/homilyd/internal/models"
	"github.com/starford/homilyd/internal/testutil"
)

const scenarioA = "WEBVTT\n\n00:00:05.000 --> 00:00:07.000\nThe Gospel of the Lord.\n\n00:00:08.000 --> 00:00:20.000\nBrothers and sisters...\n\n00:00:21.000 --> 00:00:25.000\nLet us offer our prayers.\n"

func testServer(t *testing.T) (*Server, string) {
	t.Helper()

	db := testutil.TestDB(t)
	dir, lib := testutil.TestLibrary(t)
	if _, err := db.InsertSummary(context.Background(), models.RecordingSummary{
		RecordingID: "Mass-a.mp3", GroupKey: "2025-06-15", Title: "The lost sheep",
		Description: "Joy over one sinner who repents.", RecordedAt: time.Now(),
	}); err != nil {
		t.Fatal(err)
	}

	svc := homilyservice.NewService(homilyservice.Deps{
		Store:   db,
		Library: lib,
		Rule:    grouping.DefaultRule(time.UTC),
	}, homilyservice.Settings{})
	return New(svc, boundary.DefaultConfig(), boundary.DefaultLimits()), dir
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_weekends":
		result, err = srv.listWeekends(ctx, req)
	case "get_weekend":
		result, err = srv.getWeekend(ctx, req)
	case "search_summaries":
		result, err = srv.searchSummaries(ctx, req)
	case "list_recordings":
		result, err = srv.listRecordings(ctx, req)
	case "detect_homily":
		result, err = srv.detectHomily(ctx, req)
	case "fetch_transcript":
		result, err = srv.fetchTranscript(ctx, req)
	case "get_detection_rules":
		result, err = srv.getDetectionRules(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestListAndGetWeekend(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "list_weekends", map[string]any{})
	if r.IsError || !strings.Contains(resultText(r), `"2025-06-15"`) {
		t.Errorf("list_weekends = %q", resultText(r))
	}

	r = callTool(t, srv, "get_weekend", map[string]any{"key": "2025-06-15"})
	if r.IsError || !strings.Contains(resultText(r), "The lost sheep") {
		t.Errorf("get_weekend = %q", resultText(r))
	}

	r = callTool(t, srv, "get_weekend", map[string]any{"key": "2025-06-22"})
	if !r.IsError {
		t.Error("expected error for empty weekend")
	}
	r = callTool(t, srv, "get_weekend", map[string]any{})
	if !r.IsError {
		t.Error("expected error for missing key")
	}
}

func TestSearchSummaries(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "search_summaries", map[string]any{"query": "sheep"})
	if !strings.Contains(resultText(r), "Mass-a.mp3") {
		t.Errorf("search = %q", resultText(r))
	}
	r = callTool(t, srv, "search_summaries", map[string]any{"query": "vineyard"})
	if resultText(r) != "no summaries found" {
		t.Errorf("search = %q", resultText(r))
	}
}

func TestDetectHomily(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "detect_homily", map[string]any{"document": scenarioA})
	text := resultText(r)
	if r.IsError {
		t.Fatalf("detect_homily error: %s", text)
	}
	if !strings.Contains(text, `"start": 8`) || !strings.Contains(text, `"end": 21`) {
		t.Errorf("detect_homily = %s", text)
	}

	r = callTool(t, srv, "detect_homily", map[string]any{
		"document": "00:00:01.000 --> 00:00:02.000\nWelcome.\n",
		"fallback": true,
	})
	if !r.IsError {
		t.Error("expected error when the start cannot be placed")
	}
}

func TestFetchTranscriptDataURI(t *testing.T) {
	srv, dir := testServer(t)
	testutil.WriteFile(t, dir, "Mass-a.mp3", "audio", time.Time{})

	uri := "data:text/vtt;base64," + base64.StdEncoding.EncodeToString([]byte(scenarioA))
	r := callTool(t, srv, "fetch_transcript", map[string]any{"url": uri, "filename": "Mass-a.vtt"})
	if r.IsError {
		t.Fatalf("fetch_transcript error: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), `"cues":3`) {
		t.Errorf("fetch_transcript = %s", resultText(r))
	}
	if _, err := os.Stat(filepath.Join(dir, "Mass-a.vtt")); err != nil {
		t.Errorf("sidecar not written: %v", err)
	}

	r = callTool(t, srv, "fetch_transcript", map[string]any{"url": "data:text/plain,no%20cues", "filename": "Mass-a.vtt"})
	if !r.IsError {
		t.Error("expected error for a vtt without cues")
	}
	r = callTool(t, srv, "fetch_transcript", map[string]any{"url": "data:image/png;base64,AAAA", "filename": "Mass-a.txt"})
	if !r.IsError {
		t.Error("expected error for binary data URI")
	}
}

func TestFetchTranscriptBlockedHost(t *testing.T) {
	srv, _ := testServer(t)
	for _, u := range []string{"http://127.0.0.1/x.vtt", "http://169.254.169.254/latest", "ftp://example.com/a.vtt"} {
		r := callTool(t, srv, "fetch_transcript", map[string]any{"url": u, "filename": "Mass-a.vtt"})
		if !r.IsError {
			t.Errorf("%s: expected error", u)
		}
	}
}

func TestDetectionRules(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_detection_rules", map[string]any{}))
	for _, want := range []string{"the gospel of the lord", "let us offer our prayers", "60s", "1200s"} {
		if !strings.Contains(strings.ToLower(text), want) {
			t.Errorf("rules missing %q", want)
		}
	}
}
