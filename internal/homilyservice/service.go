// Package homilyservice is the query and command layer shared by the REST
// API and the MCP server.
package homilyservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/boundary"
	"github.com/starford/homilyd/internal/grouping"
	"github.com/starford/homilyd/internal/models"
	"github.com/starford/homilyd/internal/parser"
	"github.com/starford/homilyd/internal/pipeline"
	"github.com/starford/homilyd/internal/storage"
	"github.com/starford/homilyd/internal/store"
)

// WeekendDetail is one weekend with its summaries.
type WeekendDetail struct {
	GroupKey   string                    `json:"group_key"`
	Deadline   time.Time                 `json:"deadline"`
	Compared   bool                      `json:"compared"`
	ComparedAt *time.Time                `json:"compared_at,omitempty"`
	Summaries  []models.RecordingSummary `json:"summaries"`
}

// DetectResult is the outcome of an ad-hoc boundary detection.
type DetectResult struct {
	Window            models.BoundaryWindow `json:"window"`
	Duration          float64               `json:"duration"`
	Verdict           boundary.Verdict      `json:"verdict"`
	Cues              int                   `json:"cues"`
	InvalidTimestamps int                   `json:"invalid_timestamps"`
	Suspect           bool                  `json:"suspect"`
}

// RecordingItem is a library recording with its processing state.
type RecordingItem struct {
	Name          string    `json:"name"`
	ModTime       time.Time `json:"mod_time"`
	HasTranscript bool      `json:"has_transcript"`
	HasCues       bool      `json:"has_cues"`
	HasHomily     bool      `json:"has_homily"`
	Analyzed      bool      `json:"analyzed"`
}

// Settings are the detection thresholds used for ad-hoc requests.
type Settings struct {
	Limits           boundary.Limits
	InvalidThreshold int
}

// Deps are the collaborators of a Service. Pipeline and Sweeper may be nil
// when the service only answers queries.
type Deps struct {
	Store    store.Repository
	Library  storage.Provider
	Detector *boundary.Detector
	Inferrer boundary.Inferrer
	Pipeline *pipeline.Pipeline
	Sweeper  *grouping.Sweeper
	Rule     grouping.Rule
}

// Service coordinates the store, library and detection components.
type Service struct {
	deps     Deps
	settings Settings
	now      func() time.Time
}

// NewService creates a new homily service.
func NewService(deps Deps, settings Settings) *Service {
	if deps.Detector == nil {
		deps.Detector = boundary.NewDetector(boundary.DefaultConfig())
	}
	if settings.Limits == (boundary.Limits{}) {
		settings.Limits = boundary.DefaultLimits()
	}
	if settings.InvalidThreshold <= 0 {
		settings.InvalidThreshold = parser.DefaultInvalidThreshold
	}
	return &Service{deps: deps, settings: settings, now: time.Now}
}

// ListWeekends returns weekend groups, newest first.
func (s *Service) ListWeekends(ctx context.Context, limit, offset int) ([]models.WeekendGroup, int, error) {
	return s.deps.Store.ListGroups(ctx, limit, offset)
}

// Weekend returns the summaries and comparison state for key.
func (s *Service) Weekend(ctx context.Context, key string) (*WeekendDetail, error) {
	deadline, err := s.deps.Rule.Deadline(key)
	if err != nil {
		return nil, err
	}
	rows, err := s.deps.Store.SummariesByGroupKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.ErrNotFound
	}

	out := &WeekendDetail{GroupKey: key, Deadline: deadline, Summaries: rows}
	rec, err := s.deps.Store.ComparisonRecord(ctx, key)
	switch {
	case err == nil:
		out.Compared = true
		out.ComparedAt = &rec.ComparedAt
	case !errors.Is(err, apperr.ErrNotFound):
		return nil, err
	}
	return out, nil
}

// Search runs a full-text search over summaries.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	return s.deps.Store.Search(ctx, query, limit)
}

// Detect locates the homily in an uploaded timed-text document. The fallback
// inferrer is only consulted when fallback is true.
func (s *Service) Detect(ctx context.Context, document []byte, fallback bool) (*DetectResult, error) {
	parsed, err := parser.ParseBytes(document)
	if err != nil {
		return nil, err
	}

	var inf boundary.Inferrer
	if fallback {
		inf = s.deps.Inferrer
	}
	w, err := s.deps.Detector.Resolve(ctx, string(document), parsed.Cues, inf)
	if err != nil {
		return nil, err
	}
	return &DetectResult{
		Window:            w,
		Duration:          w.Duration(),
		Verdict:           boundary.Validate(w, s.settings.Limits),
		Cues:              len(parsed.Cues),
		InvalidTimestamps: parsed.InvalidTimestamps,
		Suspect:           parsed.Suspect(s.settings.InvalidThreshold),
	}, nil
}

// ListRecordings returns every recording in the library with its state.
func (s *Service) ListRecordings(ctx context.Context) ([]RecordingItem, error) {
	recs, err := s.deps.Library.Recordings()
	if err != nil {
		return nil, err
	}
	items := make([]RecordingItem, 0, len(recs))
	for i := len(recs) - 1; i >= 0; i-- {
		rec := recs[i]
		analyzed, err := s.deps.Store.HasRecording(ctx, rec.Name)
		if err != nil {
			return nil, err
		}
		items = append(items, RecordingItem{
			Name:          rec.Name,
			ModTime:       rec.ModTime,
			HasTranscript: exists(s.deps.Library.TranscriptPath(rec)),
			HasCues:       exists(s.deps.Library.CuesPath(rec)),
			HasHomily:     exists(s.deps.Library.HomilyPath(rec)),
			Analyzed:      analyzed,
		})
	}
	return items, nil
}

// Summary returns the latest stored summary for a recording.
func (s *Service) Summary(ctx context.Context, name string) (*models.RecordingSummary, error) {
	return s.deps.Store.LatestSummary(ctx, name)
}

// UploadTranscript stores a .vtt or .txt sidecar for an existing recording.
// The inbox watcher picks up new .vtt files.
func (s *Service) UploadTranscript(_ context.Context, filename string, content []byte) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".vtt" && ext != ".txt" {
		return fmt.Errorf("homilyservice: %s: only .vtt and .txt transcripts are accepted", filename)
	}
	if filepath.Base(filepath.Clean(filename)) != filename {
		return fmt.Errorf("homilyservice: invalid filename: %s", filename)
	}
	media := strings.TrimSuffix(filename, filepath.Ext(filename)) + ".mp3"
	if _, err := s.deps.Library.Lookup(media); err != nil {
		return err
	}
	return s.deps.Library.Write(filename, content)
}

// Process runs the full pipeline on a recording now.
func (s *Service) Process(ctx context.Context, name string) (pipeline.Result, error) {
	if s.deps.Pipeline == nil {
		return pipeline.Result{}, errors.New("homilyservice: processing disabled")
	}
	rec, err := s.deps.Library.Lookup(name)
	if err != nil {
		return pipeline.Result{}, err
	}
	return s.deps.Pipeline.Process(ctx, rec)
}

// Sweep runs the deviation sweep now.
func (s *Service) Sweep(ctx context.Context) (grouping.Report, error) {
	if s.deps.Sweeper == nil {
		return grouping.Report{}, errors.New("homilyservice: sweep disabled")
	}
	return s.deps.Sweeper.Sweep(ctx, s.now())
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
