// Package pipeline runs one recording through analysis, boundary detection,
// validation and extraction. Every failure is logged and alerted here and
// does not propagate past the recording.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/homilyd/internal/alert"
	"github.com/starford/homilyd/internal/analysis"
	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/boundary"
	"github.com/starford/homilyd/internal/extract"
	"github.com/starford/homilyd/internal/models"
	"github.com/starford/homilyd/internal/parser"
	"github.com/starford/homilyd/internal/storage"
)

// Summarizer turns a transcript into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, recordingID, transcript string, recordedAt time.Time) (models.RecordingSummary, error)
}

// SummaryStore persists summaries.
type SummaryStore interface {
	InsertSummary(ctx context.Context, s models.RecordingSummary) (int64, error)
}

// Deps are the collaborators of a Pipeline.
type Deps struct {
	Library    storage.Provider
	Summarizer Summarizer
	Store      SummaryStore
	Detector   *boundary.Detector
	Inferrer   boundary.Inferrer
	Extractor  extract.Extractor
	Notifier   alert.Notifier
	Logger     *slog.Logger
}

// Settings are the pipeline thresholds.
type Settings struct {
	Limits           boundary.Limits
	InvalidThreshold int
}

// Result describes what happened to one recording.
type Result struct {
	Recording         string                   `json:"recording"`
	Summary           *models.RecordingSummary `json:"summary,omitempty"`
	Window            *models.BoundaryWindow   `json:"window,omitempty"`
	Verdict           boundary.Verdict         `json:"verdict,omitempty"`
	InvalidTimestamps int                      `json:"invalid_timestamps"`
	HomilyPath        string                   `json:"homily_path,omitempty"`
	RunID             string                   `json:"run_id"`
}

// Pipeline processes recordings one at a time.
type Pipeline struct {
	deps     Deps
	settings Settings
	mu       sync.Mutex
}

// New builds a Pipeline. A nil logger means slog.Default().
func New(deps Deps, settings Settings) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Detector == nil {
		deps.Detector = boundary.NewDetector(boundary.DefaultConfig())
	}
	if settings.InvalidThreshold <= 0 {
		settings.InvalidThreshold = parser.DefaultInvalidThreshold
	}
	if settings.Limits == (boundary.Limits{}) {
		settings.Limits = boundary.DefaultLimits()
	}
	return &Pipeline{deps: deps, settings: settings}
}

// Process analyzes and extracts rec. An unusable transcript stops the run
// before extraction; a model or store failure does not. Otherwise the
// returned error is the extraction outcome.
func (p *Pipeline) Process(ctx context.Context, rec storage.Recording) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := p.start(rec, "process")
	s, err := p.analyze(ctx, rec)
	switch {
	case err == nil:
		res.Summary = &s
	case errors.Is(err, apperr.ErrTranscriptUnusable):
		return res, err
	}
	err = p.extract(ctx, rec, &res)
	return res, err
}

// Analyze runs only the transcript analysis and stores the summary.
func (p *Pipeline) Analyze(ctx context.Context, rec storage.Recording) (models.RecordingSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.analyze(ctx, rec)
}

// Extract runs only boundary detection and extraction.
func (p *Pipeline) Extract(ctx context.Context, rec storage.Recording) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := p.start(rec, "extract")
	err := p.extract(ctx, rec, &res)
	return res, err
}

func (p *Pipeline) start(rec storage.Recording, mode string) Result {
	res := Result{Recording: rec.Name, RunID: uuid.NewString()}
	p.deps.Logger.Debug("pipeline: run started",
		slog.String("recording", rec.Name),
		slog.String("mode", mode),
		slog.String("run", res.RunID),
	)
	return res
}

func (p *Pipeline) analyze(ctx context.Context, rec storage.Recording) (models.RecordingSummary, error) {
	log := p.deps.Logger.With(slog.String("recording", rec.Name))

	path := p.deps.Library.TranscriptPath(rec)
	text, err := analysis.ReadTranscript(path)
	if err != nil {
		log.Warn("pipeline: transcript unusable", slog.String("error", err.Error()))
		p.problem(ctx, rec, reason(err))
		return models.RecordingSummary{}, err
	}

	s, err := p.deps.Summarizer.Summarize(ctx, rec.Name, text, rec.ModTime)
	if err != nil {
		log.Error("pipeline: analysis failed", slog.String("error", err.Error()))
		p.problem(ctx, rec, "Homily analysis failed:\n\n"+err.Error())
		return models.RecordingSummary{}, err
	}

	id, err := p.deps.Store.InsertSummary(ctx, s)
	if err != nil {
		log.Error("pipeline: store summary failed", slog.String("error", err.Error()))
		p.problem(ctx, rec, "Could not store homily summary:\n\n"+err.Error())
		return models.RecordingSummary{}, err
	}
	s.ID = id

	log.Info("pipeline: analyzed",
		slog.String("title", s.Title),
		slog.String("group_key", s.GroupKey),
	)
	return s, nil
}

func (p *Pipeline) extract(ctx context.Context, rec storage.Recording, res *Result) error {
	log := p.deps.Logger.With(slog.String("recording", rec.Name))

	window, invalid, err := p.detect(ctx, rec)
	res.InvalidTimestamps = invalid
	if err != nil {
		return err
	}
	res.Window = &window

	verdict := boundary.Validate(window, p.settings.Limits)
	res.Verdict = verdict
	switch verdict {
	case boundary.VerdictInvalid:
		log.Error("pipeline: empty homily window",
			slog.Float64("start", window.Start),
			slog.Float64("end", window.End),
		)
		p.problem(ctx, rec, fmt.Sprintf("Detected homily window has no length (%.2fs to %.2fs).", window.Start, window.End))
		return verdict.Err(window)
	case boundary.VerdictSuspicious:
		log.Warn("pipeline: suspicious duration", slog.Float64("duration", window.Duration()))
		p.problem(ctx, rec, fmt.Sprintf("Suspicious homily duration extracted: %.2fs", window.Duration()))
	}

	dest := p.deps.Library.HomilyPath(rec)
	if err := p.deps.Extractor.Extract(ctx, rec.Path, dest, window); err != nil {
		log.Error("pipeline: extraction failed", slog.String("error", err.Error()))
		p.problem(ctx, rec, "Homily extraction failed:\n\n"+err.Error())
		return err
	}
	res.HomilyPath = dest

	log.Info("pipeline: extracted",
		slog.String("homily", filepath.Base(dest)),
		slog.Float64("start", window.Start),
		slog.Float64("end", window.End),
		slog.String("source", string(window.Source)),
	)
	return nil
}

func (p *Pipeline) detect(ctx context.Context, rec storage.Recording) (models.BoundaryWindow, int, error) {
	log := p.deps.Logger.With(slog.String("recording", rec.Name))

	rel, err := filepath.Rel(p.deps.Library.Root(), p.deps.Library.CuesPath(rec))
	if err != nil {
		p.problem(ctx, rec, "Unexpected error reading VTT: "+err.Error())
		return models.BoundaryWindow{}, 0, err
	}
	data, err := p.deps.Library.Read(rel)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("pipeline: vtt missing")
		p.problem(ctx, rec, "VTT file is missing.")
		return models.BoundaryWindow{}, 0, fmt.Errorf("pipeline: %s: vtt missing: %w", rec.Name, apperr.ErrBoundaryNotFound)
	}
	if err != nil {
		p.problem(ctx, rec, "Unexpected error reading VTT: "+err.Error())
		return models.BoundaryWindow{}, 0, err
	}

	parsed, err := parser.ParseBytes(data)
	if err != nil {
		p.problem(ctx, rec, "Unexpected error reading VTT: "+err.Error())
		return models.BoundaryWindow{}, 0, err
	}
	if parsed.Suspect(p.settings.InvalidThreshold) {
		log.Warn("pipeline: many invalid timestamps", slog.Int("count", parsed.InvalidTimestamps))
		p.problem(ctx, rec, fmt.Sprintf("High invalid timestamps in VTT (%d)", parsed.InvalidTimestamps))
	}

	window, err := p.deps.Detector.Resolve(ctx, string(data), parsed.Cues, p.deps.Inferrer)
	if err != nil {
		log.Warn("pipeline: homily start not found", slog.String("error", err.Error()))
		p.problem(ctx, rec, "Could not locate homily start in VTT.\n\n"+err.Error())
		return models.BoundaryWindow{}, parsed.InvalidTimestamps, err
	}
	if window.Clamped {
		log.Warn("pipeline: fallback start past last cue", slog.Float64("start", window.Start))
		p.problem(ctx, rec, fmt.Sprintf("Fallback homily start lay after every cue; pinned to the last cue at %.2fs.", window.Start))
	}
	return window, parsed.InvalidTimestamps, nil
}

func (p *Pipeline) problem(ctx context.Context, rec storage.Recording, why string) {
	if p.deps.Notifier == nil {
		return
	}
	p.deps.Notifier.Notify(ctx, "", alert.Problem(rec.Path, why))
}

func reason(err error) string {
	var ue *analysis.UnusableError
	if errors.As(err, &ue) {
		return ue.Reason
	}
	return err.Error()
}
