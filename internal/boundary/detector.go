// Package boundary locates the homily inside an ordered cue sequence.
//
// Detection is a three-state scan. The gospel acclamation is found first,
// the next spoken cue opens the homily, and a trailing window of cue texts
// is matched against phrases that mark the start of the intercessions or
// the creed. When no start is found the caller may consult an Inferrer and
// Resolve reconciles its answer onto the cue timeline.
package boundary

import (
	"context"
	"fmt"
	"strings"

	"github.com/starford/homilyd/internal/apperr"
	"github.com/starford/homilyd/internal/models"
	"github.com/starford/homilyd/internal/timecode"
)

// State is a position of the detection scan.
type State string

const (
	SeekingGospelEnd   State = "seeking_gospel_end"
	SeekingHomilyStart State = "seeking_homily_start"
	SeekingHomilyEnd   State = "seeking_homily_end"
)

// Kind tags an Outcome.
type Kind int

const (
	NotFound Kind = iota
	Found
	NeedsFallback
)

func (k Kind) String() string {
	switch k {
	case Found:
		return "found"
	case NeedsFallback:
		return "needs_fallback"
	default:
		return "not_found"
	}
}

// Outcome is the result of a heuristic pass. Window is set only for Found.
// State is where the scan stopped.
type Outcome struct {
	Kind   Kind
	Window models.BoundaryWindow
	State  State
}

// Inferrer proposes a homily start for a document the heuristics could not
// place. An empty answer means undetermined.
type Inferrer interface {
	InferStart(ctx context.Context, document string) (string, error)
}

// Detector runs the lexical heuristics. It is safe for concurrent use.
type Detector struct {
	gospel     []string
	end        []string
	windowSize int
}

// NewDetector builds a detector from cfg. Markers are trimmed and lower-cased;
// a non-positive window size falls back to DefaultWindowSize.
func NewDetector(cfg Config) *Detector {
	size := cfg.WindowSize
	if size <= 0 {
		size = DefaultWindowSize
	}
	return &Detector{
		gospel:     normalise(cfg.GospelMarkers),
		end:        normalise(cfg.EndMarkers),
		windowSize: size,
	}
}

// Detect scans cues with the heuristics only.
func (d *Detector) Detect(cues []models.Cue) Outcome {
	if len(cues) == 0 {
		return Outcome{Kind: NotFound, State: SeekingGospelEnd}
	}

	state := SeekingGospelEnd
	for i, c := range cues {
		switch state {
		case SeekingGospelEnd:
			if containsAny(strings.ToLower(c.Text), d.gospel) {
				state = SeekingHomilyStart
			}
		case SeekingHomilyStart:
			// The congregation's reply repeats the acclamation.
			if strings.TrimSpace(c.Text) == "" || containsAny(strings.ToLower(c.Text), d.gospel) {
				continue
			}
			return Outcome{
				Kind: Found,
				Window: models.BoundaryWindow{
					Start:  c.Start,
					End:    d.scanEnd(cues, i),
					Source: models.SourceHeuristic,
				},
				State: SeekingHomilyEnd,
			}
		}
	}
	return Outcome{Kind: NeedsFallback, State: state}
}

// Resolve runs Detect and, when the start could not be placed, asks inf for
// a candidate. The candidate maps to the earliest cue starting at or after
// it; a candidate past every cue pins the window to the last cue and sets
// Clamped. End detection then runs from the chosen cue.
//
// Failures wrap apperr.ErrBoundaryNotFound or apperr.ErrFallbackProtocolViolation.
// Transport errors from inf are returned wrapped as they are.
func (d *Detector) Resolve(ctx context.Context, document string, cues []models.Cue, inf Inferrer) (models.BoundaryWindow, error) {
	out := d.Detect(cues)
	switch out.Kind {
	case Found:
		return out.Window, nil
	case NotFound:
		return models.BoundaryWindow{}, fmt.Errorf("boundary: no cues: %w", apperr.ErrBoundaryNotFound)
	}

	if inf == nil {
		return models.BoundaryWindow{}, fmt.Errorf("boundary: heuristics stopped in %s: %w", out.State, apperr.ErrBoundaryNotFound)
	}

	answer, err := inf.InferStart(ctx, document)
	if err != nil {
		return models.BoundaryWindow{}, fmt.Errorf("boundary: fallback: %w", err)
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return models.BoundaryWindow{}, fmt.Errorf("boundary: fallback undetermined: %w", apperr.ErrBoundaryNotFound)
	}
	candidate, err := timecode.Parse(answer)
	if err != nil {
		return models.BoundaryWindow{}, fmt.Errorf("boundary: fallback answer %q: %w", answer, apperr.ErrFallbackProtocolViolation)
	}

	idx, clamped := resolveStart(cues, candidate)
	return models.BoundaryWindow{
		Start:   cues[idx].Start,
		End:     d.scanEnd(cues, idx),
		Source:  models.SourceFallback,
		Clamped: clamped,
	}, nil
}

// scanEnd fills a fresh window from cues[from:] and returns the start of the
// first cue whose push makes the joined window contain an end marker. With no
// match it returns the end of the last cue.
func (d *Detector) scanEnd(cues []models.Cue, from int) float64 {
	w := NewWindow(d.windowSize)
	for _, c := range cues[from:] {
		w.Push(c.Text)
		if containsAny(strings.ToLower(w.Join(" ")), d.end) {
			return c.Start
		}
	}
	return cues[len(cues)-1].End
}

// resolveStart returns the index of the earliest cue with Start >= candidate.
// cues must be non-empty.
func resolveStart(cues []models.Cue, candidate float64) (int, bool) {
	best := -1
	for i, c := range cues {
		if c.Start < candidate {
			continue
		}
		if best == -1 || c.Start < cues[best].Start {
			best = i
		}
	}
	if best == -1 {
		return len(cues) - 1, true
	}
	return best, false
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}
