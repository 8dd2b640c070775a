// Package models defines the domain types shared across the homily pipeline.
package models

import "time"

// Cue is one timestamped text span of a timed-text transcript.
// Offsets are seconds from the start of the recording.
type Cue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Source records which stage located a boundary window.
type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceFallback  Source = "fallback"
)

// BoundaryWindow is the inferred homily span within a recording.
type BoundaryWindow struct {
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Source Source  `json:"source"`
	// Clamped is set when a fallback candidate lay after every cue and the
	// window was pinned to the last cue.
	Clamped bool `json:"clamped,omitempty"`
}

// Duration returns End - Start in seconds.
func (w BoundaryWindow) Duration() float64 {
	return w.End - w.Start
}

// RecordingSummary is the analyzed description of one recording.
type RecordingSummary struct {
	ID                  int64     `json:"id,omitempty"`
	RecordingID         string    `json:"recording_id"`
	GroupKey            string    `json:"group_key"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	SpecialContext      string    `json:"special_context"`
	LiturgicalDay       string    `json:"liturgical_day,omitempty"`
	LiturgicalYearCycle string    `json:"liturgical_year_cycle,omitempty"`
	RecordedAt          time.Time `json:"recorded_at"`
	ProcessedAt         time.Time `json:"processed_at,omitempty"`
}

// WeekendGroup is the derived view over summaries sharing a group key.
type WeekendGroup struct {
	GroupKey string `json:"group_key"`
	Count    int    `json:"count"`
	Compared bool   `json:"compared"`
}

// ComparisonRecord marks a group key as evaluated. At most one exists per key.
type ComparisonRecord struct {
	GroupKey   string    `json:"group_key"`
	ComparedAt time.Time `json:"compared_at"`
}
