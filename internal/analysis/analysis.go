package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/starford/homilyd/internal/grouping"
	"github.com/starford/homilyd/internal/models"
)

// Analysis is the model's description of one homily.
type Analysis struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Special        string `json:"special"`
	LiturgicalDay  string `json:"liturgical_day"`
	LiturgicalYear string `json:"liturgical_year"`
}

// Analyzer describes a transcript.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (Analysis, error)
}

// Service builds recording summaries from transcripts.
type Service struct {
	analyzer Analyzer
	rule     grouping.Rule
	now      func() time.Time
}

// NewService returns a Service grouping recordings under rule.
func NewService(analyzer Analyzer, rule grouping.Rule) *Service {
	return &Service{analyzer: analyzer, rule: rule, now: time.Now}
}

// Summarize checks transcript, analyzes it and returns the summary to store.
// The group key comes from recordedAt.
func (s *Service) Summarize(ctx context.Context, recordingID, transcript string, recordedAt time.Time) (models.RecordingSummary, error) {
	if err := CheckTranscript(transcript); err != nil {
		return models.RecordingSummary{}, err
	}

	a, err := s.analyzer.Analyze(ctx, strings.TrimSpace(transcript))
	if err != nil {
		return models.RecordingSummary{}, fmt.Errorf("analysis: analyze %s: %w", recordingID, err)
	}
	if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Description) == "" {
		return models.RecordingSummary{}, fmt.Errorf("analysis: analyze %s: empty title and description", recordingID)
	}

	return models.RecordingSummary{
		RecordingID:         recordingID,
		GroupKey:            s.rule.Key(recordedAt),
		Title:               strings.TrimSpace(a.Title),
		Description:         strings.TrimSpace(a.Description),
		SpecialContext:      strings.TrimSpace(a.Special),
		LiturgicalDay:       strings.TrimSpace(a.LiturgicalDay),
		LiturgicalYearCycle: strings.TrimSpace(a.LiturgicalYear),
		RecordedAt:          recordedAt,
		ProcessedAt:         s.now().UTC(),
	}, nil
}
