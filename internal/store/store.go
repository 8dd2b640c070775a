package store

import (
	"context"
	"time"

	"github.com/starford/homilyd/internal/grouping"
	"github.com/starford/homilyd/internal/models"
)

// Repository is the full store surface used by the service layer.
// The sweep only needs the narrower grouping.Store.
type Repository interface {
	grouping.Store
	HasRecording(ctx context.Context, recordingID string) (bool, error)
	LatestSummary(ctx context.Context, recordingID string) (*models.RecordingSummary, error)
	ListGroups(ctx context.Context, limit, offset int) ([]models.WeekendGroup, int, error)
	ComparisonRecord(ctx context.Context, key string) (*models.ComparisonRecord, error)
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Close() error
}

// SearchResult is one full-text hit over summaries.
type SearchResult struct {
	RecordingID string `json:"recording_id"`
	GroupKey    string `json:"group_key"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
}

// Verify *DB satisfies Repository at compile time.
var _ Repository = (*DB)(nil)

func utc(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
