package api

import (
	"github.com/starford/homilyd/internal/homilyservice"
	"github.com/starford/homilyd/internal/models"
	"github.com/starford/homilyd/internal/store"
)

// WeekendListResponse wraps paginated weekend listings.
type WeekendListResponse struct {
	Weekends []models.WeekendGroup `json:"weekends"`
	Total    int                   `json:"total"`
}

// WeekendDetail is the weekend response type (aliased from the domain layer).
type WeekendDetail = homilyservice.WeekendDetail

// DetectResponse is the boundary detection response type.
type DetectResponse = homilyservice.DetectResult

// RecordingListResponse wraps the library listing.
type RecordingListResponse struct {
	Recordings []homilyservice.RecordingItem `json:"recordings"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []store.SearchResult `json:"results"`
}

// UploadResponse is returned after a successful transcript upload.
type UploadResponse struct {
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}
