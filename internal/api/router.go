package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/homilyd/internal/homilyservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *homilyservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Weekends.
	r.Get("/weekends", h.ListWeekends)
	r.Get("/weekends/{key}", h.GetWeekend)
	r.Post("/sweep", h.Sweep)

	// Library.
	r.Get("/recordings", h.ListRecordings)
	r.Get("/recordings/{name}/summary", h.GetSummary)
	r.Post("/recordings/{name}/process", h.Process)
	r.Post("/transcripts", h.UploadTranscript)

	// Detection and search.
	r.Post("/detect", h.Detect)
	r.Get("/search", h.Search)

	return r
}
