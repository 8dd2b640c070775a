package api

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/homilyd/internal/homilyservice"
)

const (
	maxDocumentBytes = 10 << 20 // 10 MB
	maxUploadBytes   = 20 << 20
)

// Handler holds API route handlers.
type Handler struct {
	svc *homilyservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *homilyservice.Service) *Handler {
	return &Handler{svc: svc}
}

// ListWeekends handles GET /api/weekends.
func (h *Handler) ListWeekends(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	groups, total, err := h.svc.ListWeekends(r.Context(), limit, offset)
	if err != nil {
		writeError(w, "list weekends", err)
		return
	}
	writeJSON(w, http.StatusOK, WeekendListResponse{Weekends: groups, Total: total})
}

// GetWeekend handles GET /api/weekends/{key}.
func (h *Handler) GetWeekend(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Weekend(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeError(w, "get weekend", err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Sweep handles POST /api/sweep.
func (h *Handler) Sweep(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Sweep(r.Context())
	if err != nil {
		writeError(w, "sweep", err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// ListRecordings handles GET /api/recordings.
func (h *Handler) ListRecordings(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListRecordings(r.Context())
	if err != nil {
		writeError(w, "list recordings", err)
		return
	}
	writeJSON(w, http.StatusOK, RecordingListResponse{Recordings: items})
}

// GetSummary handles GET /api/recordings/{name}/summary.
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Summary(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, "get summary", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Process handles POST /api/recordings/{name}/process.
// Pipeline failures are alerted by the pipeline itself; the response carries
// whatever was produced.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	res, err := h.svc.Process(r.Context(), name)
	if err != nil {
		slog.Warn("process failed", slog.String("recording", name), slog.String("error", err.Error()))
		if res.Recording == "" {
			writeError(w, "process", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": res, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": res})
}

// Detect handles POST /api/detect. The body is the raw timed-text document.
// ?fallback=true allows the language model to place the start.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("document too large"))
		return
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("document is required"))
		return
	}
	fallback, _ := strconv.ParseBool(r.URL.Query().Get("fallback"))

	res, err := h.svc.Detect(r.Context(), body, fallback)
	if err != nil {
		writeError(w, "detect", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search handles GET /api/search?q=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("q is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// UploadTranscript handles POST /api/transcripts (multipart/form-data, field "file").
// The file name must match an existing recording, e.g. Mass-20250615.vtt.
func (h *Handler) UploadTranscript(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
		return
	}
	if err := h.svc.UploadTranscript(r.Context(), header.Filename, content); err != nil {
		writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, UploadResponse{Filename: header.Filename, Size: int64(len(content))})
}

func writeUploadError(w http.ResponseWriter, err error) {
	if isNotFound(err) {
		writeJSON(w, http.StatusNotFound, errorBody("no recording for transcript"))
		return
	}
	writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
}
