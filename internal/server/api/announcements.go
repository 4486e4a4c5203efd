package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayusman/facepoint/internal/store"
)

// MaxListLimit caps the limit query parameter of the announcement list.
const MaxListLimit = 500

// AnnouncementHandler serves the announcement history.
//
//	GET /api/announcements?limit=N
//	GET /api/announcements/stats
//	GET /api/announcements/{id}
type AnnouncementHandler struct {
	store *store.Store
}

// NewAnnouncementHandler creates a new AnnouncementHandler with the given store.
func NewAnnouncementHandler(s *store.Store) *AnnouncementHandler {
	return &AnnouncementHandler{store: s}
}

type announcementResponse struct {
	ID         string  `json:"id"`
	Region     string  `json:"region"`
	Distance   float64 `json:"distance"`
	SpokenAt   string  `json:"spoken_at"`
	DurationMs int64   `json:"duration_ms"`
	Error      string  `json:"error,omitempty"`
}

type listAnnouncementsResponse struct {
	Announcements []announcementResponse `json:"announcements"`
}

type statsResponse struct {
	Total    int            `json:"total"`
	ByRegion map[string]int `json:"by_region"`
}

func toResponse(a *store.Announcement) announcementResponse {
	return announcementResponse{
		ID:         a.ID,
		Region:     a.Region,
		Distance:   a.Distance,
		SpokenAt:   a.SpokenAt.UTC().Format(time.RFC3339Nano),
		DurationMs: a.DurationMs,
		Error:      a.Error,
	}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *AnnouncementHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/announcements")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		h.list(w, r)
	case "stats":
		h.stats(w, r)
	default:
		h.get(w, r, path)
	}
}

// list handles GET /api/announcements.
func (h *AnnouncementHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxListLimit)
	}

	announcements, err := h.store.Announcements().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list announcements")
		return
	}

	response := listAnnouncementsResponse{
		Announcements: make([]announcementResponse, 0, len(announcements)),
	}
	for _, a := range announcements {
		response.Announcements = append(response.Announcements, toResponse(a))
	}

	writeJSON(w, http.StatusOK, response)
}

// stats handles GET /api/announcements/stats.
func (h *AnnouncementHandler) stats(w http.ResponseWriter, r *http.Request) {
	counts, err := h.store.Announcements().CountByRegion()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count announcements")
		return
	}

	response := statsResponse{ByRegion: counts}
	for _, n := range counts {
		response.Total += n
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/announcements/{id}.
func (h *AnnouncementHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	a, err := h.store.Announcements().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Announcement not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get announcement")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(a))
}
