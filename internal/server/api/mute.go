package api

import (
	"encoding/json"
	"net/http"

	"github.com/ayusman/facepoint/internal/store"
)

// Muter is the part of the announcer the mute endpoint controls.
type Muter interface {
	SetMuted(muted bool)
	Muted() bool
}

// MuteHandler reads and changes the announcer mute state.
//
//	GET /api/mute
//	PUT /api/mute {"muted": true}
//
// The state is persisted in settings when a store is configured.
type MuteHandler struct {
	muter Muter
	store *store.Store
}

// NewMuteHandler creates a MuteHandler. s may be nil.
func NewMuteHandler(m Muter, s *store.Store) *MuteHandler {
	return &MuteHandler{muter: m, store: s}
}

type muteRequest struct {
	Muted *bool `json:"muted"`
}

type muteResponse struct {
	Muted bool `json:"muted"`
}

// ServeHTTP implements the http.Handler interface.
func (h *MuteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, muteResponse{Muted: h.muter.Muted()})
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *MuteHandler) update(w http.ResponseWriter, r *http.Request) {
	var req muteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.Muted == nil {
		writeError(w, http.StatusBadRequest, "muted is required")
		return
	}

	h.muter.SetMuted(*req.Muted)

	if h.store != nil {
		if err := h.store.Settings().SetBool(store.SettingMuted, *req.Muted); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to save setting")
			return
		}
	}

	writeJSON(w, http.StatusOK, muteResponse{Muted: *req.Muted})
}
