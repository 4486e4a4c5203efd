// Package server provides the local HTTP API for facepoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/facepoint/internal/announcer"
	"github.com/ayusman/facepoint/internal/app"
	"github.com/ayusman/facepoint/internal/logging"
	"github.com/ayusman/facepoint/internal/proximity"
	"github.com/ayusman/facepoint/internal/region"
	"github.com/ayusman/facepoint/internal/server/api"
	"github.com/ayusman/facepoint/internal/store"
)

// StatusSource reports the state of the detection loop.
type StatusSource interface {
	Status() app.FrameState
	IsEnabled() bool
}

// FrameSource provides the latest annotated frame as JPEG.
type FrameSource interface {
	LatestFrame() ([]byte, uint64)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Status    StatusSource
	Frames    FrameSource
	Announcer *announcer.Announcer

	// Table and Threshold describe the classifier for /api/regions.
	// They default to region.Default() and proximity.DefaultThreshold.
	Table     region.Table
	Threshold float64
}

// Server represents the HTTP server for the facepoint application.
type Server struct {
	config Config
	mux    *http.ServeMux
	events *EventHub
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Table == nil {
		config.Table = region.Default()
	}
	if config.Threshold <= 0 {
		config.Threshold = proximity.DefaultThreshold
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		events: NewEventHub(),
		start:  time.Now(),
	}
	if config.Announcer != nil {
		config.Announcer.Subscribe(s.events.Publish)
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.Handle("/api/regions", api.NewRegionHandler(s.config.Table, s.config.Threshold))
	s.mux.Handle("/api/events", s.events)

	if s.config.Store != nil {
		announcements := api.NewAnnouncementHandler(s.config.Store)
		s.mux.Handle("/api/announcements", announcements)
		s.mux.Handle("/api/announcements/", announcements)
	}

	if s.config.Announcer != nil {
		s.mux.Handle("/api/mute", api.NewMuteHandler(s.config.Announcer, s.config.Store))
	}

	if s.config.Frames != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Frames))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Events returns the hub that broadcasts utterances to WebSocket clients.
func (s *Server) Events() *EventHub {
	return s.events
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	writeJSON(w, response)
}

type statusResponse struct {
	Enabled    bool            `json:"enabled"`
	Speaking   bool            `json:"speaking"`
	Muted      bool            `json:"muted"`
	LastSpoken string          `json:"last_spoken"`
	Frame      *app.FrameState `json:"frame,omitempty"`
}

// handleStatus handles GET requests to /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var response statusResponse
	if s.config.Status != nil {
		state := s.config.Status.Status()
		response.Frame = &state
		response.Enabled = s.config.Status.IsEnabled()
	}
	if a := s.config.Announcer; a != nil {
		last, _ := a.LastSpoken()
		response.Speaking = a.Busy()
		response.Muted = a.Muted()
		response.LastSpoken = string(last)
	}

	writeJSON(w, response)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infow("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.events.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
