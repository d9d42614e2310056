package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// buildRouter mounts the settings API under /api/v1.
//
// Health and the WebSocket upgrade are open; the upgrade checks its own
// ticket. Everything that reads or changes the tree needs a bearer token.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(
		s.requestIDMiddleware,
		s.loggingMiddleware,
		s.recoveryMiddleware,
		s.corsMiddleware,
		s.bodySizeLimitMiddleware,
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeNotFound(w, "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, r.Method+" not allowed on "+r.URL.Path)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ws", s.handleWebSocket)

		r.With(s.authMiddleware).Group(func(r chi.Router) {
			r.Post("/ws-ticket", s.handleWSTicket)
			r.Get("/metrics", s.handleMetrics)

			r.Get("/devicemanagers", s.handleListManagers)
			r.Get("/serialports", s.handleListSerialPorts)
			r.Get("/devices", s.handleListDevices)
			r.Get("/devices/{name}", s.handleGetDevice)
			r.Patch("/devices/{name}", s.handleUpdateDevice)

			r.Get("/history", s.handleListHistory)
			r.Get("/snapshots", s.handleListSnapshots)
		})
	})

	return r
}

// Health is the /health response.
type Health struct {
	Status  string `json:"status"`
	Version string `json:"version"`

	// Settings is "loaded" once the first document has been installed.
	Settings string `json:"settings"`

	History   bool `json:"history"`
	Snapshots bool `json:"snapshots"`
}

// handleHealth answers 503 until the settings tree is loaded.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h := Health{
		Status:    "ok",
		Version:   s.version,
		Settings:  "loaded",
		History:   s.history != nil,
		Snapshots: s.snapshots != nil,
	}

	err := s.store.View(func(*settings.ApplicationSettings) error { return nil })
	if err != nil {
		h.Status, h.Settings = "starting", err.Error()
		writeJSON(w, http.StatusServiceUnavailable, h)
		return
	}
	writeJSON(w, http.StatusOK, h)
}
