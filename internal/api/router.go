package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Report endpoints (no auth required, read-only monitoring surface)
		r.Route("/report", func(r chi.Router) {
			r.Get("/", s.handleGetReport)
			r.Get("/devices", s.handleReportDevices)
			r.Get("/entities", s.handleReportEntities)
		})

		// Registry endpoints. Removal is destructive and requires a token.
		r.Route("/registry", func(r chi.Router) {
			r.Get("/entities", s.handleListEntities)
			r.Get("/entities/{id}", s.handleGetEntity)
			r.Get("/devices", s.handleListDevices)
			r.Get("/devices/{id}", s.handleGetDevice)

			r.Group(func(r chi.Router) {
				r.Use(s.authMiddleware)
				r.Post("/remove", s.handleRemoveItems)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
