package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/vidgate/internal/api/handler"
	mw "github.com/iconidentify/vidgate/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	checkHandler *handler.CheckHandler,
	healthHandler *handler.HealthHandler,
	apiKey string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //ready -> /ready)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(2 * time.Minute))

	// CORS for ingestion dashboards
	r.Use(mw.CORS)

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// API v1 (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKey))

		r.Get("/stats", checkHandler.Stats)

		r.Post("/checks", checkHandler.Submit)
		r.Post("/checks/validate", checkHandler.ValidateNow)
		r.Get("/checks", checkHandler.List)
		r.Get("/checks/{checkID}", checkHandler.Get)
	})

	return r
}
