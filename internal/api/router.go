package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jetpackmatt/freightdesk/internal/api/handler"
	mw "github.com/jetpackmatt/freightdesk/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	listingHandler *handler.ListingHandler,
	exportHandler *handler.ExportHandler,
	healthHandler *handler.HealthHandler,
	apiKey string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(middleware.Recoverer)
	// Streaming exports hold the connection open well past a normal
	// request; the write timeout on the server is the real backstop.
	r.Use(middleware.Timeout(10 * time.Minute))

	// Health endpoint (no auth)
	r.Get("/health", healthHandler.Live)

	// API v1 (authenticated)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKey))

		r.Get("/sources", listingHandler.Sources)
		r.Get("/{source}", listingHandler.List)
		r.Post("/export/stream", exportHandler.Stream)
	})

	return r
}
