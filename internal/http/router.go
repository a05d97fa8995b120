package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"personarag/internal/handlers"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Health    *handlers.HealthHandler
	Documents *handlers.DocumentsHandler
	Search    *handlers.SearchHandler
	Stats     *handlers.StatsHandler
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Add CORS and the request-scoped logger
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", deps.Health)

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", deps.Documents.Create)
			r.Get("/{documentID}", deps.Documents.Get)
			r.Delete("/{documentID}", deps.Documents.Delete)
		})

		r.Route("/personas/{personaID}", func(r chi.Router) {
			r.Get("/documents", deps.Documents.ListByPersona)
			r.Post("/search", deps.Search.Search)
			r.Get("/context", deps.Search.Context)
			r.Get("/stats", deps.Stats.Stats)
			r.Delete("/knowledge", deps.Stats.Clear)
		})
	})

	return r
}
