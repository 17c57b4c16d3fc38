package routes

import (
	"net/http"
	"time"

	"github.com/codetrack/ai-gateway/app"
	"github.com/codetrack/ai-gateway/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handlers.NewHealthHandler(deps.SQLDB(), deps.Logger)
	completionHandler := handlers.NewCompletionHandler(deps.Router, deps.UsageRecorder, deps.Logger)
	studyHandler := handlers.NewStudyHandler(deps.Flashcards, deps.Tutor, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Provider status is public
		r.Get("/providers", completionHandler.HandleProviders)

		r.Group(func(r chi.Router) {
			// Bearer auth only when a secret is configured
			if deps.AuthMiddleware != nil {
				r.Use(deps.AuthMiddleware.RequireAuth)
			}

			// Rate limiting runs after auth so limits key by subject
			if deps.RateLimitMiddleware != nil {
				r.Use(deps.RateLimitMiddleware.Limit)
			}

			r.Post("/completions", completionHandler.HandleCompletion)
			r.Post("/flashcards", studyHandler.HandleFlashcards)
			r.Route("/tutor", func(r chi.Router) {
				r.Post("/explain", studyHandler.HandleExplain)
				r.Post("/study-plan", studyHandler.HandleStudyPlan)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
