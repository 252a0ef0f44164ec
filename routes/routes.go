package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/upb/llm-orchestrator/app"
	"github.com/upb/llm-orchestrator/handlers"
	"github.com/upb/llm-orchestrator/middleware"
	"github.com/upb/llm-orchestrator/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger.Named("http")))
	r.Use(chimw.Recoverer)

	// Browser clients call the API from any origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	inferenceHandler := handlers.NewInferenceHandler(deps.Inference, deps.Logger.Named("handlers"))
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Inference, deps.Logger.Named("health"))
	requestLogHandler := handlers.NewRequestLogHandler(deps.RequestLogs, deps.Logger.Named("handlers"))

	// Health check endpoints
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	r.Post("/generate", inferenceHandler.HandleGenerate)
	r.Get("/stats", inferenceHandler.HandleStats)

	// Admin routes
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthMiddleware.RequireAuth)
		r.Use(deps.AuthMiddleware.RequireRole(middleware.AdminRole))

		r.Post("/reset", inferenceHandler.HandleReset)

		r.Route("/requests", func(r chi.Router) {
			r.Get("/", requestLogHandler.HandleList)
			r.Get("/summary", requestLogHandler.HandleSummary)
			r.Get("/{request_id}", requestLogHandler.HandleGet)
		})
	})

	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
