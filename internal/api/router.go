package api

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/rs/zerolog"

	"field-route-service/internal/api/handlers"
	"field-route-service/internal/services"
)

// NewRouter wires HTTP handlers with their dependencies and returns the
// router. This is the API composition root; handlers stay unaware of
// concrete adapters.
func NewRouter(planner *services.Planner, runner *services.JobRunner, logger zerolog.Logger, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	requestLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "field-route-service"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Use(httplog.RequestLogger(requestLogger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)

	planHandler := &handlers.PlanHandler{Planner: planner, Logger: logger}
	jobHandler := &handlers.JobHandler{Runner: runner, Logger: logger}

	r.Get("/health", handlers.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/route-plans", planHandler.Plan)
		r.Post("/route-plans/jobs", jobHandler.Submit)
		r.Get("/route-plans/jobs/{id}", jobHandler.Get)
	})

	return r
}
