package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studyloop/mentor/internal/api"
	"github.com/studyloop/mentor/internal/api/handlers"
	"github.com/studyloop/mentor/internal/api/middleware"
)

type RouterConfig struct {
	DocumentsHandler *handlers.DocumentsHandler
	QueryHandler     *handlers.QueryHandler
	PlanHandler      *handlers.PlanHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 30 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Get("/", cfg.DocumentsHandler.List)
		r.Get("/indexed", cfg.DocumentsHandler.ListIndexed)
		r.Post("/upload", cfg.DocumentsHandler.Upload)
	})

	r.Post("/ingest", cfg.DocumentsHandler.Ingest)
	r.Post("/query", cfg.QueryHandler.Ask)
	r.Post("/plans", cfg.PlanHandler.Create)

	return r
}
