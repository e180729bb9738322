package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/taskdoc/internal/config"
	"github.com/dgallion1/taskdoc/internal/engine"
	"github.com/dgallion1/taskdoc/internal/store"
)

// Server is the HTTP API server for taskdoc.
type Server struct {
	router chi.Router
	store  *store.Store
	log    *slog.Logger
	cfg    config.Config
	opts   engine.Options
}

// NewServer creates and configures the HTTP server.
func NewServer(st *store.Store, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		store: st,
		log:   log,
		cfg:   cfg,
		opts:  cfg.EngineOptions(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		// Stateless: the caller sends the text with every request.
		r.Post("/api/apply", s.handleApplyText)
		r.Post("/api/tasks", s.handleListTasksText)
		r.Post("/api/links/resolve", s.handleResolveLink)
		r.Get("/api/stats/ops", s.handleOpStats)

		r.Route("/api/documents", func(r chi.Router) {
			r.Post("/", s.handleCreateDocument)
			r.Get("/", s.handleListDocuments)
			r.Route("/{docID}", func(r chi.Router) {
				r.Get("/", s.handleGetDocument)
				r.Delete("/", s.handleDeleteDocument)
				r.Get("/tasks", s.handleDocumentTasks)
				r.Get("/tasks/{taskID}", s.handleDocumentTask)
				r.Post("/apply", s.handleApplyDocument)
				r.Get("/next-id", s.handleNextID)
			})
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"documents": s.store.Len(),
	})
}
