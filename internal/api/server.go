package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kbsmith/kbsmith/internal/artifact"
	"github.com/kbsmith/kbsmith/internal/config"
	"github.com/kbsmith/kbsmith/internal/generate"
	"github.com/kbsmith/kbsmith/internal/pipeline"
)

// Server is the HTTP API for the ingestion service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	store        *artifact.Store
	stats        *generate.Stats
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, store *artifact.Store, stats *generate.Stats, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		store:        store,
		stats:        stats,
		log:          log,
		cfg:          cfg,
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

		r.Post("/api/convert/pdf", s.handleConvertPDF)
		r.Post("/api/convert/docx", s.handleConvertDOCX)
		r.Post("/api/convert/markdown", s.handleConvertMarkdown)
		r.Post("/api/convert/url", s.handleConvertURL)

		r.Post("/api/generate/qa", s.handleGenerateQA)
		r.Post("/api/generate/summary", s.handleGenerateSummary)

		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/documents", s.handleListDocuments)
		r.Get("/api/documents/{stem}/download/{variant}", s.handleDownload)

		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
