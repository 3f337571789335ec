// Package api serves the extraction pipeline, draft generation and the
// application tracker over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"github.com/jmylchreest/jobscribe/internal/logger"
	"github.com/jmylchreest/jobscribe/internal/store"
	"github.com/jmylchreest/jobscribe/pkg/drafts"
	"github.com/jmylchreest/jobscribe/pkg/jobscribe"
)

// JobExtractor recovers posting fields from a URL.
type JobExtractor interface {
	ExtractJobDescription(ctx context.Context, req jobscribe.Request) (jobscribe.Result, error)
}

// DraftWriter generates application material.
type DraftWriter interface {
	GenerateDrafts(ctx context.Context, req drafts.DraftRequest) (drafts.Drafts, error)
	SummarizeResume(ctx context.Context, text string) (drafts.ResumeSummary, error)
}

// Store persists applications and the resume.
type Store interface {
	Create(ctx context.Context, app store.Application) (store.Application, error)
	Get(ctx context.Context, id string) (store.Application, error)
	List(ctx context.Context) ([]store.Application, error)
	UpdateStatus(ctx context.Context, id string, status store.Status) error
	Delete(ctx context.Context, id string) error
	SaveResume(ctx context.Context, r store.Resume) (store.Resume, error)
	LoadResume(ctx context.Context) (store.Resume, error)
}

type Server struct {
	router    *chi.Mux
	extractor JobExtractor
	writer    DraftWriter
	store     Store
	validate  *validator.Validate
}

// NewServer wires the routes. writer may be nil when no model is
// configured; the draft endpoints then answer 503.
func NewServer(extractor JobExtractor, writer DraftWriter, st Store) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		extractor: extractor,
		writer:    writer,
		store:     st,
		validate:  validator.New(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
	}))

	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/extract", s.handleExtract)
		r.Post("/drafts", s.handleDrafts)

		r.Get("/resume", s.handleGetResume)
		r.Put("/resume", s.handlePutResume)
		r.Post("/resume/summary", s.handleSummarizeResume)

		r.Get("/applications", s.handleListApplications)
		r.Post("/applications", s.handleCreateApplication)
		r.Get("/applications/{id}", s.handleGetApplication)
		r.Delete("/applications/{id}", s.handleDeleteApplication)
		r.Patch("/applications/{id}/status", s.handleUpdateStatus)
	})
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("encoding response", "error", err)
		status = http.StatusInternalServerError
		response = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
