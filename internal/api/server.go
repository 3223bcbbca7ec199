package api

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/benjaminschreck/docfill/pkg/docfill"
)

// DefaultMaxUploadBytes bounds template and model uploads.
const DefaultMaxUploadBytes = 32 << 20

// Options configure the HTTP API.
type Options struct {
	// APIKey enables bearer token auth on the /api routes when set.
	APIKey string
	// MaxUploadBytes bounds one uploaded file.
	MaxUploadBytes int64
}

// Server is the HTTP API of the fill engine.
type Server struct {
	router chi.Router
	engine *docfill.Engine
	log    *slog.Logger
	opts   Options
}

// NewServer creates and configures the HTTP server.
func NewServer(eng *docfill.Engine, log *slog.Logger, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Server{
		engine: eng,
		log:    log,
		opts:   opts,
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
	r.Get("/api/formats", s.handleFormats)

	r.Group(func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(AuthMiddleware(s.opts.APIKey, s.log))
		}

		r.Post("/api/fill", s.handleFill)
		r.Post("/api/inspect", s.handleInspect)
		r.Get("/api/templates", s.handleListTemplates)
		r.Put("/api/templates/{name}", s.handleRegisterTemplate)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
