// Package server implements the alarmd HTTP API server.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/dwsmith1983/alarmd/internal/engine"
)

// Options tunes the HTTP surface.
type Options struct {
	APIKey         string   // empty disables authentication
	MaxBodyBytes   int64    // 0 uses the 1 MiB default
	AllowedOrigins []string // CORS origins; empty allows none
	Logger         *slog.Logger
}

const defaultMaxBody = 1 << 20

// Server is the alarmd HTTP API server.
type Server struct {
	engine  *engine.Engine
	router  chi.Router
	handler http.Handler
	addr    string
	logger  *slog.Logger
	srv     *http.Server
}

// New creates a new HTTP server.
func New(addr string, eng *engine.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBody
	}
	s := &Server{
		engine: eng,
		addr:   addr,
		logger: opts.Logger,
	}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(opts.Logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))
	r.Use(APIKeyMiddleware(opts.APIKey))
	r.Use(MaxBodyMiddleware(opts.MaxBodyBytes))

	s.router = r
	s.registerRoutes(r)

	s.handler = cors.New(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-API-Key", "X-Request-ID"},
	}).Handler(r)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	return s
}

// Handler returns the root handler, CORS included.
func (s *Server) Handler() http.Handler { return s.handler }

// Start begins serving HTTP requests. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("alarmd server listening", "addr", s.addr)
	return s.srv.ListenAndServe()
}

// Stop gracefully shuts down the server. A server stopped before Start
// never begins listening.
func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
