// Package web provides the HTTP API over the bankpocket core: account
// and tag CRUD, tag assignment, manual reordering, and CSV
// import/export. It holds no business logic of its own.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/junnakarai/bankpocket/internal/config"
	"github.com/junnakarai/bankpocket/internal/core"
	"github.com/junnakarai/bankpocket/internal/csvio"
	"github.com/junnakarai/bankpocket/internal/web/middleware"
)

// Server is the HTTP server for the bankpocket API.
type Server struct {
	service *core.Service
	engine  *csvio.Engine
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server wired to the given service and CSV engine.
func NewServer(service *core.Service, engine *csvio.Engine, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		engine:  engine,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/accounts", s.handleListAccounts)
		r.Post("/accounts", s.handleCreateAccount)
		r.Patch("/accounts/{accountID}", s.handleUpdateAccount)
		r.Delete("/accounts/{accountID}", s.handleDeleteAccount)
		r.Post("/accounts/reorder", s.handleReorderAccounts)

		r.Put("/accounts/{accountID}/tags", s.handleReplaceTags)
		r.Post("/accounts/{accountID}/tags/{tagID}", s.handleAddTag)
		r.Delete("/accounts/{accountID}/tags/{tagID}", s.handleRemoveTag)

		r.Get("/tags", s.handleListTags)
		r.Post("/tags", s.handleCreateTag)
		r.Patch("/tags/{tagID}", s.handleUpdateTag)
		r.Delete("/tags/{tagID}", s.handleDeleteTag)
		r.Post("/tags/seed", s.handleSeedTags)

		r.Post("/import", s.handleImport)
		r.Get("/export", s.handleExport)
	})
}

// Start begins listening on the configured address. Blocks until the
// server stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.router }
