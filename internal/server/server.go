// Package server exposes the dashboard HTTP API.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/psilva/leadboard/internal/campaign"
	"github.com/psilva/leadboard/internal/config"
	"github.com/psilva/leadboard/internal/journal"
	"github.com/psilva/leadboard/internal/metrics"
	"github.com/psilva/leadboard/internal/repository"
	"github.com/psilva/leadboard/internal/unipile"
)

// Server is the HTTP API server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	config     *config.Config
	logger     *slog.Logger

	emails       *repository.EmailRepository
	settings     *repository.SettingsRepository
	orchestrator *campaign.Orchestrator
	unipile      *unipile.Client
	journal      *journal.Journal
	metrics      *metrics.Metrics
}

// Deps carries the server's collaborators.
type Deps struct {
	Emails       *repository.EmailRepository
	Settings     *repository.SettingsRepository
	Orchestrator *campaign.Orchestrator
	Unipile      *unipile.Client
	Journal      *journal.Journal
	Metrics      *metrics.Metrics
}

// New creates the API server and wires up its routes
func New(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		config:       cfg,
		logger:       logger,
		emails:       deps.Emails,
		settings:     deps.Settings,
		orchestrator: deps.Orchestrator,
		unipile:      deps.Unipile,
		journal:      deps.Journal,
		metrics:      deps.Metrics,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures the HTTP routes
func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.HTTPMiddleware)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	// Hosted-auth redirect target, identity travels in the query string.
	s.router.Get("/linkedin/callback", s.handleLinkedInCallback)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.userMiddleware)

		r.Get("/emails", s.handleListEmails)
		r.Patch("/emails/{id}", s.handleUpdateEmail)

		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)

		r.Post("/campaigns/linkedin", s.handleLinkedInCampaign)
		r.Post("/campaigns/linkedin/preview", s.handleLinkedInPreview)
		r.Post("/campaigns/search", s.handleSearchTrigger)
		r.Post("/campaigns/initial-emails", s.handleInitialEmails)

		r.Post("/linkedin/connect", s.handleLinkedInConnect)
		r.Delete("/linkedin/account", s.handleLinkedInDisconnect)

		r.Get("/dispatches", s.handleListDispatches)
	})
}

// Handler returns the root handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the server and blocks until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.config.Server.ListenAddr,
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  s.config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.config.Server.ListenAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}
