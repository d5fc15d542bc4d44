// Package server provides the HTTP server and routing for folio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/config"
	"github.com/aristath/folio/internal/di"
	ledgerhandlers "github.com/aristath/folio/internal/modules/ledger/handlers"
	policyhandlers "github.com/aristath/folio/internal/modules/policy/handlers"
	pricehandlers "github.com/aristath/folio/internal/modules/prices/handlers"
	rebalancinghandlers "github.com/aristath/folio/internal/modules/rebalancing/handlers"
	signalhandlers "github.com/aristath/folio/internal/modules/signals/handlers"
	"github.com/aristath/folio/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container    // DI container with all services
	Jobs      *di.JobInstances // Jobs exposed for manual triggering, may be nil
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	databases := make(map[string]DatabaseChecker)
	for name, db := range cfg.Container.Databases() {
		databases[name] = db
	}

	var jobs map[string]scheduler.Job
	if cfg.Jobs != nil {
		jobs = cfg.Jobs.All()
	}

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      cfg.Container,
		systemHandlers: NewSystemHandlers(cfg.Log, databases, jobs),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	c := s.container
	ledgerHandler := ledgerhandlers.NewHandler(c.LedgerRepo, c.PolicyRepo, s.log)
	policyHandler := policyhandlers.NewHandler(c.PolicyRepo, s.log)
	signalHandler := signalhandlers.NewHandler(c.SignalsRepo, s.log)
	priceHandler := pricehandlers.NewHandler(c.PriceRepo, c.PriceSource, s.log)
	rebalancingHandler := rebalancinghandlers.NewHandler(c.RebalancingService, s.log)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/portfolios/{portfolioID}", func(r chi.Router) {
			ledgerHandler.RegisterRoutes(r)
			policyHandler.RegisterRoutes(r)
			signalHandler.RegisterRoutes(r)
			rebalancingHandler.RegisterRoutes(r)
		})

		policyHandler.RegisterTickerRoutes(r)
		priceHandler.RegisterRoutes(r)
		rebalancingHandler.RegisterPlanRoutes(r)

		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/jobs", s.systemHandlers.HandleListJobs)
			r.Post("/jobs/{name}/run", s.systemHandlers.HandleRunJob)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
