// Package server provides the HTTP server and routing for quantpick.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/aristath/quantpick/internal/config"
	"github.com/aristath/quantpick/internal/di"
	quantumhandlers "github.com/aristath/quantpick/internal/modules/quantum/handlers"
	selectionhandlers "github.com/aristath/quantpick/internal/modules/selection/handlers"
	statisticshandlers "github.com/aristath/quantpick/internal/modules/statistics/handlers"
)

// ServiceName is reported by the health endpoint
const ServiceName = "QAOA Portfolio Optimizer"

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server is the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	container *di.Container
	startedAt time.Time
}

// New creates a server with all routes registered
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		container: cfg.Container,
		startedAt: time.Now(),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.Config.RequestTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	c := s.container

	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))

	selection := selectionhandlers.NewHandler(
		c.Selector,
		c.Statistics,
		objectSource(c),
		selectionhandlers.Config{
			MaxUploadBytes: int64(s.cfg.MaxUploadMB) << 20,
			RequestTimeout: s.cfg.RequestTimeout,
		},
		s.log,
	)
	limiter := newRateLimiter(s.cfg.RateLimit.RPS, s.cfg.RateLimit.Burst)

	// Original upload endpoint kept at the root
	s.router.With(limiter.Middleware).Post("/optimize/today", selection.HandleOptimizeToday)

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(limiter.Middleware)
			selection.RegisterRoutes(r)
			quantumhandlers.NewHandler(c.Simulator, quantumhandlers.Config{
				MaxBodyBytes: int64(s.cfg.MaxUploadMB) << 20,
				MaxDepth:     s.cfg.Search.MaxDepth,
			}, s.log).RegisterRoutes(r)
		})

		statisticshandlers.NewHandler(c.Statistics, c.EventBus, int64(s.cfg.MaxUploadMB)<<20, s.log).RegisterRoutes(r)

		system := NewSystemHandlers(c, s.startedAt, s.log)
		r.Get("/system/status", system.HandleSystemStatus)

		r.Get("/events/ws", NewEventsSocketHandler(c.EventBus, s.cfg.AllowedOrigins, s.cfg.DevMode, s.log).ServeHTTP)
	})
}

// objectSource avoids handing a typed nil client to the handler
func objectSource(c *di.Container) selectionhandlers.ObjectSource {
	if c.ObjectStore == nil {
		return nil
	}
	return c.ObjectStore
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
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

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": ServiceName,
	})
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
