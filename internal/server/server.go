// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects stores, gateways, services,
// handlers and middleware. It decides:
// - Which URL patterns map to which handler functions
// - Which role guard protects which group of routes
// - How the client starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config
//	  → sqlite.DB (Durable Session Store) → session.Manager (hydrated once)
//	  → gateway.Client → Auth/Directory/Recommendation/Review/Admin gateways
//	  → services (validation) and view.Registry (per-view state)
//	  → handlers → chi routes
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/mentorlink/internal/auth"
	"github.com/sakif/mentorlink/internal/config"
	"github.com/sakif/mentorlink/internal/gateway"
	"github.com/sakif/mentorlink/internal/handler"
	"github.com/sakif/mentorlink/internal/middleware"
	"github.com/sakif/mentorlink/internal/model"
	sqliteRepo "github.com/sakif/mentorlink/internal/repository/sqlite"
	"github.com/sakif/mentorlink/internal/service"
	"github.com/sakif/mentorlink/internal/session"
	"github.com/sakif/mentorlink/internal/view"
	"github.com/sakif/mentorlink/web"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and the workspace registry.
// Close releases both; Start calls it on the way out.
type Server struct {
	router   *chi.Mux
	config   config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	sessions *session.Manager
	views    *view.Registry

	// ctx bounds every background fetch started by a workspace.
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Server from cfg and hydrates the session from disk.
//
// Each layer only receives what it needs:
// - the session manager gets the KVStore interface (not the concrete sqlite.DB)
// - services get their backend interfaces (not the HTTP client)
// - handlers get services and the session reader
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	// === CREATE DATABASE ===
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	codec, err := NewCodec(cfg.SessionSecret)
	if err != nil {
		db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	sessions := session.NewManager(db, codec, logger)
	sessions.Hydrate(ctx)

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		sessions: sessions,
		ctx:      ctx,
		cancel:   cancel,
	}

	if err := s.setupRoutes(); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// NewCodec picks the session record encoding: a signed token when a secret
// is configured, plain JSON otherwise.
func NewCodec(secret string) (session.Codec, error) {
	if secret == "" {
		return session.JSONCodec{}, nil
	}
	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		return nil, fmt.Errorf("session secret: %w", err)
	}
	return session.NewSealedCodec(tokens), nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET       /static/*                 → CSS
// GET       /metrics                  → Prometheus scrape
// GET       /healthz                  → liveness + session state (JSON)
// GET|POST  /login, /register         → public
// POST      /logout                   → public (always ends the session)
// /user...                            → any authenticated role
// /admin...                           → admin role only
// anything else                       → redirect to /login
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (logged by Logger)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Recoverer: catches panics and returns 500 instead of crashing
// 4. Logger: logs each request and records request metrics
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	pages, err := handler.NewRenderer(web.Templates, s.logger)
	if err != nil {
		return fmt.Errorf("creating renderer: %w", err)
	}

	// === Gateways ===
	client := gateway.NewClient(s.config.APIBaseURL, s.config.GatewayTimeout, s.logger)
	authGW := gateway.NewAuthGateway(client)
	directoryGW := gateway.NewDirectoryGateway(client, s.config.DirectoryCacheTTL)
	recommendGW := gateway.NewRecommendationGateway(client)
	reviewGW := gateway.NewReviewGateway(client)
	adminGW := gateway.NewAdminGateway(client)

	// === Services and view state ===
	authService := service.NewAuthService(authGW, s.sessions, s.logger)
	reviewService := service.NewReviewService(reviewGW, s.logger)
	adminService := service.NewAdminService(adminGW, directoryGW, s.logger)
	s.views = view.NewRegistry(s.ctx, directoryGW, recommendGW, reviewGW, s.config.ViewTTL, s.logger)

	authHandler := handler.NewAuthHandler(authService, s.sessions, pages, s.views.Close, s.logger)
	userHandler := handler.NewUserHandler(s.views, reviewService, s.sessions, pages, s.logger)
	adminHandler := handler.NewAdminHandler(adminService, s.sessions, pages, s.logger)

	// === Public routes ===
	s.router.Handle("/static/*", http.FileServer(http.FS(web.Static)))
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", authHandler.HandleHealth)

	s.router.Get(auth.LoginPath, authHandler.HandleLoginPage)
	s.router.Post(auth.LoginPath, authHandler.HandleLogin)
	s.router.Get("/register", authHandler.HandleRegisterPage)
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/logout", authHandler.HandleLogout)

	// === Authenticated routes ===
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(s.sessions, model.RoleNone, s.logger))

		r.Route(auth.UserHome, func(r chi.Router) {
			r.Get("/", userHandler.HandleView)
			r.Post("/institution", userHandler.HandleInstitution)
			r.Post("/department", userHandler.HandleDepartment)
			r.Post("/recommend", userHandler.HandleRecommend)
			r.Post("/back", userHandler.HandleBack)
			r.Post("/expand", userHandler.HandleExpand)
			r.Post("/collapse", userHandler.HandleCollapse)
			r.Get("/tutors/{id}/detail", userHandler.HandleDetail)
			r.Get("/submit-review", userHandler.HandleReviewForm)
			r.Post("/submit-review", userHandler.HandleSubmitReview)
		})
	})

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireRole(s.sessions, model.RoleAdmin, s.logger))

		r.Route(auth.AdminHome, func(r chi.Router) {
			r.Get("/", adminHandler.HandleConsole)
			r.Post("/professor", adminHandler.HandleSaveProfessor)
			r.Get("/users/{id}", adminHandler.HandleUserDetail)
			r.Post("/users/{id}/permission", adminHandler.HandleTogglePermission)
			r.Post("/reviews/{id}/delete", adminHandler.HandleDeleteReview)
		})
	})

	s.router.NotFound(auth.Fallback())
	s.router.MethodNotAllowed(auth.Fallback())
	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops every workspace and closes the database.
func (s *Server) Close() error {
	if s.views != nil {
		s.views.Close()
	}
	s.cancel()
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Stop workspace fetches and close the database (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf("127.0.0.1:%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		rec := s.sessions.Current()
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("backend", s.config.APIBaseURL),
			slog.String("database", s.config.DBPath),
			slog.Bool("authenticated", rec.Authenticated),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
