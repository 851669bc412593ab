// Package server provides the Atelier API HTTP server: routing, the
// envelope/translation/error pipeline, and the content handlers.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/atelierhq/atelier-api/internal/auth"
	"github.com/atelierhq/atelier-api/internal/config"
	"github.com/atelierhq/atelier-api/internal/events"
	"github.com/atelierhq/atelier-api/internal/i18n"
	"github.com/atelierhq/atelier-api/internal/maintenance"
	"github.com/atelierhq/atelier-api/internal/store"
)

// Server represents the Atelier API server.
type Server struct {
	cfg    *config.Config
	echo   *echo.Echo
	logger zerolog.Logger

	store   *store.Store
	bundle  *i18n.Bundle
	tokens  *auth.Manager
	events  events.Publisher
	webhook *resty.Client
	maint   *maintenance.Scheduler
}

// New creates a new API server. The translation bundle, store, and token
// manager are owned here and injected into the handlers.
func New(cfg *config.Config, st *store.Store, bundle *i18n.Bundle, publisher events.Publisher, logger zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewCustomValidator()

	s := &Server{
		cfg:    cfg,
		echo:   e,
		logger: logger.With().Str("component", "server").Logger(),
		store:  st,
		bundle: bundle,
		tokens: auth.NewManager(
			cfg.Auth.Secret,
			time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute,
			time.Duration(cfg.Auth.RefreshTTLDays)*24*time.Hour,
		),
		events:  publisher,
		webhook: resty.New().SetTimeout(10 * time.Second),
		maint:   maintenance.New(logger),
	}

	e.HTTPErrorHandler = s.HTTPErrorHandler

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	err := s.maint.Register("purge-refresh-tokens", "@hourly",
		maintenance.PurgeRefreshTokens(s.store, s.logger))
	if err != nil {
		return fmt.Errorf("failed to schedule token purge: %w", err)
	}
	err = s.maint.Register("sweep-orphan-uploads", "@daily",
		maintenance.SweepOrphanUploads(s.store, s.cfg.Uploads.Dir, s.logger))
	if err != nil {
		return fmt.Errorf("failed to schedule upload sweep: %w", err)
	}
	s.maint.Start()

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	go func() {
		s.logger.Info().Str("addr", addr).Msg("API server starting")
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal().Err(err).Msg("API server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info().Msg("Shutting down API server...")
	return s.Shutdown()
}

// Shutdown stops the scheduler, the HTTP listener, and the event publisher.
func (s *Server) Shutdown() error {
	s.maint.Stop(5 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if err := s.events.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to close event publisher")
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:    true,
		LogStatus: true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Msg("request")
			return nil
		},
	}))

	// Recover from panics
	s.echo.Use(middleware.Recover())

	// Rate Limiting (Global)
	s.echo.Use(s.RateLimitMiddleware())

	// CORS
	s.echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.cfg.CORS.Origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Accept-Language"},
	}))

	// Locale resolution applies to every route so the error handler always
	// has a lang, including for 404s outside /api.
	s.echo.Use(LanguageMiddleware())
}

// setupRoutes configures HTTP routes.
func (s *Server) setupRoutes() {
	// Health check
	s.echo.GET("/health", s.handleHealth)

	// Uploaded files are served directly, outside the envelope pipeline.
	s.echo.Static("/uploads", s.cfg.Uploads.Dir)

	// API routes
	api := s.echo.Group("/api/v1")
	api.Use(s.ResponseInterceptor())
	api.Use(s.OptionalAuthMiddleware)
	{
		// Auth
		authGroup := api.Group("/auth")
		authGroup.POST("/register", s.handleRegister)
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/refresh", s.handleRefresh)
		authGroup.POST("/logout", s.handleLogout, s.RequireAuth)
		authGroup.GET("/me", s.handleMe, s.RequireAuth)

		// Users
		api.GET("/users", s.handleListUsers, s.RequireAdmin)
		api.GET("/users/:id", s.handleGetUser, s.RequireAdmin)
		api.DELETE("/users/:id", s.handleDeleteUser, s.RequireAdmin)
		api.PUT("/users/me", s.handleUpdateProfile, s.RequireAuth)
		api.POST("/users/me/password", s.handleChangePassword, s.RequireAuth)

		// Projects
		api.GET("/projects", s.handleListProjects)
		api.GET("/projects/:id", s.handleGetProject)
		api.POST("/projects", s.handleCreateProject, s.RequireAuth)
		api.PUT("/projects/:id", s.handleUpdateProject, s.RequireAuth)
		api.DELETE("/projects/:id", s.handleDeleteProject, s.RequireAuth)

		// Services
		api.GET("/services", s.handleListServices)
		api.GET("/services/:id", s.handleGetService)
		api.POST("/services", s.handleCreateService, s.RequireAuth)
		api.PUT("/services/:id", s.handleUpdateService, s.RequireAuth)
		api.DELETE("/services/:id", s.handleDeleteService, s.RequireAuth)

		// Testimonials
		api.GET("/testimonials", s.handleListTestimonials)
		api.GET("/testimonials/:id", s.handleGetTestimonial)
		api.POST("/testimonials", s.handleCreateTestimonial, s.RequireAuth)
		api.PUT("/testimonials/:id", s.handleUpdateTestimonial, s.RequireAuth)
		api.DELETE("/testimonials/:id", s.handleDeleteTestimonial, s.RequireAuth)

		// Contacts (create is the public contact form)
		api.POST("/contacts", s.handleCreateContact)
		api.GET("/contacts", s.handleListContacts, s.RequireAdmin)
		api.GET("/contacts/:id", s.handleGetContact, s.RequireAdmin)
		api.POST("/contacts/:id/read", s.handleMarkContactRead, s.RequireAdmin)
		api.DELETE("/contacts/:id", s.handleDeleteContact, s.RequireAdmin)

		// Settings
		api.GET("/settings", s.handleListSettings)
		api.GET("/settings/:key", s.handleGetSetting)
		api.PUT("/settings", s.handleUpdateSettings, s.RequireAdmin)

		// Uploads
		api.POST("/uploads", s.handleCreateUpload, s.RequireAuth)
		api.GET("/uploads", s.handleListUploads, s.RequireAuth)
		api.DELETE("/uploads/:id", s.handleDeleteUpload, s.RequireAuth)
	}
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
