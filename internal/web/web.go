// Package web is the server-rendered Apex Kudos client.
//
// Every page follows the same cycle:
//
//	guard → read session cookie → API client calls (concurrent) → view model → template
//
// Mutations are plain HTML form posts. A successful or failed mutation sets a
// short-lived flash and redirects back to the page (Post/Redirect/Get), so
// the next GET re-reads everything from the backend. Nothing is cached
// between requests; the backend is the only source of truth.
package web

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

	"github.com/apexkudos/kudos/internal/apiclient"
	"github.com/apexkudos/kudos/internal/config"
	"github.com/apexkudos/kudos/internal/middleware"
	"github.com/apexkudos/kudos/internal/session"
)

// Server is the web client HTTP server.
type Server struct {
	router  *chi.Mux
	config  config.WebConfig
	logger  *slog.Logger
	api     *apiclient.Client
	pages   *pageSet
	cookies session.CookieOptions

	inflight *inflight
	views    *generations
}

// New builds the web client. It does not contact the backend.
func New(cfg config.WebConfig, logger *slog.Logger, opts ...apiclient.Option) (*Server, error) {
	opts = append([]apiclient.Option{apiclient.WithTimeout(cfg.RequestTimeout)}, opts...)
	api, err := apiclient.New(cfg.APIBaseURL, nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("web: %w", err)
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("web: parsing templates: %w", err)
	}

	if cfg.FlashTTL <= 0 {
		cfg.FlashTTL = config.Default().Web.FlashTTL
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		api:      api,
		pages:    pages,
		cookies:  session.CookieOptions{Secure: cfg.CookieSecure},
		inflight: newInflight(),
		views:    newGenerations(),
	}
	s.setupRoutes()
	return s, nil
}

// setupRoutes registers pages and form actions.
//
// ROUTE STRUCTURE:
//
//	GET       /                       → /dashboard or /login
//	GET/POST  /login, /register       → public
//	POST      /logout                 → public (clearing nothing is harmless)
//	*         everything else         → session required
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(s.withSession)

	s.router.Get("/", s.handleRoot)

	s.router.Get("/login", s.handleLoginPage)
	s.router.Post("/login", s.handleLogin)
	s.router.Get("/register", s.handleRegisterPage)
	s.router.Post("/register", s.handleRegister)
	s.router.Post("/logout", s.handleLogout)

	s.router.Group(func(r chi.Router) {
		r.Use(requireSession)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/my-profile", s.handleMyProfile)

		r.Get("/give-praise", s.handleGivePraisePage)
		r.Post("/give-praise", s.handleGivePraise)

		r.Get("/rewards", s.handleRewards)
		r.Post("/rewards/{id}/redeem", s.handleRedeem)

		r.Get("/admin", s.handleAdmin)
		r.Post("/admin/core-values", s.handleCreateCoreValue)
		r.Post("/admin/core-values/{id}/delete", s.handleDeleteCoreValue)
		r.Post("/admin/rewards", s.handleCreateReward)
		r.Post("/admin/rewards/{id}/delete", s.handleDeleteReward)
		r.Post("/admin/redemptions/{id}/fulfill", s.handleFulfill)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if sessionFrom(r).IsAuthenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// Handler exposes the router, e.g. for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15*time.Second + s.config.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("web server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("api", s.config.APIBaseURL),
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
		s.logger.Info("web server stopped gracefully")
	}

	return nil
}
