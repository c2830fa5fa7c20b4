// Package server wires the REST backend: database, services, handlers, and
// the chi router.
//
// This is the "composition root": every dependency is constructed in New and
// setupRoutes, never inside handlers or services.
//
//	sqlite.DB → services (auth, praise, core values, rewards, users) → handlers → router
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

	"github.com/apexkudos/kudos/internal/auth"
	"github.com/apexkudos/kudos/internal/config"
	"github.com/apexkudos/kudos/internal/handler"
	"github.com/apexkudos/kudos/internal/middleware"
	sqliteRepo "github.com/apexkudos/kudos/internal/repository/sqlite"
	"github.com/apexkudos/kudos/internal/service"
	"github.com/apexkudos/kudos/internal/slack"
)

// Server is the backend HTTP server and everything it owns.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection and closes it when Start returns.
type Server struct {
	router *chi.Mux
	config config.APIConfig
	logger *slog.Logger
	db     *sqliteRepo.DB
	auth   *service.AuthService
}

// New opens the database, builds the dependency graph, promotes configured
// admins, and registers all routes.
func New(ctx context.Context, cfg config.APIConfig, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		auth:   service.NewAuthService(db, tokens, auth.NewPasswordService(), logger),
	}

	if err := s.auth.PromoteAdmins(ctx, cfg.AdminEmails); err != nil {
		db.Close()
		return nil, fmt.Errorf("server: %w", err)
	}

	s.setupRoutes(tokens)
	return s, nil
}

// setupRoutes configures middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /                                → health
//	POST   /register, /token, /login        → public auth
//	GET    /core-values, /praise, /rewards  → public reads
//	GET    /me, /praise/received, /users, /my-redemptions
//	POST   /praise, /redeem                 → bearer token
//	*      /admin/*                         → bearer token + is_admin
//	POST   /slack/*                         → Slack signature (when configured)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID  2. RealIP  3. Recoverer  4. Logger
func (s *Server) setupRoutes(tokens *auth.TokenService) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	users := service.NewUserService(s.db, s.logger)
	coreValues := service.NewCoreValueService(s.db, s.logger)
	praise := service.NewPraiseService(s.db, s.db, s.db, s.logger)
	rewards := service.NewRewardService(s.db, s.db, s.logger)
	if s.config.SlackBotToken != "" {
		praise.SetNotifier(slack.NewNotifier(s.config.SlackBotToken, s.config.SlackAPIURL, s.logger))
	} else {
		s.logger.Info("slack bot token not set; praise DMs disabled")
	}

	authHandler := handler.NewAuthHandler(s.auth, s.logger)
	kudosHandler := handler.NewKudosHandler(coreValues, praise, users, s.logger)
	rewardHandler := handler.NewRewardHandler(rewards, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	requireAdmin := auth.RequireAdmin(s.auth)

	s.router.Get("/", s.handleHealth)

	// === Public ===
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/token", authHandler.HandleToken)
	s.router.Post("/login", authHandler.HandleToken)
	s.router.Get("/core-values", kudosHandler.HandleListCoreValues)
	s.router.Get("/praise", kudosHandler.HandleListPraise)
	s.router.Get("/rewards", rewardHandler.HandleList)

	// === Authenticated ===
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/me", authHandler.HandleMe)
		r.Post("/praise", kudosHandler.HandleGivePraise)
		r.Get("/praise/received", kudosHandler.HandleReceivedPraise)
		r.Post("/redeem", rewardHandler.HandleRedeem)
		r.Get("/my-redemptions", rewardHandler.HandleMyRedemptions)
		r.Get("/users", kudosHandler.HandleListUsers)
	})

	// === Admin ===
	s.router.Route("/admin", func(r chi.Router) {
		r.Use(requireAuth, requireAdmin)
		r.Post("/core-values", kudosHandler.HandleCreateCoreValue)
		r.Delete("/core-values/{id}", kudosHandler.HandleDeleteCoreValue)
		r.Post("/rewards", rewardHandler.HandleCreate)
		r.Delete("/rewards/{id}", rewardHandler.HandleDelete)
		r.Get("/redemptions", rewardHandler.HandleAllRedemptions)
		r.Patch("/redemptions/{id}/fulfill", rewardHandler.HandleFulfill)
	})

	// === Slack ===
	if s.config.SlackSigningSecret != "" {
		slackHandler := slack.NewHandler(s.config.SlackSigningSecret, users, praise, coreValues, s.logger)
		s.router.Mount("/slack", slackHandler.Routes())
	} else {
		s.logger.Info("slack signing secret not set; /slack commands disabled")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, `{"message":"database unavailable"}`)
		return
	}
	fmt.Fprintln(w, `{"message":"Apex Kudos API is running!"}`)
}

// Handler exposes the router, e.g. for httptest servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT/SIGTERM, then shuts down gracefully.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new connections
// 2. Give in-flight requests 30s to finish
// 3. Close the database (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("api server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
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
		s.logger.Info("api server stopped gracefully")
	}

	return nil
}
