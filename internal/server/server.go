// Package server wires handlers, middleware and routes, and runs the HTTP
// server with graceful shutdown.
//
// New is the composition root:
//
//	config → sqlite.DB → EngagementService / AuthService → handlers → chi routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services.
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

	"github.com/sakif/postagram/internal/auth"
	"github.com/sakif/postagram/internal/config"
	"github.com/sakif/postagram/internal/handler"
	"github.com/sakif/postagram/internal/media"
	"github.com/sakif/postagram/internal/metrics"
	"github.com/sakif/postagram/internal/middleware"
	sqliteRepo "github.com/sakif/postagram/internal/repository/sqlite"
	"github.com/sakif/postagram/internal/service"
)

// Deps are the pieces New would otherwise build from config. Tests inject
// fakes through them; nil fields are built from config.
type Deps struct {
	Identity auth.IdentityProvider
	Media    media.Store
}

// Server owns the router and the database connection, which it closes on
// shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	deps   Deps
}

// New opens the database, builds the services and registers every route.
func New(cfg *config.Config, logger *slog.Logger, deps Deps) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		deps:   deps,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// setupRoutes configures middleware and routes.
//
// ROUTES:
//
//	GET    /healthz                          liveness (pings the database)
//	GET    /metrics                          Prometheus
//	GET    /auth/github/login                start OAuth
//	GET    /auth/github/callback             finish OAuth, set session cookie
//	POST   /auth/logout                      clear session cookie
//	GET    /api/posts                        feed                    (optional auth)
//	GET    /api/profiles/{username}          profile + counts        (optional auth)
//	GET    /api/profiles/{username}/posts    user's posts            (optional auth)
//	GET    /api/profiles/{username}/likes    posts the user liked    (optional auth)
//	GET    /api/me                           current user            (auth)
//	PATCH  /api/me/profile                   edit profile            (auth)
//	POST   /api/posts                        create post             (auth)
//	DELETE /api/posts/{id}                   delete own post         (auth)
//	POST   /api/posts/{id}/like              toggle like             (auth)
//	POST   /api/posts/{id}/comments          comment                 (auth)
//	POST   /api/users/{id}/follow            toggle follow           (auth)
//	GET    /api/users/suggestions            who to follow           (auth)
//	GET    /api/notifications                list                    (auth)
//	GET    /api/notifications/unread-count   badge                   (auth)
//	POST   /api/notifications/read           mark read               (auth)
//	POST   /api/uploads                      image upload            (auth, media configured)
//
// MIDDLEWARE ORDER: RequestID → RealIP → Logger → Metrics → Recoverer.
// Recoverer sits innermost so a recovered panic is still logged and
// counted as a 500.
//
// Without JWT_SECRET nothing can identify a user, so only the public read
// routes are registered.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", handler.HandleHealth(s.db, s.logger))
	s.router.Handle("/metrics", metrics.Handler())

	engagement := service.NewEngagementService(s.db, s.logger)
	posts := handler.NewPostHandler(engagement, s.logger)
	users := handler.NewUserHandler(engagement, s.logger)
	notifications := handler.NewNotificationHandler(engagement, s.logger)

	if !s.config.AuthEnabled() {
		s.logger.Warn("JWT_SECRET not set; authentication and all write routes are disabled")
		s.router.Route("/api", func(r chi.Router) {
			s.publicRoutes(r, posts, users)
		})
		return nil
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	authService := service.NewAuthService(s.db, tokens, s.logger)

	identity := s.deps.Identity
	if identity == nil {
		identity = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}
	authHandler := handler.NewAuthHandler(identity, authService, s.config.CookieSecure, s.logger)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	uploads, err := s.uploadHandler()
	if err != nil {
		return err
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			s.publicRoutes(r, posts, users)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)
			r.Patch("/me/profile", users.HandleUpdateProfile)

			r.Post("/posts", posts.HandleCreate)
			r.Delete("/posts/{id}", posts.HandleDelete)
			r.Post("/posts/{id}/like", posts.HandleToggleLike)
			r.Post("/posts/{id}/comments", posts.HandleCreateComment)

			r.Get("/users/suggestions", users.HandleSuggestions)
			r.Post("/users/{id}/follow", users.HandleToggleFollow)

			r.Get("/notifications", notifications.HandleList)
			r.Get("/notifications/unread-count", notifications.HandleUnreadCount)
			r.Post("/notifications/read", notifications.HandleMarkRead)

			if uploads != nil {
				r.Post("/uploads", uploads.HandleUpload)
			}
		})
	})

	return nil
}

func (s *Server) publicRoutes(r chi.Router, posts *handler.PostHandler, users *handler.UserHandler) {
	r.Get("/posts", posts.HandleFeed)
	r.Get("/profiles/{username}", users.HandleProfile)
	r.Get("/profiles/{username}/posts", users.HandleUserPosts)
	r.Get("/profiles/{username}/likes", users.HandleLikedPosts)
}

// uploadHandler returns nil when no media store is configured.
func (s *Server) uploadHandler() (*handler.UploadHandler, error) {
	store := s.deps.Media
	if store == nil {
		if !s.config.MediaEnabled() {
			s.logger.Info("MINIO_ENDPOINT not set; image uploads are disabled")
			return nil, nil
		}

		minioStore, err := media.NewMinIO(s.config.MinIO)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := minioStore.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		store = minioStore
	}
	return handler.NewUploadHandler(store, s.logger), nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down:
//  1. stop accepting new connections
//  2. wait up to 30s for in-flight requests
//  3. close the database (flushes the WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("auth", s.config.AuthEnabled()),
			slog.Bool("media", s.config.MediaEnabled() || s.deps.Media != nil),
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
