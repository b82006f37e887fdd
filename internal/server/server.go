// Package server is the composition root: it opens the store, builds every
// service and handler, mounts the routes and runs the HTTP server.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config ─→ sqlite.DB ─→ services ─→ handlers ─→ chi routes
//	               ↘ asset.Host, mail.Sender, worker.Pool ↗
//
// Each layer only receives what it needs. Services get repository
// interfaces, handlers get services, and nothing below this package knows
// how its collaborators were built.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/recipe-mate/internal/apperror"
	"github.com/sakif/recipe-mate/internal/asset"
	"github.com/sakif/recipe-mate/internal/auth"
	"github.com/sakif/recipe-mate/internal/config"
	"github.com/sakif/recipe-mate/internal/handler"
	"github.com/sakif/recipe-mate/internal/mail"
	"github.com/sakif/recipe-mate/internal/middleware"
	"github.com/sakif/recipe-mate/internal/model"
	"github.com/sakif/recipe-mate/internal/rating"
	sqliteRepo "github.com/sakif/recipe-mate/internal/repository/sqlite"
	"github.com/sakif/recipe-mate/internal/respond"
	"github.com/sakif/recipe-mate/internal/service"
	"github.com/sakif/recipe-mate/internal/validate"
	"github.com/sakif/recipe-mate/internal/worker"
)

// deps are the collaborators that talk to the outside world. New builds the
// real ones from config; tests substitute fakes.
type deps struct {
	db     *sqliteRepo.DB
	assets asset.Host
	mailer mail.Sender
}

// Server owns the router and every long-lived resource: the database, the
// background worker pool and the rate limiter's janitor goroutine. All of
// them are released by Close.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger

	db     *sqliteRepo.DB
	pool   *worker.Pool
	cancel context.CancelFunc
}

// New creates a Server from cfg.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	assets, err := asset.New(asset.Config{
		Driver:  cfg.Assets.Driver,
		Dir:     cfg.Assets.Dir,
		BaseURL: cfg.Assets.BaseURL,
		S3: asset.S3Config{
			Bucket:    cfg.Assets.S3Bucket,
			Region:    cfg.Assets.S3Region,
			Endpoint:  cfg.Assets.S3Endpoint,
			AccessKey: cfg.Assets.S3AccessKey,
			SecretKey: cfg.Assets.S3SecretKey,
			PublicURL: cfg.Assets.S3PublicURL,
		},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating asset host: %w", err)
	}

	var mailer mail.Sender
	if cfg.Mail.Host == "" {
		logger.Warn("MAIL_HOST not set, reset mails are only logged")
		mailer = mail.NewLogSender(logger)
	} else {
		mailer = mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			User:     cfg.Mail.User,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	}

	s, err := build(cfg, logger, deps{db: db, assets: assets, mailer: mailer})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// build wires services, handlers and routes around d.
func build(cfg config.Config, logger *slog.Logger, d deps) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.JWTExpiresIn)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(cfg.Auth.HashSecret)
	if err != nil {
		return nil, fmt.Errorf("creating password service: %w", err)
	}

	pool := worker.NewPool(worker.Config{Workers: cfg.Worker.Workers}, logger)
	pool.Start()

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     d.db,
		pool:   pool,
		cancel: cancel,
	}

	rs := respond.New(cfg.IsProduction(), logger)
	v := validate.New()
	ratings := rating.NewAggregator(d.db, pool, logger)

	authSvc := service.NewAuthService(d.db, d.db, tokens, passwords, d.mailer, v, cfg.Auth.ResetBaseURL, logger)
	recipeSvc := service.NewRecipeService(d.db, d.assets, v, logger)
	reviewSvc := service.NewReviewService(d.db, d.db, ratings, v, logger)
	userSvc := service.NewUserService(d.db, passwords, v, logger)

	h := handlers{
		auth:    handler.NewAuthHandler(authSvc, rs, cfg.IsProduction(), logger),
		recipe:  handler.NewRecipeHandler(recipeSvc, rs, logger),
		review:  handler.NewReviewHandler(reviewSvc, rs, logger),
		user:    handler.NewUserHandler(userSvc, rs, logger),
		health:  handler.NewHealthHandler(d.db, rs),
		recipes: middleware.Resolve[model.Recipe](rs, "recipeId", recipeSvc.Get),
		reviews: middleware.Resolve[model.Review](rs, "reviewId", reviewSvc.Get),
		users:   middleware.Resolve[model.User](rs, "userId", userSvc.Get),
	}

	s.setupRoutes(ctx, rs, tokens, h, d.assets)
	return s, nil
}

// handlers groups what setupRoutes mounts, including the resolvers for the
// path-addressed entities.
type handlers struct {
	auth   *handler.AuthHandler
	recipe *handler.RecipeHandler
	review *handler.ReviewHandler
	user   *handler.UserHandler
	health *handler.HealthHandler

	recipes func(http.Handler) http.Handler
	reviews func(http.Handler) http.Handler
	users   func(http.Handler) http.Handler
}

// setupRoutes mounts every route.
//
// ROUTE STRUCTURE:
//
//	GET  /health                      liveness, content-negotiated
//	GET  /assets/*                    local photo store (ASSET_DRIVER=local)
//	     /api/auth/...                rate-limited; some routes signed-in
//	     /api/recipe/...              signed-in
//	     /api/review/...              signed-in
//	     /api/query/recipe            signed-in
//	     /api/admin/{user,recipe}/... signed-in admins
//
// "Signed-in" is RequireAuth (valid token) followed by Authorise (the auth
// header names the token's user). Middleware runs in the order it is added.
func (s *Server) setupRoutes(ctx context.Context, rs *respond.Responder, tokens *auth.TokenService, h handlers, assets asset.Host) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		rs.Error(w, r, apperror.Missing("Route not found: "+r.URL.Path))
	})

	s.router.Get("/health", h.health.HandleHealth)

	if local, ok := assets.(*asset.LocalHost); ok {
		fileServer := http.FileServer(http.Dir(local.Dir()))
		s.router.Handle("/assets/*", http.StripPrefix("/assets/", fileServer))
	}

	signedIn := chi.Chain(
		auth.RequireAuth(tokens, rs),
		auth.Authorise(s.db, rs),
	)

	s.router.Route("/api", func(api chi.Router) {
		api.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(ctx, rs, s.config.Auth.RateRPS, s.config.Auth.RateBurst))

			r.Post("/signup", h.auth.HandleSignUp)
			r.Post("/signin", h.auth.HandleSignIn)
			r.Get("/signout", h.auth.HandleSignOut)
			r.Put("/forgotpassword", h.auth.HandleForgotPassword)
			r.Post("/reset/{resetToken}", h.auth.HandleResetPassword)

			r.With(signedIn...).Get("/", h.auth.HandleDetails)
			r.With(signedIn...).Post("/updatepassword", h.auth.HandleUpdatePassword)
		})

		api.Group(func(r chi.Router) {
			r.Use(signedIn...)

			r.Route("/recipe", func(r chi.Router) {
				r.Get("/all", h.recipe.HandleList)
				r.Get("/", h.recipe.HandleByUser)
				r.Post("/", h.recipe.HandleCreate)
				r.Get("/savedrecipes/all", h.recipe.HandleSaved)
				r.With(h.recipes).Put("/savedrecipes/{recipeId}", h.recipe.HandleToggleSave)

				r.Route("/{recipeId}", func(r chi.Router) {
					r.Use(h.recipes)
					r.Get("/", h.recipe.HandleGet)
					r.With(auth.RequireRecipeOwner(rs)).Put("/", h.recipe.HandleUpdate)
					r.With(auth.RequireRecipeOwner(rs)).Delete("/", h.recipe.HandleDelete)
				})
			})

			r.Route("/review", func(r chi.Router) {
				r.Post("/", h.review.HandleCreate)
				r.Get("/", h.review.HandleSummary)

				r.Route("/{reviewId}", func(r chi.Router) {
					r.Use(h.reviews)
					r.Get("/", h.review.HandleGet)
					r.With(auth.RequireReviewAuthor(rs)).Put("/", h.review.HandleUpdate)
					r.With(auth.RequireReviewAuthor(rs)).Delete("/", h.review.HandleDelete)
				})
			})

			r.Get("/query/recipe", h.recipe.HandleSearch)

			r.Route("/admin", func(r chi.Router) {
				r.Use(auth.RequireAdmin(rs))

				r.Route("/user", func(r chi.Router) {
					r.Get("/all", h.user.HandleList)
					r.Post("/", h.user.HandleCreate)
					r.Route("/{userId}", func(r chi.Router) {
						r.Use(h.users)
						r.Get("/", h.user.HandleGet)
						r.Put("/", h.user.HandleUpdate)
						r.Delete("/", h.user.HandleDelete)
					})
				})

				r.Route("/recipe", func(r chi.Router) {
					r.Get("/all", h.recipe.HandleList)
					r.Post("/", h.recipe.HandleCreate)
					r.Route("/{recipeId}", func(r chi.Router) {
						r.Use(h.recipes)
						r.Get("/", h.recipe.HandleGet)
						r.Put("/", h.recipe.HandleUpdate)
						r.Delete("/", h.recipe.HandleDelete)
					})
				})
			})
		})
	})
}

// Handler exposes the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close stops background work and closes the database. Queued rating
// recomputes are drained first.
func (s *Server) Close() error {
	s.cancel()
	s.pool.Stop()
	return s.db.Close()
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully:
//  1. stop accepting connections and wait for in-flight requests (30s)
//  2. drain the worker pool
//  3. close the database
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing server resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Env),
			slog.String("database", s.config.DBPath),
			slog.String("assets", s.config.Assets.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
