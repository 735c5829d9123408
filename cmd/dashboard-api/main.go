package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dimitrije/dashboard-api/internal/config"
	"github.com/dimitrije/dashboard-api/internal/database"
	"github.com/dimitrije/dashboard-api/internal/handlers"
	"github.com/dimitrije/dashboard-api/internal/logger"
	authmw "github.com/dimitrije/dashboard-api/internal/middleware"
	"github.com/dimitrije/dashboard-api/internal/oauth"
	"github.com/dimitrije/dashboard-api/internal/rbac"
	"github.com/dimitrije/dashboard-api/internal/services"
	"github.com/dimitrije/dashboard-api/internal/session"
	"github.com/dimitrije/dashboard-api/internal/sse"
	"github.com/dimitrije/dashboard-api/internal/storage"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logr, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logr.Sync() }()

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logr.Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		logr.Fatalw("failed to run migrations", "error", err)
	}

	var sessions session.Store
	if cfg.RedisURL != "" {
		client, err := session.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logr.Fatalw("failed to connect to redis", "error", err)
		}
		defer client.Close()
		sessions = session.NewRedisStore(client)
	} else {
		mem := session.NewMemoryStore()
		defer mem.Close()
		sessions = mem
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logr.Fatalw("failed to initialise storage", "backend", cfg.Storage.Backend, "error", err)
	}

	hub := sse.NewHub()
	go hub.Run()

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db, logr)
	tokenService := services.NewTokenService(db)
	profileService := services.NewProfileService(db)
	emailService := services.NewEmailService(cfg.SMTP)
	if !emailService.IsConfigured() {
		logr.Warn("SMTP is not configured; password reset mail will not be delivered")
	}

	resolver := rbac.NewResolver(profileService, logr)
	guard := rbac.NewGuard(resolver)
	provisioner := rbac.NewProvisioner(profileService)
	mutator := rbac.NewMutator(guard, profileService)

	accountService := services.NewAccountService(services.AccountConfig{
		PasswordResetURL:    cfg.PasswordResetURL,
		PasswordResetExpiry: cfg.PasswordResetExpiry,
	}, services.AccountDeps{
		Users:       userService,
		Tokens:      tokenService,
		Issuer:      jwtService,
		Mailer:      emailService,
		Files:       files,
		Events:      hub,
		Provisioner: provisioner,
		Resolver:    resolver,
		Log:         logr,
	})
	adminService := services.NewAdminService(userService, profileService, guard, mutator, hub, logr)

	providers := oauth.NewRegistry(cfg)

	authHandler := handlers.NewAuthHandler(cfg, providers, sessions, userService, tokenService, jwtService,
		provisioner, accountService, logr)
	userHandler := handlers.NewUserHandler(accountService)
	adminHandler := handlers.NewAdminHandler(adminService, logr)
	sseHandler := handlers.NewSSEHandler(hub, guard)

	app := drift.New()

	if cfg.IsProduction() {
		app.SetMode(drift.ReleaseMode)
	} else {
		app.SetMode(drift.DebugMode)
	}

	app.Use(middleware.Recovery())
	app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		MaxAge:       86400,
	}))
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Get("/:provider/consent", authHandler.GetConsentURL)
	auth.Get("/:provider/callback", authHandler.Callback)
	auth.Post("/exchange", authHandler.ExchangeCode)
	auth.Post("/refresh", authHandler.RefreshToken)
	auth.Post("/signin", authHandler.SignIn)
	auth.Post("/signup", authHandler.SignUp)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/password/reset", authHandler.RequestPasswordReset)
	auth.Post("/password/reset/confirm", authHandler.ConfirmPasswordReset)

	protected := api.Group("")
	protected.Use(authmw.Auth(jwtService))
	protected.Post("/auth/logout-all", authHandler.LogoutAll)

	// Session-aware routes: anonymous callers get data answers, not 401.
	withSession := api.Group("")
	withSession.Use(authmw.OptionalAuth(jwtService))
	withSession.Use(authmw.LoadIdentity(accountService))

	withSession.Get("/users/me", userHandler.GetMe)
	withSession.Get("/users/me/role", userHandler.GetRole)
	withSession.Patch("/users/me", userHandler.UpdateProfile)
	withSession.Put("/users/me/password", userHandler.UpdatePassword)
	withSession.Put("/users/me/avatar", userHandler.UploadAvatar)

	withSession.Get("/admin/users", adminHandler.ListUsers)
	withSession.Put("/admin/users/:id/role", adminHandler.UpdateRole)

	withSession.Get("/events", sseHandler.Connect)

	api.Get("/health", handlers.Health(db))

	page := app.Group("")
	page.Use(authmw.OptionalAuth(jwtService))
	page.Use(authmw.LoadIdentity(accountService))
	page.Use(authmw.AdminPage(guard, cfg.SignInPath, cfg.DefaultRedirectPath))
	page.Get("/admin", adminHandler.Page)

	mux := http.NewServeMux()
	if local, ok := files.(*storage.LocalStorage); ok {
		uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.BasePath())))
		mux.Handle("/uploads/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			uploads.ServeHTTP(w, r)
		}))
	}
	mux.Handle("/", app)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logr.Infow("metrics server starting", "addr", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logr.Errorw("metrics server failed", "error", err)
			}
		}()
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := tokenService.CleanupExpired(cleanupCtx); err != nil {
					logr.Warnw("token cleanup failed", "error", err)
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	go func() {
		logr.Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "providers", len(providers))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")

	// Ends open event streams so Shutdown does not wait on them.
	hub.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Errorw("server shutdown failed", "error", err)
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
}
