package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/nexxacraft/community-admin/internal/auth"
	"github.com/nexxacraft/community-admin/internal/config"
	"github.com/nexxacraft/community-admin/internal/database"
	"github.com/nexxacraft/community-admin/internal/docstore"
	"github.com/nexxacraft/community-admin/internal/evidence"
	"github.com/nexxacraft/community-admin/internal/handlers"
	"github.com/nexxacraft/community-admin/internal/live"
	"github.com/nexxacraft/community-admin/internal/logging"
	"github.com/nexxacraft/community-admin/internal/metrics"
	"github.com/nexxacraft/community-admin/internal/middleware"
	"github.com/nexxacraft/community-admin/internal/repository"
	"github.com/nexxacraft/community-admin/internal/routes"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(db)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		logging.NewStdoutHandler(logging.ParseLevel(cfg.LogLevel)),
		dbLogHandler,
	)))

	cleanupDone := make(chan struct{})
	logging.StartCleanup(db, cfg.LogRetentionDays, cleanupDone)

	// Change feed
	var broker docstore.Broker = docstore.NewMemoryBroker()
	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		rb, err := docstore.NewRedisBrokerFromURL(ctx, cfg.RedisURL)
		cancel()
		if err != nil {
			slog.Error("redis connection failed", "error", err)
			os.Exit(1)
		}
		broker = rb
		slog.Info("change feed", "broker", "redis")
	} else {
		slog.Info("change feed", "broker", "memory")
	}

	// Store and services
	store := docstore.NewGormStore(db, broker)
	users := repository.NewUserRepository(store, cfg.UsersCollection)
	reports := repository.NewReportRepository(store, cfg.ReportsCollection)
	authService := auth.NewService(db, cfg, auth.LogMailer{})

	resolver, err := evidence.FromConfig(cfg)
	if err != nil {
		slog.Error("evidence signer setup failed", "error", err)
		os.Exit(1)
	}

	hub := live.NewHub(0)
	loc := cfg.Location()

	// Handlers
	h := routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService, cfg),
		Health:  handlers.NewHealthHandler(db),
		Users:   handlers.NewUsersHandler(users, cfg.RosterHideAdmins),
		Reports: handlers.NewReportsHandler(reports, resolver),
		Stats:   handlers.NewStatsHandler(users, reports, loc),
		Live: handlers.NewLiveHandler(authService, hub, users, reports, handlers.LiveOptions{
			Evidence:   resolver,
			Location:   loc,
			HideAdmins: cfg.RosterHideAdmins,
		}),
		Pages: handlers.NewPagesHandler(cfg.StaticDir),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	metrics.Register(app, metrics.Init("community-admin"), "/metrics")
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "same-origin")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, authService, h)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	hub.Shutdown()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if err := broker.Close(); err != nil {
		slog.Error("broker close error", "error", err)
	}

	close(cleanupDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "request_id", c.Locals("requestid"), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
