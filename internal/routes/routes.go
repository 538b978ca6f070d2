package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/nexxacraft/community-admin/internal/auth"
	"github.com/nexxacraft/community-admin/internal/config"
	"github.com/nexxacraft/community-admin/internal/handlers"
	"github.com/nexxacraft/community-admin/internal/middleware"
)

// Handlers groups everything Setup mounts.
type Handlers struct {
	Auth    *handlers.AuthHandler
	Health  *handlers.HealthHandler
	Users   *handlers.UsersHandler
	Reports *handlers.ReportsHandler
	Stats   *handlers.StatsHandler
	Live    *handlers.LiveHandler
	Pages   *handlers.PagesHandler
}

func Setup(app *fiber.App, cfg *config.Config, authService *auth.Service, h Handlers) {
	sessionMW := middleware.Session(authService, cfg)

	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	authGroup := api.Group("/auth")
	authGroup.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	authGroup.Post("/login", sessionMW, h.Auth.Login)
	authGroup.Post("/password-reset", sessionMW, h.Auth.PasswordReset)
	authGroup.Post("/password-reset/confirm", h.Auth.PasswordResetConfirm)

	// Protected routes (JWT + live staff session)
	protected := []fiber.Handler{middleware.JWTProtected(cfg), sessionMW, middleware.RequireSession()}
	api.Post("/auth/logout", append(protected, h.Auth.Logout)...)
	api.Get("/auth/me", append(protected, h.Auth.Me)...)

	staff := api.Group("", protected...)
	staff.Get("/stats", h.Stats.Get)

	staff.Get("/users", h.Users.List)
	staff.Post("/users", h.Users.Create)
	staff.Patch("/users/:id", h.Users.Update)
	staff.Post("/users/:id/toggle-active", h.Users.ToggleActive)
	staff.Delete("/users/:id", h.Users.Delete)

	staff.Get("/reports", h.Reports.List)
	staff.Get("/reports/:id", h.Reports.Get)
	staff.Put("/reports/:id", h.Reports.UpdateStatus)

	liveGroup := staff.Group("/live", h.Live.Upgrade)
	liveGroup.Get("/overview", h.Live.Overview())
	liveGroup.Get("/users", h.Live.Users())
	liveGroup.Get("/reports", h.Live.Reports())

	// Pages
	app.Get("/", h.Pages.Root)
	app.Get("/login", sessionMW, middleware.LoginGate(), h.Pages.Login)
	pages := app.Group("/dashboard", sessionMW, middleware.PageGuard())
	pages.Get("/", h.Pages.Overview)
	pages.Get("/users", h.Pages.Users)
	pages.Get("/reports", h.Pages.Reports)

	if cfg.StaticDir != "" {
		app.Static("/assets", cfg.StaticDir)
	}
}
