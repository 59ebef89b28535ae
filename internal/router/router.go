package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/akshadjaiswal/hot-takes-arena/internal/handler"
	"github.com/akshadjaiswal/hot-takes-arena/internal/identity"
	"github.com/akshadjaiswal/hot-takes-arena/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Take     *handler.TakeHandler
	Vote     *handler.VoteHandler
	Report   *handler.ReportHandler
	Category *handler.CategoryHandler
	Stats    *handler.StatsHandler
	Admin    *handler.AdminHandler
	Health   *handler.HealthHandler
}

// Options carries the request-identity and coarse rate limit settings.
// APILimiter may be nil to disable the per-address HTTP limit.
type Options struct {
	CORSOrigins string
	Proxies     *identity.ProxyPolicy
	Hasher      identity.Hasher
	APILimiter  *middleware.RateLimiter
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, opts Options) {
	// Middleware stack (order matters): identity before logging so the
	// request log carries the ip hash.
	app.Use(recoverer.New())
	app.Use(middleware.NewIdentity(opts.Proxies, opts.Hasher))
	app.Use(middleware.NewRequestLogger())
	app.Use(handler.MetricsMiddleware())
	app.Use(middleware.NewCORS(opts.CORSOrigins))

	// Health and metrics (before API group, no auth, no rate limit)
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	api := app.Group("/api")
	if opts.APILimiter != nil {
		api.Use(opts.APILimiter.Handler())
	}

	// Take routes
	api.Get("/takes", h.Take.List)
	api.Post("/takes", h.Take.Create)
	api.Get("/takes/:id", h.Take.Get)

	// Vote routes
	api.Post("/votes", h.Vote.Submit)
	api.Post("/votes/check", h.Vote.Check)
	api.Get("/votes/counts", h.Vote.Counts)

	// Report routes
	api.Post("/reports", h.Report.Submit)

	api.Get("/categories", h.Category.List)
	api.Get("/stats", h.Stats.GetStats)

	// Admin routes; login and logout sit outside the auth guard
	api.Post("/admin/auth", h.Admin.Login)
	api.Delete("/admin/auth", h.Admin.Logout)

	admin := api.Group("/admin", middleware.RequireAdmin(h.Admin.Verifier()))
	admin.Get("/reports", h.Admin.ListReports)
	admin.Patch("/reports/:id", h.Admin.UpdateReport)
	admin.Get("/takes/:id/reports", h.Admin.TakeReports)
	admin.Put("/takes/:id/visibility", h.Admin.SetVisibility)
}
