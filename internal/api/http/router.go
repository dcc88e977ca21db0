package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/finsupport/triage-service/internal/api/http/handlers"
	"github.com/finsupport/triage-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Triage         *handlers.TriageHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/counters", cfg.Health.Counters)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	triage := app.Group("/triage", cfg.AuthMiddleware.Handle)
	triage.Post("/refresh", cfg.Triage.Refresh)
	triage.Put("/filters", cfg.Triage.Filters)
	triage.Get("/inbox", cfg.Triage.Inbox)
	triage.Get("/queue", cfg.Triage.Queue)
	triage.Get("/categories", cfg.Triage.Categories)
	triage.Get("/alerts", cfg.Triage.Alerts)
	triage.Get("/stats", cfg.Triage.Stats)
	triage.Get("/metrics", cfg.Triage.Metrics)
	triage.Post("/fetch-emails", cfg.Triage.FetchEmails)
	triage.Post("/tickets/:id/select", cfg.Triage.Select)
	triage.Delete("/selection", cfg.Triage.Deselect)
	triage.Post("/tickets/:id/approve", cfg.Triage.Approve)
	triage.Post("/tickets/:id/close", cfg.Triage.Close)

	audit := app.Group("/audit", cfg.AuthMiddleware.Handle)
	audit.Get("/", cfg.Audit.Recent)
	audit.Get("/tickets/:id", cfg.Audit.ByTicket)
}
