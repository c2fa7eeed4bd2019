package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/ticket-archiver/internal/api/http/handlers"
	"github.com/spec-kit/ticket-archiver/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Transcripts    *handlers.TranscriptsHandler
	Events         *handlers.EventsHandler
	Audit          *handlers.AuditHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	transcripts := protected.Group("/transcripts", auth.RequireUser(), auth.RequireScope(auth.ScopeTranscripts))
	transcripts.Get("/:ref", cfg.Transcripts.GetTranscript)
	transcripts.Get("/:ref/:format", cfg.Transcripts.DownloadTranscript)

	protected.Post("/events/message-deleted", auth.RequireScope(auth.ScopeEvents), cfg.Events.MessageDeleted)

	if cfg.Audit != nil {
		protected.Get("/tickets/:id/audit", auth.RequireScope(auth.ScopeAudit), cfg.Audit.ListByTicket)
	}
}
