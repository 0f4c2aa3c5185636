package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/wytlabs/cardops/internal/auth"
	"github.com/wytlabs/cardops/internal/catalog"
	"github.com/wytlabs/cardops/internal/entry"
	"github.com/wytlabs/cardops/internal/ingest"
	"github.com/wytlabs/cardops/internal/notification"
	"github.com/wytlabs/cardops/internal/renewal"
	"github.com/wytlabs/cardops/internal/transport/middleware"
	"github.com/wytlabs/cardops/internal/transport/swagger"
	"github.com/wytlabs/cardops/internal/user"
)

// Dependencies gathers everything the router mounts.
type Dependencies struct {
	DB     *sql.DB
	Logger *slog.Logger

	JWTSecret  string
	CronSecret string

	OpenAPIPath string

	IngestHandler       *ingest.Handler
	EntryHandler        *entry.Handler
	RenewalHandler      *renewal.Handler
	NotificationHandler *notification.Handler
	UserHandler         *user.Handler
	CatalogHandler      *catalog.Handler
}

// RegisterAllRoutes mounts middleware and every route on the router.
func RegisterAllRoutes(r chi.Router, deps Dependencies) {
	r.Use(middleware.RequestID)
	r.Use(middleware.LoggingMiddleware(deps.Logger))
	r.Use(middleware.RecoveryMiddleware(deps.Logger))

	NewHealthHandler(deps.DB).RegisterRoutes(r)

	if deps.OpenAPIPath != "" {
		r.Get("/openapi.yml", func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			http.ServeFile(w, req, deps.OpenAPIPath)
		})
		r.Mount("/swagger", swagger.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		// Scheduler trigger endpoints sit behind the shared secret, not
		// user auth.
		api.Route("/jobs", func(jobs chi.Router) {
			jobs.Use(middleware.CronSecret(deps.CronSecret, deps.Logger))
			jobs.Post("/renewal-reminders", deps.RenewalHandler.RunReminderJob)
			jobs.Post("/auto-cancel-notices", deps.RenewalHandler.RunAutoCancelJob)
			jobs.Post("/rollover", deps.RenewalHandler.RunRolloverJob)
			jobs.Post("/rate-refresh", deps.RenewalHandler.RunRateRefreshJob)
			jobs.Post("/retention-cleanup", deps.RenewalHandler.RunRetentionJob)
		})

		api.Group(func(authed chi.Router) {
			authed.Use(auth.Middleware(deps.JWTSecret, deps.Logger))

			authed.Get("/catalogs", deps.CatalogHandler.GetCatalogs)
			authed.Get("/users/me", deps.UserHandler.Me)

			authed.Route("/entries", func(entries chi.Router) {
				entries.Post("/", deps.EntryHandler.CreateEntry)
				entries.Get("/", deps.EntryHandler.SearchEntries)
				entries.Get("/export", deps.EntryHandler.ExportEntries)
				entries.Post("/import", deps.IngestHandler.ImportEntries)
				entries.Get("/import/template", deps.IngestHandler.DownloadTemplate)
				entries.Get("/{id}", deps.EntryHandler.GetEntry)
				entries.Patch("/{id}/status", deps.EntryHandler.UpdateEntryStatus)
				entries.Delete("/{id}", deps.EntryHandler.DeleteEntry)
				entries.Get("/{id}/renewal-logs", deps.RenewalHandler.ListLogs)
			})

			authed.Post("/renewal-logs", deps.RenewalHandler.CreateLog)

			authed.Route("/notifications", func(notifications chi.Router) {
				notifications.Get("/", deps.NotificationHandler.List)
				notifications.Post("/{id}/read", deps.NotificationHandler.MarkRead)
			})
		})
	})
}
