package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/buildnumber-dev/buildnumber/internal/metrics"
	"github.com/buildnumber-dev/buildnumber/internal/middleware"
)

// maxBodyBytes bounds request bodies; build metadata is the only sizeable input.
const maxBodyBytes = 1 << 20 // 1 MiB

// logAllowlist names the JSON fields that may appear in debug logs. Token
// values are absent on purpose.
var logAllowlist = []string{"emailAddress", "bundleIdentifier", "buildNumber", "metadata", "error", "message", "status"}

// NewRouter creates a Chi router with all endpoints.
// The authMiddleware parameter should be auth.Middleware(validator).
// Routes are registered both bare and under /api, mirroring the public
// surface (clients hit /api/... on the main host or bare paths on the api
// subdomain).
func NewRouter(h *Handler, authMiddleware func(http.Handler) http.Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middlewares in order
	r.Use(middleware.RequestID)
	r.Use(metrics.Middleware)
	r.Use(middleware.HTTPLogging(logger, logAllowlist))
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	r.Get("/health", h.HandleHealth)
	r.Get("/ready", h.HandleReady)

	routes := func(r chi.Router) {
		r.Post("/tokens", h.HandleCreateToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/builds", h.HandleCreateBuild)
			r.Get("/builds/last", h.HandleLastBuild)
			r.Get("/builds/{buildNumber}", h.HandleGetBuild)
		})
	}

	r.Route("/api", routes)
	r.Group(routes)

	return r
}
