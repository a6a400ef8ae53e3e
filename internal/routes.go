package internal

import (
	"github.com/gofiber/fiber/v2/middleware/cors"

	"gestao/internal/http"
)

// apiCORSConfig lets dashboards hosted elsewhere read the API
var apiCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "GET,POST,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept",
}

// MountAppRoutes mounts all application routes
func MountAppRoutes(srv *http.Server) {
	// Health check endpoint
	srv.Get("/_health", http.HealthIndexAction)
	srv.Head("/_health", http.HealthIndexAction)

	// Prometheus scrape endpoint
	srv.App.Get("/metrics", http.MetricsHandler(srv.Deps()))

	// === DASHBOARD API ===
	srv.App.Use("/api/v1", cors.New(apiCORSConfig))

	srv.Get("/api/v1/presets", http.PresetsIndexAction)
	srv.Get("/api/v1/dashboard", http.DashboardIndexAction)
	srv.Get("/api/v1/dashboard/state", http.DashboardStateAction)
	srv.Get("/api/v1/dashboard/events", http.DashboardEventsAction)
	srv.Get("/api/v1/dashboard/deltas/:metric", http.DashboardDeltaAction)
	srv.Post("/api/v1/dashboard/range", http.DashboardRangeAction)
}
