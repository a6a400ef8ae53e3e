package http

import (
	"log/slog"
	"time"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status          string    `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	DBStatus        string    `json:"db_status"`
	DashboardStatus string    `json:"dashboard_status"`
}

// HealthIndexAction handles the health check endpoint
func HealthIndexAction(ctx *Context) error {
	dbStatus := "disabled"

	// Check snapshot database connectivity
	if db := ctx.Deps.DB; db != nil {
		dbStatus = "ok"
		sqlDB, err := db.DB()
		if err != nil {
			dbStatus = "error"
			ctx.Logger.Error("Database connection error", slog.Any("error", err))
		} else if err := sqlDB.Ping(); err != nil {
			dbStatus = "error"
			ctx.Logger.Error("Database ping failed", slog.Any("error", err))
		}
	}

	health := HealthStatus{
		Status:          "ok",
		Timestamp:       time.Now(),
		DBStatus:        dbStatus,
		DashboardStatus: string(ctx.Deps.Controller.State().Status),
	}

	if dbStatus == "error" {
		health.Status = "degraded"
	}

	return ctx.JSON(health)
}
