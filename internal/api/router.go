package api

import (
	"github.com/frostdev-ops/pma-goveelife/internal/api/handlers"
	"github.com/frostdev-ops/pma-goveelife/internal/api/middleware"
	"github.com/frostdev-ops/pma-goveelife/internal/config"
	"github.com/frostdev-ops/pma-goveelife/internal/core/metrics"
	"github.com/frostdev-ops/pma-goveelife/pkg/logger"
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the main HTTP router. A nil collector
// disables the metrics endpoint and middleware.
func NewRouter(cfg *config.Config, deps handlers.Dependencies, collector *metrics.PrometheusCollector, batch *logger.BatchLogger) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.ErrorHandlingMiddleware(deps.Logger))
	router.Use(middleware.LoggingMiddleware(batch))
	if cfg.Security.EnableCORS {
		router.Use(middleware.CORSMiddleware(cfg.Security))
	}
	if collector != nil {
		router.Use(middleware.MetricsMiddleware(collector))
	}
	router.Use(middleware.ErrorResponseMiddleware(deps.Logger))

	h := handlers.NewHandlers(deps)

	// Public routes
	router.GET("/health", h.Health)
	if collector != nil && cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(collector.Handler()))
	}
	if deps.Hub != nil {
		router.GET("/ws", h.WebSocketHandler())
	}

	// API v1 routes
	api := router.Group("/api/v1")
	{
		api.GET("/status", h.Health)

		climates := api.Group("/climates")
		{
			climates.GET("", h.GetClimates)
			climates.GET("/:id", h.GetClimate)
			climates.GET("/:id/mode-model", h.GetModeModel)
			climates.POST("/:id/actions", h.ExecuteClimateAction)
		}

		api.GET("/adapter", h.GetAdapter)
		api.POST("/adapter/sync", h.SyncAdapter)
		api.GET("/devices", h.GetDevices)
		api.GET("/jobs", h.GetJobs)

		if deps.Hub != nil {
			api.GET("/websocket/stats", h.GetWebSocketStats)
		}
	}

	return router
}
