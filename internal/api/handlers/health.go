package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/frostdev-ops/pma-goveelife/pkg/version"
	"github.com/gin-gonic/gin"
)

// Health returns the health status of the service and its dependencies.
// Any failing check answers 503.
func (h *Handlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "healthy"
	checks := make(gin.H, len(names))
	for _, name := range names {
		if err := h.checks[name].Health(ctx); err != nil {
			status = "degraded"
			checks[name] = gin.H{"status": "unhealthy", "error": err.Error()}
			h.log.WithError(err).WithField("check", name).Warn("Health check failed")
			continue
		}
		checks[name] = gin.H{"status": "healthy"}
	}

	health := gin.H{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "pma-goveelife",
		"version":   version.GetBuildInfo(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
		"checks":    checks,
	}
	if h.climates != nil {
		health["climate_entities"] = len(h.climates.Climates())
	}
	if h.hub != nil {
		health["websocket_clients"] = h.hub.GetClientCount()
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, health)
}
