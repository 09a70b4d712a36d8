package handlers

import (
	"github.com/frostdev-ops/pma-goveelife/internal/websocket"
	"github.com/frostdev-ops/pma-goveelife/pkg/utils"
	"github.com/gin-gonic/gin"
)

// WebSocketHandler upgrades the connection and attaches it to the hub
func (h *Handlers) WebSocketHandler() gin.HandlerFunc {
	return websocket.HandleWebSocketGin(h.hub)
}

// GetWebSocketStats returns hub statistics
func (h *Handlers) GetWebSocketStats(c *gin.Context) {
	utils.SendSuccess(c, h.hub.GetStats())
}

// GetJobs lists the scheduled jobs
func (h *Handlers) GetJobs(c *gin.Context) {
	if h.jobs == nil {
		utils.SendSuccess(c, []interface{}{})
		return
	}
	utils.SendSuccess(c, h.jobs.Jobs())
}
