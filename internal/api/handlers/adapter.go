package handlers

import (
	"net/http"

	"github.com/frostdev-ops/pma-goveelife/pkg/utils"
	"github.com/gin-gonic/gin"
)

// GetAdapter returns the adapter identity, capabilities and action metrics
func (h *Handlers) GetAdapter(c *gin.Context) {
	if h.adapter == nil {
		utils.SendError(c, http.StatusServiceUnavailable, "adapter not configured")
		return
	}
	utils.SendSuccess(c, gin.H{
		"id":           h.adapter.GetID(),
		"name":         h.adapter.GetName(),
		"version":      h.adapter.GetVersion(),
		"source":       h.adapter.GetSourceType(),
		"entity_types": h.adapter.GetSupportedEntityTypes(),
		"capabilities": h.adapter.GetSupportedCapabilities(),
		"metrics":      h.adapter.GetMetrics(),
	})
}

// SyncAdapter projects every climate into its PMA entity form
func (h *Handlers) SyncAdapter(c *gin.Context) {
	if h.adapter == nil {
		utils.SendError(c, http.StatusServiceUnavailable, "adapter not configured")
		return
	}
	entities, err := h.adapter.SyncEntities(c.Request.Context())
	if err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to sync entities")
		return
	}
	utils.SendSuccessWithMeta(c, entities, gin.H{"count": len(entities), "synced_at": h.adapter.GetLastSyncTime()})
}
