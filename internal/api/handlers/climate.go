package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/frostdev-ops/pma-goveelife/internal/core/types"
	apperrors "github.com/frostdev-ops/pma-goveelife/pkg/errors"
	"github.com/frostdev-ops/pma-goveelife/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// climateError maps climate platform errors onto HTTP errors
func climateError(err error) *apperrors.AppError {
	switch {
	case errors.Is(err, goveelife.ErrEntityNotFound):
		return apperrors.Wrap(apperrors.ErrNotFound, err)
	case errors.Is(err, goveelife.ErrInvalidParameter), errors.Is(err, goveelife.ErrUnsupportedAction):
		return apperrors.Wrap(apperrors.ErrBadRequest, err)
	case errors.Is(err, goveelife.ErrUnsupportedHVACMode):
		return apperrors.Wrap(apperrors.ErrUnprocessable, err)
	case errors.Is(err, goveelife.ErrNoController), errors.Is(err, context.DeadlineExceeded):
		return apperrors.Wrap(apperrors.ErrServiceUnavailable, err)
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// GetClimates returns every climate entity. With ?format=pma the PMA entity
// form is returned instead of the raw state.
func (h *Handlers) GetClimates(c *gin.Context) {
	climates := h.climates.Climates()
	meta := gin.H{"count": len(climates)}

	if c.Query("format") == "pma" {
		entities := make([]*types.PMAClimateEntity, 0, len(climates))
		for _, climate := range climates {
			entities = append(entities, goveelife.ConvertClimate(climate.State()))
		}
		utils.SendSuccessWithMeta(c, entities, meta)
		return
	}

	states := make([]goveelife.ClimateState, 0, len(climates))
	for _, climate := range climates {
		states = append(states, climate.State())
	}
	utils.SendSuccessWithMeta(c, states, meta)
}

func (h *Handlers) lookup(c *gin.Context) (*goveelife.Climate, bool) {
	climate, err := h.climates.Climate(c.Param("id"))
	if err != nil {
		c.Error(climateError(err))
		return nil, false
	}
	return climate, true
}

// GetClimate returns the state of one climate entity
func (h *Handlers) GetClimate(c *gin.Context) {
	climate, ok := h.lookup(c)
	if !ok {
		return
	}
	if c.Query("format") == "pma" {
		utils.SendSuccess(c, goveelife.ConvertClimate(climate.State()))
		return
	}
	utils.SendSuccess(c, climate.State())
}

// GetModeModel returns the capability derived mode model of one climate entity
func (h *Handlers) GetModeModel(c *gin.Context) {
	climate, ok := h.lookup(c)
	if !ok {
		return
	}
	utils.SendSuccess(c, gin.H{
		"entity_id":  climate.ID(),
		"device_id":  climate.Device().Device,
		"sku":        climate.Device().SKU,
		"mode_model": climate.ModeModel().View(),
	})
}

// ExecuteClimateAction executes a control action on a climate entity
func (h *Handlers) ExecuteClimateAction(c *gin.Context) {
	entityID := c.Param("id")

	var request struct {
		Action     string                 `json:"action" binding:"required"`
		Parameters map[string]interface{} `json:"parameters"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		utils.SendErrorWithDetails(c, http.StatusBadRequest, "Invalid request body", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.actionTimeout)
	defer cancel()

	action := types.PMAControlAction{
		Action:     request.Action,
		Parameters: request.Parameters,
		EntityID:   entityID,
		Context:    types.NewContext("api", "Manual action via API"),
	}
	if id := requestID(c); id != "" {
		action.Context.ID = id
	}

	result, err := h.climates.ExecuteAction(ctx, action)
	if err != nil {
		appErr := climateError(err)
		h.log.WithError(err).WithFields(logrus.Fields{
			"entity_id": entityID,
			"action":    request.Action,
			"status":    appErr.Code,
		}).Warn("Climate action rejected")
		utils.SendErrorWithDetails(c, appErr.Code, appErr.Message, result)
		return
	}

	utils.SendSuccess(c, result)
}

// GetDevices lists the registered Govee devices
func (h *Handlers) GetDevices(c *gin.Context) {
	if h.devices == nil {
		c.Error(apperrors.WithDetails(apperrors.ErrServiceUnavailable, "device registry not configured"))
		return
	}
	devices, err := h.devices.ListDevices(c.Request.Context())
	if err != nil {
		c.Error(apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if devices == nil {
		devices = []goveelife.DeviceConfig{}
	}
	utils.SendSuccessWithMeta(c, devices, gin.H{"count": len(devices)})
}

func requestID(c *gin.Context) string {
	return c.GetString("request_id")
}
