package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PMASourceType names the system an entity comes from
type PMASourceType string

const (
	SourceGovee PMASourceType = "govee"
)

// PMAEntityType is the domain of an entity
type PMAEntityType string

const (
	EntityTypeClimate PMAEntityType = "climate"
)

// PMAEntityState is the coarse on/off state of a climate entity
type PMAEntityState string

const (
	StateOn      PMAEntityState = "on"
	StateOff     PMAEntityState = "off"
	StateUnknown PMAEntityState = "unknown"
)

// PMACapability is a controllable aspect of an entity
type PMACapability string

const (
	CapabilityPower       PMACapability = "power"
	CapabilityPresetMode  PMACapability = "preset_mode"
	CapabilityTemperature PMACapability = "temperature"
)

// Climate control actions
const (
	ActionTurnOn         = "turn_on"
	ActionTurnOff        = "turn_off"
	ActionSetHVACMode    = "set_hvac_mode"
	ActionSetPresetMode  = "set_preset_mode"
	ActionSetTemperature = "set_temperature"
)

// PMAMetadata links an entity back to its vendor device
type PMAMetadata struct {
	Source         PMASourceType `json:"source"`
	SourceEntityID string        `json:"source_entity_id"`
	SourceDeviceID *string       `json:"source_device_id,omitempty"`
	SKU            string        `json:"sku,omitempty"`
	LastSynced     time.Time     `json:"last_synced"`
}

// PMAContext identifies the origin of an action
type PMAContext struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description,omitempty"`
}

// NewContext creates an action context with a fresh id
func NewContext(source, description string) *PMAContext {
	return &PMAContext{
		ID:          uuid.New().String(),
		Source:      source,
		Timestamp:   time.Now(),
		Description: description,
	}
}

// PMAError describes a failed action
type PMAError struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	EntityID  string    `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
	Retryable bool      `json:"retryable"`
}

func (e *PMAError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.EntityID)
}

// PMAControlAction is a control request addressed to one entity
type PMAControlAction struct {
	Action     string                 `json:"action"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
	EntityID   string                 `json:"entity_id"`
	Context    *PMAContext            `json:"context,omitempty"`
}

// PMAControlResult reports the outcome of a control action
type PMAControlResult struct {
	Success     bool                   `json:"success"`
	EntityID    string                 `json:"entity_id"`
	Action      string                 `json:"action"`
	NewState    PMAEntityState         `json:"new_state,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Error       *PMAError              `json:"error,omitempty"`
	Context     *PMAContext            `json:"context,omitempty"`
	ProcessedAt time.Time              `json:"processed_at"`
	Duration    time.Duration          `json:"duration"`
}
