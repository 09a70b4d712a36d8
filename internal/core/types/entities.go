package types

import (
	"time"
)

// PMAEntity is the read surface shared by every PMA entity
type PMAEntity interface {
	GetID() string
	GetType() PMAEntityType
	GetFriendlyName() string
	GetState() PMAEntityState
	GetAttributes() map[string]interface{}
	GetCapabilities() []PMACapability
	HasCapability(capability PMACapability) bool
	GetAvailableActions() []string
	GetDeviceID() *string
	GetMetadata() *PMAMetadata
	GetSource() PMASourceType
	IsAvailable() bool
}

// PMABaseEntity holds the fields common to every entity
type PMABaseEntity struct {
	ID           string                 `json:"id"`
	Type         PMAEntityType          `json:"type"`
	FriendlyName string                 `json:"friendly_name"`
	State        PMAEntityState         `json:"state"`
	Attributes   map[string]interface{} `json:"attributes"`
	LastUpdated  time.Time              `json:"last_updated"`
	Capabilities []PMACapability        `json:"capabilities"`
	Actions      []string               `json:"actions"`
	DeviceID     *string                `json:"device_id,omitempty"`
	Metadata     *PMAMetadata           `json:"metadata"`
	Available    bool                   `json:"available"`
}

func (e *PMABaseEntity) GetID() string                         { return e.ID }
func (e *PMABaseEntity) GetType() PMAEntityType                { return e.Type }
func (e *PMABaseEntity) GetFriendlyName() string               { return e.FriendlyName }
func (e *PMABaseEntity) GetState() PMAEntityState              { return e.State }
func (e *PMABaseEntity) GetAttributes() map[string]interface{} { return e.Attributes }
func (e *PMABaseEntity) GetCapabilities() []PMACapability      { return e.Capabilities }
func (e *PMABaseEntity) GetAvailableActions() []string         { return e.Actions }
func (e *PMABaseEntity) GetDeviceID() *string                  { return e.DeviceID }
func (e *PMABaseEntity) GetMetadata() *PMAMetadata             { return e.Metadata }
func (e *PMABaseEntity) IsAvailable() bool                     { return e.Available }

// GetSource defaults to Govee when no metadata is attached
func (e *PMABaseEntity) GetSource() PMASourceType {
	if e.Metadata == nil {
		return SourceGovee
	}
	return e.Metadata.Source
}

func (e *PMABaseEntity) HasCapability(capability PMACapability) bool {
	for _, c := range e.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// PMAClimateEntity is a heater or kettle in PMA form. Temperatures are nil
// when the device has no usable reading.
type PMAClimateEntity struct {
	*PMABaseEntity
	HVACMode           string   `json:"hvac_mode"`
	HVACModes          []string `json:"hvac_modes"`
	PresetMode         *string  `json:"preset_mode,omitempty"`
	PresetModes        []string `json:"preset_modes"`
	TemperatureUnit    string   `json:"temperature_unit"`
	CurrentTemperature *float64 `json:"current_temperature,omitempty"`
	TargetTemperature  *float64 `json:"target_temperature,omitempty"`
	MinTemp            float64  `json:"min_temp"`
	MaxTemp            float64  `json:"max_temp"`
	TargetTempStep     float64  `json:"target_temp_step"`
}

func (c *PMAClimateEntity) GetTemperatureUnit() string { return c.TemperatureUnit }

// HasPreset reports whether name is one of the entity's preset modes
func (c *PMAClimateEntity) HasPreset(name string) bool {
	for _, p := range c.PresetModes {
		if p == name {
			return true
		}
	}
	return false
}
