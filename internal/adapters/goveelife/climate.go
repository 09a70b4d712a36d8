package goveelife

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ClimateDeps are the collaborators of a Climate.
type ClimateDeps struct {
	State      StateReader
	Controller Controller
	Notifier   StateNotifier
	Metrics    MetricsRecorder
}

// Climate exposes one Govee heater or kettle as a climate entity.
type Climate struct {
	device     DeviceConfig
	entityID   string
	model      ModeModel
	state      StateReader
	controller Controller
	notifier   StateNotifier
	metrics    MetricsRecorder
	logger     *logrus.Entry
}

// ClimateState is a point-in-time projection of a climate entity.
type ClimateState struct {
	EntityID           string            `json:"entity_id"`
	DeviceID           string            `json:"device_id"`
	SKU                string            `json:"sku"`
	Name               string            `json:"name"`
	HVACMode           HVACMode          `json:"hvac_mode"`
	HVACModes          []HVACMode        `json:"hvac_modes"`
	PresetMode         *string           `json:"preset_mode"`
	PresetModes        []string          `json:"preset_modes"`
	TemperatureUnit    TemperatureUnit   `json:"temperature_unit"`
	TargetTemperature  *float64          `json:"target_temperature"`
	CurrentTemperature *float64          `json:"current_temperature"`
	Bounds             TemperatureBounds `json:"bounds"`
	SupportedFeatures  []string          `json:"supported_features"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// NewClimate builds the mode model of device and returns its climate entity.
func NewClimate(device DeviceConfig, deps ClimateDeps, logger *logrus.Logger) *Climate {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	entry := logger.WithFields(logrus.Fields{
		"device_id": device.Device,
		"sku":       device.SKU,
		"platform":  "climate",
	})

	c := &Climate{
		device:     device,
		entityID:   EntityID(device.Device),
		state:      deps.State,
		controller: deps.Controller,
		notifier:   deps.Notifier,
		metrics:    deps.Metrics,
		logger:     entry,
	}
	if c.notifier == nil {
		c.notifier = nopNotifier{}
	}
	if c.metrics == nil {
		c.metrics = nopMetrics{}
	}

	entry.Debug("Processing device capabilities")
	c.model = BuildModeModel(device.Capabilities, entry)
	return c
}

// EntityID derives the PMA entity id of a Govee device.
func EntityID(deviceID string) string {
	return "govee_climate." + strings.ToLower(strings.ReplaceAll(deviceID, ":", ""))
}

// ID returns the entity id.
func (c *Climate) ID() string { return c.entityID }

// Device returns the device configuration.
func (c *Climate) Device() DeviceConfig { return c.device }

// ModeModel returns the mode model built at construction.
func (c *Climate) ModeModel() ModeModel { return c.model }

// Name returns the device name, falling back to the device id.
func (c *Climate) Name() string {
	if c.device.DeviceName != "" {
		return c.device.DeviceName
	}
	return c.device.Device
}

func (c *Climate) read(capabilityType, instance string) (interface{}, bool) {
	if c.state == nil {
		return nil, false
	}
	value, ok := c.state.GetCachedStateValue(c.device.Device, capabilityType, instance)
	if !ok || value == nil {
		return nil, false
	}
	return value, true
}

func (c *Climate) readMap(capabilityType, instance string) (map[string]interface{}, bool) {
	value, ok := c.read(capabilityType, instance)
	if !ok {
		return nil, false
	}
	m, ok := value.(map[string]interface{})
	return m, ok
}

// HVACMode returns the current hvac mode, or HVACModeUnknown.
func (c *Climate) HVACMode() HVACMode {
	raw, _ := c.read(CapabilityTypeOnOff, InstancePowerSwitch)
	if value, ok := NewVendorValue(raw); ok {
		if mode, ok := c.model.HVACModeFor(value); ok {
			return mode
		}
	}
	c.logger.WithField("value", raw).Warn("hvac_mode: invalid value")
	c.metrics.RecordUnmappedValue("hvac_mode")
	return HVACModeUnknown
}

// PresetMode returns the active preset, if the work mode reading matches one.
func (c *Climate) PresetMode() (string, bool) {
	raw, ok := c.read(CapabilityTypeWorkMode, InstanceWorkMode)
	if !ok {
		return "", false
	}
	value, ok := parseWorkModeValue(raw)
	if !ok {
		return "", false
	}
	return c.model.MatchPreset(value)
}

// TemperatureUnit resolves the display unit from the temperature readings.
func (c *Climate) TemperatureUnit() TemperatureUnit {
	for _, instance := range []string{InstanceTargetTemperature, InstanceSliderTemperature} {
		reading, ok := c.read(CapabilityTypeTemperatureSetting, instance)
		if !ok {
			continue
		}
		if _, isMap := reading.(map[string]interface{}); !isMap {
			continue
		}
		return c.unitOf(reading)
	}
	return UnitCelsius
}

func (c *Climate) unitOf(reading interface{}) TemperatureUnit {
	m, ok := reading.(map[string]interface{})
	if !ok {
		return UnitCelsius
	}
	raw, ok := m["unit"].(string)
	if !ok {
		return UnitCelsius
	}
	unit, ok := ParseTemperatureUnit(raw)
	if !ok {
		c.logger.WithField("unit", raw).Warn("temperature_unit: unknown unit, using Celsius")
		c.metrics.RecordUnmappedValue("temperature_unit")
		return UnitCelsius
	}
	return unit
}

// TargetTemperature returns the target temperature. A nonzero level of the
// active preset takes priority over the slider reading.
func (c *Climate) TargetTemperature() (float64, bool) {
	if preset, ok := c.PresetMode(); ok {
		c.logger.WithField("preset_mode", preset).Debug("target_temperature: current preset mode")
		if command, ok := c.model.PresetCommand(preset); ok && !command.ModeValue.IsZero() {
			if level, ok := command.ModeValue.Float(); ok {
				return level, true
			}
		}
	}

	slider, ok := c.readMap(CapabilityTypeTemperatureSetting, InstanceSliderTemperature)
	if !ok {
		return 0, false
	}
	raw, present := slider[InstanceTargetTemperature]
	if !present || raw == nil {
		return 0, false
	}
	return toFloat(raw)
}

// CurrentTemperature returns the sensor temperature in the display unit.
// Sensor readings are reported on the Fahrenheit scale and converted only for
// Celsius display.
func (c *Climate) CurrentTemperature() (float64, bool) {
	raw, ok := c.read(CapabilityTypeProperty, InstanceSensorTemperature)
	if !ok {
		return 0, false
	}
	if s, isString := raw.(string); isString && s == "" {
		return 0, false
	}
	value, ok := toFloat(raw)
	if !ok {
		c.logger.WithField("value", raw).Warn("current_temperature: invalid value")
		c.metrics.RecordUnmappedValue("current_temperature")
		return 0, false
	}
	if c.TemperatureUnit() == UnitCelsius {
		value = celsiusFromFahrenheit(value)
	}
	return value, true
}

// State projects every read property at once.
func (c *Climate) State() ClimateState {
	state := ClimateState{
		EntityID:          c.entityID,
		DeviceID:          c.device.Device,
		SKU:               c.device.SKU,
		Name:              c.Name(),
		HVACMode:          c.HVACMode(),
		HVACModes:         c.model.HVACModes(),
		PresetModes:       c.model.PresetModes(),
		TemperatureUnit:   c.TemperatureUnit(),
		Bounds:            c.model.Bounds(),
		SupportedFeatures: c.model.Features().Names(),
		UpdatedAt:         time.Now(),
	}
	if preset, ok := c.PresetMode(); ok {
		state.PresetMode = &preset
	}
	if target, ok := c.TargetTemperature(); ok {
		state.TargetTemperature = &target
	}
	if current, ok := c.CurrentTemperature(); ok {
		state.CurrentTemperature = &current
	}
	return state
}
