package goveelife

import (
	"encoding/json"
	"fmt"
)

// Govee capability types
const (
	CapabilityTypeOnOff              = "devices.capabilities.on_off"
	CapabilityTypeTemperatureSetting = "devices.capabilities.temperature_setting"
	CapabilityTypeWorkMode           = "devices.capabilities.work_mode"
	CapabilityTypeProperty           = "devices.capabilities.property"
)

// Govee capability instances
const (
	InstancePowerSwitch       = "powerSwitch"
	InstanceTargetTemperature = "targetTemperature"
	InstanceSliderTemperature = "sliderTemperature"
	InstanceWorkMode          = "workMode"
	InstanceSensorTemperature = "sensorTemperature"
)

// Field and option names used inside capability parameters
const (
	fieldTemperature = "temperature"
	fieldUnit        = "unit"
	fieldAutoStop    = "autoStop"
	fieldWorkMode    = "workMode"
	fieldModeValue   = "modeValue"

	optionOn       = "on"
	optionOff      = "off"
	optionGearMode = "gearMode"
)

// Govee device types served by the climate platform
const (
	DeviceTypeHeater = "devices.types.heater"
	DeviceTypeKettle = "devices.types.kettle"
)

// PlatformDeviceTypes lists the device types the climate platform sets up by default.
var PlatformDeviceTypes = []string{
	DeviceTypeHeater,
	DeviceTypeKettle,
}

// DeviceConfig is a device as returned by the Govee device list.
type DeviceConfig struct {
	Device       string       `json:"device"`
	SKU          string       `json:"sku"`
	Type         string       `json:"type"`
	DeviceName   string       `json:"deviceName"`
	Capabilities []Capability `json:"capabilities"`
}

// Capability is one vendor capability descriptor. Parameters are kept raw and
// decoded per capability kind, so a malformed descriptor only affects itself.
type Capability struct {
	Type       string          `json:"type"`
	Instance   string          `json:"instance"`
	Parameters json.RawMessage `json:"parameters,omitempty"`
}

// CapabilityParameters covers both parameter shapes: an options list or a fields list.
type CapabilityParameters struct {
	DataType string             `json:"dataType,omitempty"`
	Options  []CapabilityOption `json:"options,omitempty"`
	Fields   []CapabilityField  `json:"fields,omitempty"`
}

// CapabilityOption is a named vendor value, optionally carrying nested options.
type CapabilityOption struct {
	Name         string             `json:"name"`
	Value        interface{}        `json:"value,omitempty"`
	DefaultValue interface{}        `json:"defaultValue,omitempty"`
	Options      []CapabilityOption `json:"options,omitempty"`
}

// CapabilityField describes one field of a STRUCT capability.
type CapabilityField struct {
	FieldName    string             `json:"fieldName"`
	DataType     string             `json:"dataType,omitempty"`
	Range        *CapabilityRange   `json:"range,omitempty"`
	DefaultValue interface{}        `json:"defaultValue,omitempty"`
	Options      []CapabilityOption `json:"options,omitempty"`
	Required     bool               `json:"required,omitempty"`
}

// CapabilityRange is a numeric range declaration.
type CapabilityRange struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Precision float64 `json:"precision"`
}

// decodeParameters decodes the raw parameters of a capability.
func (c Capability) decodeParameters() (CapabilityParameters, error) {
	var params CapabilityParameters
	if len(c.Parameters) == 0 {
		return params, fmt.Errorf("capability %s/%s has no parameters", c.Type, c.Instance)
	}
	if err := json.Unmarshal(c.Parameters, &params); err != nil {
		return params, fmt.Errorf("capability %s/%s has malformed parameters: %w", c.Type, c.Instance, err)
	}
	return params, nil
}

func (p CapabilityParameters) field(name string) (CapabilityField, bool) {
	for _, f := range p.Fields {
		if f.FieldName == name {
			return f, true
		}
	}
	return CapabilityField{}, false
}

// CapabilityKind is the closed set of capability shapes the climate platform understands.
type CapabilityKind int

const (
	KindUnrecognized CapabilityKind = iota
	KindOnOff
	KindTemperatureSetting
	KindWorkMode
	KindSensorTemperature
)

func (k CapabilityKind) String() string {
	switch k {
	case KindOnOff:
		return "on_off"
	case KindTemperatureSetting:
		return "temperature_setting"
	case KindWorkMode:
		return "work_mode"
	case KindSensorTemperature:
		return "sensor_temperature"
	default:
		return "unrecognized"
	}
}

// Classify maps a capability's type and instance onto a CapabilityKind.
func Classify(c Capability) CapabilityKind {
	switch c.Type {
	case CapabilityTypeOnOff:
		return KindOnOff
	case CapabilityTypeTemperatureSetting:
		if c.Instance == InstanceTargetTemperature || c.Instance == InstanceSliderTemperature {
			return KindTemperatureSetting
		}
	case CapabilityTypeWorkMode:
		return KindWorkMode
	case CapabilityTypeProperty:
		if c.Instance == InstanceSensorTemperature {
			return KindSensorTemperature
		}
	}
	return KindUnrecognized
}

// CapabilityCommand is the payload sent to the device control endpoint.
type CapabilityCommand struct {
	Type     string      `json:"type"`
	Instance string      `json:"instance"`
	Value    interface{} `json:"value"`
}
