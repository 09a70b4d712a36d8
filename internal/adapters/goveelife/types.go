package goveelife

import "strings"

// HVACMode is a normalized climate operating mode.
type HVACMode string

const (
	HVACModeOff      HVACMode = "off"
	HVACModeHeatCool HVACMode = "heat_cool"
	HVACModeUnknown  HVACMode = "unknown"
)

// ClimateFeature is a supported-features bitset. Values follow the host climate
// entity feature flags.
type ClimateFeature uint32

const (
	FeatureTargetTemperature ClimateFeature = 1
	FeaturePresetMode        ClimateFeature = 16
	FeatureTurnOff           ClimateFeature = 128
	FeatureTurnOn            ClimateFeature = 256
)

var featureNames = []struct {
	flag ClimateFeature
	name string
}{
	{FeatureTargetTemperature, "target_temperature"},
	{FeaturePresetMode, "preset_mode"},
	{FeatureTurnOff, "turn_off"},
	{FeatureTurnOn, "turn_on"},
}

// Has reports whether all bits of f are set.
func (c ClimateFeature) Has(f ClimateFeature) bool {
	return c&f == f
}

// Names lists the set features.
func (c ClimateFeature) Names() []string {
	names := make([]string, 0, len(featureNames))
	for _, fn := range featureNames {
		if c.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return names
}

// TemperatureUnit is a normalized temperature unit.
type TemperatureUnit string

const (
	UnitCelsius    TemperatureUnit = "°C"
	UnitFahrenheit TemperatureUnit = "°F"
	UnitKelvin     TemperatureUnit = "K"
)

// vendor unit strings use the enum names ("Celsius", "FAHRENHEIT", ...)
var unitsByName = map[string]TemperatureUnit{
	"CELSIUS":    UnitCelsius,
	"FAHRENHEIT": UnitFahrenheit,
	"KELVIN":     UnitKelvin,
}

// ParseTemperatureUnit normalizes a vendor unit string case-insensitively.
func ParseTemperatureUnit(s string) (TemperatureUnit, bool) {
	unit, ok := unitsByName[strings.ToUpper(strings.TrimSpace(s))]
	return unit, ok
}

// defaultVendorUnit is sent when no unit is known for a temperature command.
const defaultVendorUnit = "Celsius"

// TemperatureBounds holds the settable temperature range.
type TemperatureBounds struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Step float64 `json:"step"`
}

// Host defaults used until a temperature_setting capability declares a range.
const (
	DefaultMinTemp  = 7.0
	DefaultMaxTemp  = 35.0
	DefaultTempStep = 1.0
)

// celsiusFromFahrenheit converts a vendor sensor reading for Celsius display.
func celsiusFromFahrenheit(v float64) float64 {
	return (v - 32) * 5 / 9
}
