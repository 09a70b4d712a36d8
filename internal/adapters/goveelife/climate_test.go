package goveelife

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClimate(t *testing.T, state *fakeState) (*Climate, *countingMetrics, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	metrics := newCountingMetrics()
	c := NewClimate(heaterDevice(t), ClimateDeps{State: state, Metrics: metrics}, logger)
	return c, metrics, hook
}

func TestEntityID(t *testing.T) {
	assert.Equal(t, "govee_climate.aabbccddeeff0011", EntityID("AA:BB:CC:DD:EE:FF:00:11"))
	assert.Equal(t, "govee_climate.plain", EntityID("plain"))
}

func TestClimate_Name(t *testing.T) {
	c, _, _ := newTestClimate(t, newFakeState())
	assert.Equal(t, "Office Heater", c.Name())

	device := heaterDevice(t)
	device.DeviceName = ""
	unnamed := NewClimate(device, ClimateDeps{}, logrus.New())
	assert.Equal(t, device.Device, unnamed.Name())
}

func TestClimate_HVACMode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected HVACMode
	}{
		{"on", `1`, HVACModeHeatCool},
		{"on as float", `1.0`, HVACModeHeatCool},
		{"off", `0`, HVACModeOff},
		{"unmapped", `7`, HVACModeUnknown},
		{"wrong type", `"on"`, HVACModeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newFakeState()
			c, _, _ := newTestClimate(t, state)
			state.setJSON(t, c.Device().Device, CapabilityTypeOnOff, InstancePowerSwitch, tt.raw)

			assert.Equal(t, tt.expected, c.HVACMode())
		})
	}
}

func TestClimate_HVACModeMissingReading(t *testing.T) {
	c, metrics, hook := newTestClimate(t, newFakeState())

	assert.Equal(t, HVACModeUnknown, c.HVACMode())
	assert.Equal(t, 1, metrics.unmapped["hvac_mode"])

	warned := false
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.WarnLevel && entry.Message == "hvac_mode: invalid value" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestClimate_PresetMode(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		found    bool
	}{
		{"gear level", `{"workMode": 1, "modeValue": 2}`, "gearMode-Medium", true},
		{"work mode with default", `{"workMode": 3, "modeValue": 22}`, "Auto", true},
		{"modeValue missing counts as zero", `{"workMode": 9}`, "Fan", true},
		{"modeValue null counts as zero", `{"workMode": 9, "modeValue": null}`, "Fan", true},
		{"no match", `{"workMode": 3, "modeValue": 25}`, "", false},
		{"unusable modeValue", `{"workMode": 9, "modeValue": true}`, "", false},
		{"object modeValue", `{"workMode": 9, "modeValue": {"level": 1}}`, "", false},
		{"empty reading", `{}`, "", false},
		{"wrong shape", `5`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newFakeState()
			c, _, _ := newTestClimate(t, state)
			state.setJSON(t, c.Device().Device, CapabilityTypeWorkMode, InstanceWorkMode, tt.raw)

			preset, ok := c.PresetMode()
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.expected, preset)
		})
	}
}

func TestClimate_PresetRoundTrip(t *testing.T) {
	state := newFakeState()
	c, _, _ := newTestClimate(t, state)

	for _, preset := range c.ModeModel().PresetModes() {
		command, ok := c.ModeModel().PresetCommand(preset)
		require.True(t, ok)
		state.set(c.Device().Device, CapabilityTypeWorkMode, InstanceWorkMode, map[string]interface{}{
			"workMode":  command.WorkMode.Interface(),
			"modeValue": command.ModeValue.Interface(),
		})

		got, ok := c.PresetMode()
		require.True(t, ok, preset)
		assert.Equal(t, preset, got)
	}
}

func TestClimate_TemperatureUnit(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		slider   string
		expected TemperatureUnit
	}{
		{"nothing reported", "", "", UnitCelsius},
		{"target fahrenheit", `{"temperature": 70, "unit": "Fahrenheit"}`, "", UnitFahrenheit},
		{"target wins over slider", `{"temperature": 21, "unit": "Celsius"}`, `{"targetTemperature": 70, "unit": "FAHRENHEIT"}`, UnitCelsius},
		{"slider used when target absent", "", `{"targetTemperature": 70, "unit": "fahrenheit"}`, UnitFahrenheit},
		{"reading without unit", `{"temperature": 21}`, "", UnitCelsius},
		{"unknown unit", `{"temperature": 21, "unit": "Rankine"}`, "", UnitCelsius},
		{"slider used when target is not a map", `21`, `{"targetTemperature": 70, "unit": "Fahrenheit"}`, UnitFahrenheit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := newFakeState()
			c, _, _ := newTestClimate(t, state)
			id := c.Device().Device
			if tt.target != "" {
				state.setJSON(t, id, CapabilityTypeTemperatureSetting, InstanceTargetTemperature, tt.target)
			}
			if tt.slider != "" {
				state.setJSON(t, id, CapabilityTypeTemperatureSetting, InstanceSliderTemperature, tt.slider)
			}

			assert.Equal(t, tt.expected, c.TemperatureUnit())
		})
	}
}

func TestClimate_TargetTemperature(t *testing.T) {
	t.Run("preset level wins over slider", func(t *testing.T) {
		state := newFakeState()
		c, _, _ := newTestClimate(t, state)
		id := c.Device().Device
		state.setJSON(t, id, CapabilityTypeWorkMode, InstanceWorkMode, `{"workMode": 3, "modeValue": 22}`)
		state.setJSON(t, id, CapabilityTypeTemperatureSetting, InstanceSliderTemperature, `{"targetTemperature": 20}`)

		target, ok := c.TargetTemperature()
		require.True(t, ok)
		assert.Equal(t, 22.0, target)
	})

	t.Run("zero preset level falls back to slider", func(t *testing.T) {
		state := newFakeState()
		c, _, _ := newTestClimate(t, state)
		id := c.Device().Device
		state.setJSON(t, id, CapabilityTypeWorkMode, InstanceWorkMode, `{"workMode": 9, "modeValue": 0}`)
		state.setJSON(t, id, CapabilityTypeTemperatureSetting, InstanceSliderTemperature, `{"targetTemperature": 20}`)

		target, ok := c.TargetTemperature()
		require.True(t, ok)
		assert.Equal(t, 20.0, target)
	})

	t.Run("no preset uses slider", func(t *testing.T) {
		state := newFakeState()
		c, _, _ := newTestClimate(t, state)
		state.setJSON(t, c.Device().Device, CapabilityTypeTemperatureSetting, InstanceSliderTemperature, `{"targetTemperature": 18.5, "unit": "Celsius"}`)

		target, ok := c.TargetTemperature()
		require.True(t, ok)
		assert.Equal(t, 18.5, target)
	})

	t.Run("nothing reported", func(t *testing.T) {
		c, _, _ := newTestClimate(t, newFakeState())

		_, ok := c.TargetTemperature()
		assert.False(t, ok)
	})

	t.Run("slider without target", func(t *testing.T) {
		state := newFakeState()
		c, _, _ := newTestClimate(t, state)
		state.setJSON(t, c.Device().Device, CapabilityTypeTemperatureSetting, InstanceSliderTemperature, `{"unit": "Celsius"}`)

		_, ok := c.TargetTemperature()
		assert.False(t, ok)
	})
}

func TestClimate_CurrentTemperature(t *testing.T) {
	t.Run("converted for celsius", func(t *testing.T) {
		state := newFakeState()
		c, _, _ := newTestClimate(t, state)
		state.setJSON(t, c.Device().Device, CapabilityTypeProperty, InstanceSensorTemperature, `98.6`)

		current, ok := c.CurrentTemperature()
		require.True(t, ok)
		assert.InDelta(t, 37.0, current, 0.001)
	})

	t.Run("passed through for fahrenheit", func(t *testing.T) {
		state := newFakeState()
		c, _, _ := newTestClimate(t, state)
		id := c.Device().Device
		state.setJSON(t, id, CapabilityTypeProperty, InstanceSensorTemperature, `98.6`)
		state.setJSON(t, id, CapabilityTypeTemperatureSetting, InstanceTargetTemperature, `{"temperature": 70, "unit": "Fahrenheit"}`)

		current, ok := c.CurrentTemperature()
		require.True(t, ok)
		assert.InDelta(t, 98.6, current, 0.001)
	})

	t.Run("numeric string", func(t *testing.T) {
		state := newFakeState()
		c, _, _ := newTestClimate(t, state)
		state.set(c.Device().Device, CapabilityTypeProperty, InstanceSensorTemperature, "212")

		current, ok := c.CurrentTemperature()
		require.True(t, ok)
		assert.InDelta(t, 100.0, current, 0.001)
	})

	t.Run("absent", func(t *testing.T) {
		c, _, _ := newTestClimate(t, newFakeState())

		_, ok := c.CurrentTemperature()
		assert.False(t, ok)
	})

	t.Run("null", func(t *testing.T) {
		state := newFakeState()
		c, _, _ := newTestClimate(t, state)
		state.set(c.Device().Device, CapabilityTypeProperty, InstanceSensorTemperature, nil)

		_, ok := c.CurrentTemperature()
		assert.False(t, ok)
	})

	t.Run("empty string", func(t *testing.T) {
		state := newFakeState()
		c, metrics, _ := newTestClimate(t, state)
		state.set(c.Device().Device, CapabilityTypeProperty, InstanceSensorTemperature, "")

		_, ok := c.CurrentTemperature()
		assert.False(t, ok)
		assert.Zero(t, metrics.unmapped["current_temperature"])
	})

	t.Run("garbage", func(t *testing.T) {
		state := newFakeState()
		c, metrics, _ := newTestClimate(t, state)
		state.set(c.Device().Device, CapabilityTypeProperty, InstanceSensorTemperature, "warm")

		_, ok := c.CurrentTemperature()
		assert.False(t, ok)
		assert.Equal(t, 1, metrics.unmapped["current_temperature"])
	})
}

func TestClimate_State(t *testing.T) {
	state := newFakeState()
	c, _, _ := newTestClimate(t, state)
	id := c.Device().Device
	state.setJSON(t, id, CapabilityTypeOnOff, InstancePowerSwitch, `1`)
	state.setJSON(t, id, CapabilityTypeWorkMode, InstanceWorkMode, `{"workMode": 1, "modeValue": 3}`)
	state.setJSON(t, id, CapabilityTypeProperty, InstanceSensorTemperature, `68`)

	snapshot := c.State()

	assert.Equal(t, "govee_climate.aabbccddeeff0011", snapshot.EntityID)
	assert.Equal(t, "H7131", snapshot.SKU)
	assert.Equal(t, HVACModeHeatCool, snapshot.HVACMode)
	require.NotNil(t, snapshot.PresetMode)
	assert.Equal(t, "gearMode-High", *snapshot.PresetMode)
	require.NotNil(t, snapshot.TargetTemperature)
	assert.Equal(t, 3.0, *snapshot.TargetTemperature)
	require.NotNil(t, snapshot.CurrentTemperature)
	assert.InDelta(t, 20.0, *snapshot.CurrentTemperature, 0.001)
	assert.Equal(t, UnitCelsius, snapshot.TemperatureUnit)
	assert.Equal(t, TemperatureBounds{Min: 5, Max: 30, Step: 1}, snapshot.Bounds)
	assert.False(t, snapshot.UpdatedAt.IsZero())
}

func TestClimate_NoStateReader(t *testing.T) {
	c := NewClimate(heaterDevice(t), ClimateDeps{}, logrus.New())

	assert.Equal(t, HVACModeUnknown, c.HVACMode())
	_, ok := c.PresetMode()
	assert.False(t, ok)
	assert.Equal(t, UnitCelsius, c.TemperatureUnit())
}

func TestNewClimate_WithoutLogger(t *testing.T) {
	var c *Climate
	require.NotPanics(t, func() {
		c = NewClimate(heaterDevice(t), ClimateDeps{State: newFakeState()}, nil)
	})
	assert.NotEmpty(t, c.ModeModel().PresetModes())
	assert.Equal(t, HVACModeUnknown, c.HVACMode())
}
