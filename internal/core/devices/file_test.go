package devices

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/frostdev-ops/pma-goveelife/internal/core/cache"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	loaded, err := LoadFile(filepath.Join("testdata", "devices.yaml"))
	require.NoError(t, err)
	require.Len(t, loaded, 3)

	heater := loaded[0]
	assert.Equal(t, "AA:BB:CC:DD:EE:FF:00:11", heater.Config.Device)
	assert.Equal(t, goveelife.DeviceTypeHeater, heater.Config.Type)
	assert.Equal(t, "Office Heater", heater.Config.DeviceName)
	require.Len(t, heater.Config.Capabilities, 4)
	assert.Equal(t, goveelife.CapabilityTypeOnOff, heater.Config.Capabilities[0].Type)

	require.Len(t, heater.State, 3)
	assert.Equal(t, cache.StateEntry{Type: goveelife.CapabilityTypeOnOff, Instance: "powerSwitch", Value: float64(1)}, heater.State[0])
	assert.Equal(t, map[string]interface{}{"workMode": float64(3), "modeValue": float64(22)}, heater.State[1].Value)
	assert.Empty(t, loaded[1].State)
}

func TestLoadFile_ModeModel(t *testing.T) {
	loaded, err := LoadFile(filepath.Join("testdata", "devices.yaml"))
	require.NoError(t, err)
	logger, _ := test.NewNullLogger()

	heater := goveelife.NewClimate(loaded[0].Config, goveelife.ClimateDeps{}, logger)
	assert.Equal(t, []string{"gearMode-Low", "gearMode-Medium", "gearMode-High", "Fan", "Auto"}, heater.ModeModel().PresetModes())

	kettle := goveelife.NewClimate(loaded[1].Config, goveelife.ClimateDeps{}, logger)
	assert.Equal(t, []string{"DIY", "Tea", "Coffee"}, kettle.ModeModel().PresetModes())
	assert.Equal(t, goveelife.TemperatureBounds{Min: 40, Max: 100, Step: 1}, kettle.ModeModel().Bounds())
	coffee, ok := kettle.ModeModel().PresetCommand("Coffee")
	require.True(t, ok)
	assert.Equal(t, goveelife.NumberValue(90), coffee.ModeValue)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParse_JSON(t *testing.T) {
	loaded, err := Parse([]byte(`{"devices": [{"device": "A1", "sku": "H7130", "type": "devices.types.heater",
	  "capabilities": [{"type": "devices.capabilities.on_off", "instance": "powerSwitch",
	    "parameters": {"options": [{"name": "on", "value": 1}]}}]}]}`))
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.JSONEq(t, `{"options": [{"name": "on", "value": 1}]}`, string(loaded[0].Config.Capabilities[0].Parameters))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		target  error
	}{
		{"not yaml", "devices: [", ErrInvalidDeviceFile},
		{"missing id", "devices:\n  - type: devices.types.heater\n", ErrInvalidDeviceFile},
		{"missing type", "devices:\n  - device: A1\n", ErrInvalidDeviceFile},
		{"duplicate", "devices:\n  - device: A1\n    type: t\n  - device: A1\n    type: t\n", ErrDuplicateDevice},
		{"capability without type", "devices:\n  - device: A1\n    type: t\n    capabilities:\n      - instance: powerSwitch\n", ErrInvalidDeviceFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestParse_ValidationErrorField(t *testing.T) {
	_, err := Parse([]byte("devices:\n  - device: A1\n  - type: t\n"))

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "devices[0].type", validationErr.Field)
}

func TestSeedState(t *testing.T) {
	loaded, err := LoadFile(filepath.Join("testdata", "devices.yaml"))
	require.NoError(t, err)
	store := cache.NewMemoryStateCache()

	require.NoError(t, SeedState(context.Background(), store, loaded))

	value, ok := store.GetCachedStateValue("AA:BB:CC:DD:EE:FF:00:11", goveelife.CapabilityTypeProperty, "sensorTemperature")
	require.True(t, ok)
	assert.Equal(t, 68.5, value)
	assert.Equal(t, 1, store.Stats().Devices)
}

func TestStaticSource(t *testing.T) {
	configs := []goveelife.DeviceConfig{{Device: "A1", Type: goveelife.DeviceTypeHeater}}
	source := NewStaticSource(configs)

	listed, err := source.ListDevices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, configs, listed)

	listed[0].Device = "changed"
	again, _ := source.ListDevices(context.Background())
	assert.Equal(t, "A1", again[0].Device)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = source.ListDevices(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSharedCoordinator(t *testing.T) {
	store := cache.NewMemoryStateCache()
	coordinators := SharedCoordinator([]goveelife.DeviceConfig{{Device: "A1"}, {Device: "B2"}}, store)

	reader, ok := coordinators.Coordinator("B2")
	assert.True(t, ok)
	assert.Same(t, store, reader)
	_, ok = coordinators.Coordinator("C3")
	assert.False(t, ok)
}
