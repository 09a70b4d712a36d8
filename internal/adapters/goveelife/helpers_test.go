package goveelife

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const heaterCapabilities = `[
  {
    "type": "devices.capabilities.on_off",
    "instance": "powerSwitch",
    "parameters": {
      "dataType": "ENUM",
      "options": [
        {"name": "on", "value": 1},
        {"name": "off", "value": 0}
      ]
    }
  },
  {
    "type": "devices.capabilities.toggle",
    "instance": "oscillationToggle",
    "parameters": {
      "dataType": "ENUM",
      "options": [{"name": "on", "value": 1}, {"name": "off", "value": 0}]
    }
  },
  {
    "type": "devices.capabilities.work_mode",
    "instance": "workMode",
    "parameters": {
      "dataType": "STRUCT",
      "fields": [
        {
          "fieldName": "workMode",
          "dataType": "ENUM",
          "options": [
            {"name": "gearMode", "value": 1},
            {"name": "Fan", "value": 9},
            {"name": "Auto", "value": 3}
          ],
          "required": true
        },
        {
          "fieldName": "modeValue",
          "dataType": "ENUM",
          "options": [
            {
              "name": "gearMode",
              "options": [
                {"name": "Low", "value": 1},
                {"name": "Medium", "value": 2},
                {"name": "High", "value": 3}
              ]
            },
            {"name": "Fan"},
            {"name": "Auto", "defaultValue": 22}
          ],
          "required": true
        }
      ]
    }
  },
  {
    "type": "devices.capabilities.temperature_setting",
    "instance": "targetTemperature",
    "parameters": {
      "dataType": "STRUCT",
      "fields": [
        {
          "fieldName": "autoStop",
          "defaultValue": 0,
          "dataType": "ENUM",
          "options": [{"name": "Auto Stop", "value": 1}, {"name": "Maintain", "value": 0}]
        },
        {
          "fieldName": "temperature",
          "dataType": "INTEGER",
          "range": {"min": 5, "max": 30, "precision": 1},
          "required": true
        },
        {
          "fieldName": "unit",
          "defaultValue": "Celsius",
          "dataType": "ENUM",
          "options": [{"name": "Celsius", "value": "Celsius"}, {"name": "Fahrenheit", "value": "Fahrenheit"}]
        }
      ]
    }
  },
  {
    "type": "devices.capabilities.property",
    "instance": "sensorTemperature",
    "parameters": {"dataType": "NUMERIC"}
  }
]`

func mustCapabilities(t *testing.T, raw string) []Capability {
	t.Helper()
	var caps []Capability
	require.NoError(t, json.Unmarshal([]byte(raw), &caps))
	return caps
}

func heaterDevice(t *testing.T) DeviceConfig {
	return DeviceConfig{
		Device:       "AA:BB:CC:DD:EE:FF:00:11",
		SKU:          "H7131",
		Type:         DeviceTypeHeater,
		DeviceName:   "Office Heater",
		Capabilities: mustCapabilities(t, heaterCapabilities),
	}
}

func nullEntry() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

// fakeState is an in-memory StateReader and StateWriter
type fakeState struct {
	mu     sync.Mutex
	values map[string]interface{}
}

func newFakeState() *fakeState {
	return &fakeState{values: make(map[string]interface{})}
}

func stateKey(deviceID, capabilityType, instance string) string {
	return deviceID + "|" + capabilityType + "|" + instance
}

func (f *fakeState) set(deviceID, capabilityType, instance string, value interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[stateKey(deviceID, capabilityType, instance)] = value
}

// setJSON stores a value decoded from JSON, the way readings arrive from the cloud
func (f *fakeState) setJSON(t *testing.T, deviceID, capabilityType, instance, raw string) {
	t.Helper()
	var value interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &value))
	f.set(deviceID, capabilityType, instance, value)
}

func (f *fakeState) GetCachedStateValue(deviceID, capabilityType, instance string) (interface{}, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[stateKey(deviceID, capabilityType, instance)]
	return v, ok
}

func (f *fakeState) SetStateValue(_ context.Context, deviceID, capabilityType, instance string, value interface{}) error {
	f.set(deviceID, capabilityType, instance, value)
	return nil
}

// MockController is a mock implementation of Controller for testing
type MockController struct {
	mock.Mock
}

func (m *MockController) ControlDevice(ctx context.Context, device DeviceConfig, command CapabilityCommand) (bool, error) {
	args := m.Called(ctx, device, command)
	return args.Bool(0), args.Error(1)
}

// MockNotifier is a mock implementation of StateNotifier for testing
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyStateChanged(state ClimateState) {
	m.Called(state)
}

// countingMetrics records what the climate reports
type countingMetrics struct {
	mu       sync.Mutex
	commands map[string]int
	unmapped map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{commands: map[string]int{}, unmapped: map[string]int{}}
}

func (c *countingMetrics) RecordCommand(capabilityType string, applied bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := capabilityType + ":failed"
	if applied {
		key = capabilityType + ":applied"
	}
	c.commands[key]++
}

func (c *countingMetrics) RecordUnmappedValue(property string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unmapped[property]++
}
