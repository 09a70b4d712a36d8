package devices

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/frostdev-ops/pma-goveelife/internal/core/cache"
	"gopkg.in/yaml.v3"
)

// DeviceFile is the on-disk device list. JSON files parse as well, since
// JSON is valid YAML.
type DeviceFile struct {
	Devices []DeviceEntry `yaml:"devices"`
}

// DeviceEntry is one device of a device file with its optional initial state
type DeviceEntry struct {
	Device       string                   `yaml:"device"`
	SKU          string                   `yaml:"sku"`
	Type         string                   `yaml:"type"`
	DeviceName   string                   `yaml:"deviceName"`
	Capabilities []map[string]interface{} `yaml:"capabilities"`
	State        []StateSeed              `yaml:"state"`
}

// StateSeed is an initial capability reading in the device list response shape
type StateSeed struct {
	Type     string `yaml:"type"`
	Instance string `yaml:"instance"`
	State    struct {
		Value interface{} `yaml:"value"`
	} `yaml:"state"`
}

// LoadedDevice pairs a device configuration with its initial state
type LoadedDevice struct {
	Config goveelife.DeviceConfig
	State  []cache.StateEntry
}

// LoadFile reads and validates a device file
func LoadFile(path string) ([]LoadedDevice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read device file %s: %w", path, err)
	}
	devices, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load device file %s: %w", path, err)
	}
	return devices, nil
}

// Parse decodes and validates device file content
func Parse(data []byte) ([]LoadedDevice, error) {
	var file DeviceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDeviceFile, err)
	}

	seen := make(map[string]bool, len(file.Devices))
	loaded := make([]LoadedDevice, 0, len(file.Devices))
	for i, entry := range file.Devices {
		if entry.Device == "" {
			return nil, NewValidationError(fmt.Sprintf("devices[%d].device", i), entry.Device, "device id is required")
		}
		if entry.Type == "" {
			return nil, NewValidationError(fmt.Sprintf("devices[%d].type", i), entry.Type, "device type is required")
		}
		if seen[entry.Device] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDevice, entry.Device)
		}
		seen[entry.Device] = true

		device, err := entry.toLoadedDevice(i)
		if err != nil {
			return nil, err
		}
		loaded = append(loaded, device)
	}
	return loaded, nil
}

func (e DeviceEntry) toLoadedDevice(index int) (LoadedDevice, error) {
	config := goveelife.DeviceConfig{
		Device:     e.Device,
		SKU:        e.SKU,
		Type:       e.Type,
		DeviceName: e.DeviceName,
	}

	// capabilities go through JSON so parameters keep the cloud wire shape
	data, err := json.Marshal(e.Capabilities)
	if err != nil {
		return LoadedDevice{}, NewValidationError(fmt.Sprintf("devices[%d].capabilities", index), e.Device, err.Error())
	}
	if err := json.Unmarshal(data, &config.Capabilities); err != nil {
		return LoadedDevice{}, NewValidationError(fmt.Sprintf("devices[%d].capabilities", index), e.Device, err.Error())
	}
	for j, capability := range config.Capabilities {
		if capability.Type == "" {
			return LoadedDevice{}, NewValidationError(fmt.Sprintf("devices[%d].capabilities[%d].type", index, j), "", "capability type is required")
		}
	}

	state := make([]cache.StateEntry, 0, len(e.State))
	for j, seed := range e.State {
		value, err := normalizeValue(seed.State.Value)
		if err != nil {
			return LoadedDevice{}, NewValidationError(fmt.Sprintf("devices[%d].state[%d]", index, j), seed.Instance, err.Error())
		}
		state = append(state, cache.StateEntry{Type: seed.Type, Instance: seed.Instance, Value: value})
	}

	return LoadedDevice{Config: config, State: state}, nil
}

// normalizeValue converts a YAML value into its decoded JSON shape
func normalizeValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Configs returns the device configurations of loaded devices
func Configs(loaded []LoadedDevice) []goveelife.DeviceConfig {
	configs := make([]goveelife.DeviceConfig, len(loaded))
	for i, device := range loaded {
		configs[i] = device.Config
	}
	return configs
}

// StateSeeder stores initial device state
type StateSeeder interface {
	Seed(ctx context.Context, deviceID string, entries []cache.StateEntry) error
}

// SeedState writes the initial state of every loaded device into seeder
func SeedState(ctx context.Context, seeder StateSeeder, loaded []LoadedDevice) error {
	for _, device := range loaded {
		if len(device.State) == 0 {
			continue
		}
		if err := seeder.Seed(ctx, device.Config.Device, device.State); err != nil {
			return fmt.Errorf("failed to seed state of %s: %w", device.Config.Device, err)
		}
	}
	return nil
}

// StaticSource is a fixed in-memory device list
type StaticSource struct {
	mutex   sync.RWMutex
	devices []goveelife.DeviceConfig
}

// NewStaticSource creates a source serving devices
func NewStaticSource(devices []goveelife.DeviceConfig) *StaticSource {
	return &StaticSource{devices: append([]goveelife.DeviceConfig(nil), devices...)}
}

// ListDevices implements goveelife.DeviceSource
func (s *StaticSource) ListDevices(ctx context.Context) ([]goveelife.DeviceConfig, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return append([]goveelife.DeviceConfig(nil), s.devices...), nil
}

// SharedCoordinator maps every device onto one state reader
func SharedCoordinator(devices []goveelife.DeviceConfig, reader goveelife.StateReader) goveelife.StaticCoordinators {
	coordinators := make(goveelife.StaticCoordinators, len(devices))
	for _, device := range devices {
		coordinators[device.Device] = reader
	}
	return coordinators
}
