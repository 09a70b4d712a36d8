package goveelife

import "context"

// StateReader returns the last known value of a device capability instance.
// Values have the shape of decoded JSON; absence is reported as false.
type StateReader interface {
	GetCachedStateValue(deviceID, capabilityType, instance string) (interface{}, bool)
}

// StateWriter stores a capability instance value.
type StateWriter interface {
	SetStateValue(ctx context.Context, deviceID, capabilityType, instance string, value interface{}) error
}

// Controller sends a capability command to a device. The boolean reports
// whether the change should be considered applied.
type Controller interface {
	ControlDevice(ctx context.Context, device DeviceConfig, command CapabilityCommand) (bool, error)
}

// StateNotifier is told about climate state after an applied command.
type StateNotifier interface {
	NotifyStateChanged(state ClimateState)
}

// MetricsRecorder receives climate platform measurements.
type MetricsRecorder interface {
	RecordCommand(capabilityType string, applied bool)
	RecordUnmappedValue(property string)
}

// DeviceSource lists the configured devices of an entry.
type DeviceSource interface {
	ListDevices(ctx context.Context) ([]DeviceConfig, error)
}

// CoordinatorLookup returns the state reader polling a device.
type CoordinatorLookup interface {
	Coordinator(deviceID string) (StateReader, bool)
}

// StaticCoordinators is a fixed device to coordinator mapping.
type StaticCoordinators map[string]StateReader

// Coordinator implements CoordinatorLookup.
func (s StaticCoordinators) Coordinator(deviceID string) (StateReader, bool) {
	reader, ok := s[deviceID]
	return reader, ok && reader != nil
}

type nopNotifier struct{}

func (nopNotifier) NotifyStateChanged(ClimateState) {}

type nopMetrics struct{}

func (nopMetrics) RecordCommand(string, bool)   {}
func (nopMetrics) RecordUnmappedValue(string) {}
