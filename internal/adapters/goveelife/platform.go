package goveelife

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sirupsen/logrus"
)

// PlatformName is the host platform served by this package.
const PlatformName = "climate"

// AddEntitiesFunc registers the entities created by a platform setup.
type AddEntitiesFunc func(entities []*Climate)

// Platform sets up climate entities for one config entry.
type Platform struct {
	Devices      DeviceSource
	Coordinators CoordinatorLookup
	Controller   Controller
	Notifier     StateNotifier
	Metrics      MetricsRecorder
	DeviceTypes  []string
	Logger       *logrus.Logger
}

// SetupEntry creates a Climate for every supported device of the entry and hands
// them to add. Failing to list devices aborts the setup; a device without a
// coordinator is logged and skipped.
func (p *Platform) SetupEntry(ctx context.Context, entryID string, add AddEntitiesFunc) error {
	base := p.Logger
	if base == nil {
		base = logrus.StandardLogger()
	}
	logger := base.WithFields(logrus.Fields{
		"entry_id": entryID,
		"platform": PlatformName,
	})
	logger.Debug("Setting up platform entry")

	if p.Devices == nil {
		logger.Error("Failed to get cloud devices from data store: no device source")
		return fmt.Errorf("%w: no device source", ErrDeviceListUnavailable)
	}
	devices, err := p.Devices.ListDevices(ctx)
	if err != nil {
		logger.WithError(err).Error("Failed to get cloud devices from data store")
		return fmt.Errorf("%w: %v", ErrDeviceListUnavailable, err)
	}

	deviceTypes := p.DeviceTypes
	if len(deviceTypes) == 0 {
		deviceTypes = PlatformDeviceTypes
	}

	entities := make([]*Climate, 0, len(devices))
	for _, device := range devices {
		if !containsString(deviceTypes, device.Type) {
			continue
		}

		var reader StateReader
		if p.Coordinators != nil {
			reader, _ = p.Coordinators.Coordinator(device.Device)
		}
		if reader == nil {
			logger.WithField("device_id", device.Device).Error("Failed to setup device: no coordinator")
			continue
		}

		entities = append(entities, NewClimate(device, ClimateDeps{
			State:      reader,
			Controller: p.Controller,
			Notifier:   p.Notifier,
			Metrics:    p.Metrics,
		}, base))

		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}

	if len(entities) > 0 && add != nil {
		add(entities)
	}

	logger.WithField("count", len(entities)).Info("Climate platform entry set up")
	return nil
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
