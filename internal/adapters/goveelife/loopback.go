package goveelife

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// LoopbackController applies commands straight to a state store instead of the
// cloud. It stands in for the cloud client when none is attached.
type LoopbackController struct {
	store  StateWriter
	logger *logrus.Logger
}

// NewLoopbackController creates a controller writing into store
func NewLoopbackController(store StateWriter, logger *logrus.Logger) *LoopbackController {
	return &LoopbackController{store: store, logger: logger}
}

// ControlDevice implements Controller
func (l *LoopbackController) ControlDevice(ctx context.Context, device DeviceConfig, command CapabilityCommand) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	// store values in the same shape as decoded state readings
	data, err := json.Marshal(command.Value)
	if err != nil {
		return false, fmt.Errorf("failed to encode command value: %w", err)
	}
	var value interface{}
	if err := json.Unmarshal(data, &value); err != nil {
		return false, fmt.Errorf("failed to decode command value: %w", err)
	}

	if err := l.store.SetStateValue(ctx, device.Device, command.Type, command.Instance, value); err != nil {
		return false, fmt.Errorf("failed to store state: %w", err)
	}

	l.logger.WithFields(logrus.Fields{
		"device_id":       device.Device,
		"capability_type": command.Type,
		"instance":        command.Instance,
	}).Debug("Loopback command applied")
	return true, nil
}
