package goveelife

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// SetHVACMode switches the device power to match mode. Modes the device never
// advertised fail with ErrUnsupportedHVACMode.
func (c *Climate) SetHVACMode(ctx context.Context, mode HVACMode) error {
	value, ok := c.model.VendorValueFor(mode)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedHVACMode, mode)
	}
	return c.send(ctx, CapabilityCommand{
		Type:     CapabilityTypeOnOff,
		Instance: InstancePowerSwitch,
		Value:    value.Interface(),
	})
}

// TurnOn switches the device to heat_cool.
func (c *Climate) TurnOn(ctx context.Context) error {
	return c.SetHVACMode(ctx, HVACModeHeatCool)
}

// TurnOff switches the device off.
func (c *Climate) TurnOff(ctx context.Context) error {
	return c.SetHVACMode(ctx, HVACModeOff)
}

// SetPresetMode selects a preset. Unknown presets are logged and ignored.
func (c *Climate) SetPresetMode(ctx context.Context, preset string) error {
	value, ok := c.model.PresetCommand(preset)
	if !ok {
		c.logger.WithField("preset_mode", preset).Warn("Unknown preset mode requested")
		return nil
	}
	return c.send(ctx, CapabilityCommand{
		Type:     CapabilityTypeWorkMode,
		Instance: InstanceWorkMode,
		Value: map[string]interface{}{
			fieldWorkMode:  value.WorkMode.Interface(),
			fieldModeValue: value.ModeValue.Interface(),
		},
	})
}

// SetTemperature sets the target temperature in the unit of the current
// targetTemperature reading.
func (c *Climate) SetTemperature(ctx context.Context, temperature float64) error {
	unit := defaultVendorUnit
	if reading, ok := c.readMap(CapabilityTypeTemperatureSetting, InstanceTargetTemperature); ok {
		if u, ok := reading["unit"].(string); ok && u != "" {
			unit = u
		}
	}
	return c.send(ctx, CapabilityCommand{
		Type:     CapabilityTypeTemperatureSetting,
		Instance: InstanceTargetTemperature,
		Value: map[string]interface{}{
			fieldTemperature: temperature,
			fieldUnit:        unit,
		},
	})
}

// send issues one command. The notifier only fires for applied commands.
func (c *Climate) send(ctx context.Context, command CapabilityCommand) error {
	entry := c.logger.WithFields(logrus.Fields{
		"capability_type": command.Type,
		"instance":        command.Instance,
		"value":           command.Value,
	})

	if c.controller == nil {
		c.metrics.RecordCommand(command.Type, false)
		return NewDeviceError(c.device.Device, "control", ErrNoController)
	}

	applied, err := c.controller.ControlDevice(ctx, c.device, command)
	c.metrics.RecordCommand(command.Type, err == nil && applied)
	if err != nil {
		entry.WithError(err).Error("Failed to control device")
		return NewDeviceError(c.device.Device, "control", err)
	}
	if !applied {
		entry.Warn("Device did not apply command")
		return nil
	}

	entry.Debug("Device command applied")
	c.notifier.NotifyStateChanged(c.State())
	return nil
}
