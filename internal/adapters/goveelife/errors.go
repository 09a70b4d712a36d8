package goveelife

import (
	"errors"
	"fmt"
)

// Climate platform errors
var (
	ErrUnsupportedHVACMode   = errors.New("hvac mode not supported by device")
	ErrDeviceListUnavailable = errors.New("cloud devices unavailable")
	ErrNoController          = errors.New("no device controller configured")
	ErrEntityNotFound        = errors.New("climate entity not found")
	ErrUnsupportedAction     = errors.New("unsupported climate action")
	ErrInvalidParameter      = errors.New("invalid action parameter")
)

// DeviceError wraps an error raised while operating on one device.
type DeviceError struct {
	DeviceID string
	Op       string
	Err      error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("govee device error: device=%s op=%s: %v", e.DeviceID, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewDeviceError creates a new device error
func NewDeviceError(deviceID, op string, err error) error {
	return &DeviceError{
		DeviceID: deviceID,
		Op:       op,
		Err:      err,
	}
}
