package goveelife

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingWriter struct{}

func (failingWriter) SetStateValue(context.Context, string, string, string, interface{}) error {
	return errors.New("disk full")
}

func TestLoopbackController_StoresDecodedShape(t *testing.T) {
	logger, _ := test.NewNullLogger()
	state := newFakeState()
	controller := NewLoopbackController(state, logger)
	device := heaterDevice(t)

	applied, err := controller.ControlDevice(context.Background(), device, CapabilityCommand{
		Type:     CapabilityTypeWorkMode,
		Instance: InstanceWorkMode,
		Value:    map[string]interface{}{"workMode": int64(1), "modeValue": int64(2)},
	})

	require.NoError(t, err)
	assert.True(t, applied)
	value, ok := state.GetCachedStateValue(device.Device, CapabilityTypeWorkMode, InstanceWorkMode)
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"workMode": float64(1), "modeValue": float64(2)}, value)
}

func TestLoopbackController_StoreFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	controller := NewLoopbackController(failingWriter{}, logger)

	applied, err := controller.ControlDevice(context.Background(), heaterDevice(t), CapabilityCommand{
		Type:     CapabilityTypeOnOff,
		Instance: InstancePowerSwitch,
		Value:    int64(1),
	})

	assert.Error(t, err)
	assert.False(t, applied)
}

func TestLoopbackController_CancelledContext(t *testing.T) {
	logger, _ := test.NewNullLogger()
	controller := NewLoopbackController(newFakeState(), logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	applied, err := controller.ControlDevice(ctx, heaterDevice(t), CapabilityCommand{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, applied)
}
