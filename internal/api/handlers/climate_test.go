package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/stretchr/testify/assert"
)

func TestClimateError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not found", fmt.Errorf("%w: x", goveelife.ErrEntityNotFound), http.StatusNotFound},
		{"invalid parameter", fmt.Errorf("%w: temperature", goveelife.ErrInvalidParameter), http.StatusBadRequest},
		{"unsupported action", goveelife.ErrUnsupportedAction, http.StatusBadRequest},
		{"unsupported hvac mode", goveelife.ErrUnsupportedHVACMode, http.StatusUnprocessableEntity},
		{"no controller", goveelife.NewDeviceError("A1", "control", goveelife.ErrNoController), http.StatusServiceUnavailable},
		{"timeout", goveelife.NewDeviceError("A1", "control", context.DeadlineExceeded), http.StatusServiceUnavailable},
		{"device failure", goveelife.NewDeviceError("A1", "control", errors.New("cloud said no")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := climateError(tt.err)
			assert.Equal(t, tt.status, appErr.Code)
			assert.ErrorIs(t, appErr, tt.err)
			assert.Equal(t, tt.err.Error(), appErr.Details)
		})
	}
}
