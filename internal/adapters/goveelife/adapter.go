package goveelife

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/frostdev-ops/pma-goveelife/internal/core/types"
	"github.com/sirupsen/logrus"
)

// Adapter registers Govee climate entities and routes PMA control actions to them
type Adapter struct {
	climates map[string]*Climate
	logger   *logrus.Logger
	mutex    sync.RWMutex
	lastSync time.Time
	stats    types.ActionStats
}

var _ types.PMAAdapter = (*Adapter)(nil)

// NewAdapter creates an empty climate adapter
func NewAdapter(logger *logrus.Logger) *Adapter {
	return &Adapter{
		climates: make(map[string]*Climate),
		logger:   logger,
	}
}

func (a *Adapter) GetID() string                     { return "govee_climate" }
func (a *Adapter) GetSourceType() types.PMASourceType { return types.SourceGovee }
func (a *Adapter) GetName() string                   { return "Govee Life Climate" }
func (a *Adapter) GetVersion() string                { return "1.0.0" }

// AddEntities implements AddEntitiesFunc
func (a *Adapter) AddEntities(entities []*Climate) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	for _, c := range entities {
		a.climates[c.ID()] = c
		a.logger.WithFields(logrus.Fields{
			"entity_id":    c.ID(),
			"device_id":    c.Device().Device,
			"preset_modes": len(c.ModeModel().PresetModes()),
		}).Info("Registered climate entity")
	}
}

// Climates returns all registered climates ordered by entity id
func (a *Adapter) Climates() []*Climate {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	out := make([]*Climate, 0, len(a.climates))
	for _, c := range a.climates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Climate looks up a climate by entity id
func (a *Adapter) Climate(entityID string) (*Climate, error) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()

	c, ok := a.climates[entityID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntityNotFound, entityID)
	}
	return c, nil
}

// SyncEntities projects every climate into a PMA entity
func (a *Adapter) SyncEntities(ctx context.Context) ([]types.PMAEntity, error) {
	climates := a.Climates()
	entities := make([]types.PMAEntity, 0, len(climates))
	for _, c := range climates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entities = append(entities, ConvertClimate(c.State()))
	}

	a.mutex.Lock()
	a.lastSync = time.Now()
	a.mutex.Unlock()

	return entities, nil
}

// GetSupportedEntityTypes implements types.PMAAdapter
func (a *Adapter) GetSupportedEntityTypes() []types.PMAEntityType {
	return []types.PMAEntityType{types.EntityTypeClimate}
}

// GetSupportedCapabilities implements types.PMAAdapter
func (a *Adapter) GetSupportedCapabilities() []types.PMACapability {
	return []types.PMACapability{types.CapabilityPower, types.CapabilityPresetMode, types.CapabilityTemperature}
}

// GetMetrics returns action counters and the registered entity count
func (a *Adapter) GetMetrics() *types.AdapterMetrics {
	lastSync := a.GetLastSyncTime()

	a.mutex.RLock()
	entities := len(a.climates)
	a.mutex.RUnlock()
	return a.stats.Snapshot(entities, lastSync)
}

// GetLastSyncTime returns the time of the last SyncEntities call
func (a *Adapter) GetLastSyncTime() *time.Time {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	if a.lastSync.IsZero() {
		return nil
	}
	t := a.lastSync
	return &t
}

// ConvertClimate maps a climate state onto the PMA climate entity
func ConvertClimate(state ClimateState) *types.PMAClimateEntity {
	deviceID := state.DeviceID

	entityState := types.StateUnknown
	switch state.HVACMode {
	case HVACModeOff:
		entityState = types.StateOff
	case HVACModeHeatCool:
		entityState = types.StateOn
	}

	capabilities := []types.PMACapability{}
	actions := []string{}
	features := ClimateFeature(0)
	for _, name := range state.SupportedFeatures {
		for _, fn := range featureNames {
			if fn.name == name {
				features |= fn.flag
			}
		}
	}
	if features.Has(FeatureTurnOn) || features.Has(FeatureTurnOff) {
		capabilities = append(capabilities, types.CapabilityPower)
		actions = append(actions, types.ActionSetHVACMode)
	}
	if features.Has(FeatureTurnOn) {
		actions = append(actions, types.ActionTurnOn)
	}
	if features.Has(FeatureTurnOff) {
		actions = append(actions, types.ActionTurnOff)
	}
	if features.Has(FeatureTargetTemperature) {
		capabilities = append(capabilities, types.CapabilityTemperature)
		actions = append(actions, types.ActionSetTemperature)
	}
	if features.Has(FeaturePresetMode) {
		capabilities = append(capabilities, types.CapabilityPresetMode)
		actions = append(actions, types.ActionSetPresetMode)
	}

	hvacModes := make([]string, 0, len(state.HVACModes))
	for _, m := range state.HVACModes {
		hvacModes = append(hvacModes, string(m))
	}

	return &types.PMAClimateEntity{
		PMABaseEntity: &types.PMABaseEntity{
			ID:           state.EntityID,
			Type:         types.EntityTypeClimate,
			FriendlyName: state.Name,
			State:        entityState,
			Attributes: map[string]interface{}{
				"sku":                state.SKU,
				"supported_features": state.SupportedFeatures,
			},
			LastUpdated:  state.UpdatedAt,
			Capabilities: capabilities,
			Actions:      actions,
			DeviceID:     &deviceID,
			Metadata: &types.PMAMetadata{
				Source:         types.SourceGovee,
				SourceEntityID: state.DeviceID,
				SourceDeviceID: &deviceID,
				SKU:            state.SKU,
				LastSynced:     state.UpdatedAt,
			},
			Available: entityState != types.StateUnknown,
		},
		HVACMode:           string(state.HVACMode),
		HVACModes:          hvacModes,
		PresetMode:         state.PresetMode,
		PresetModes:        state.PresetModes,
		TemperatureUnit:    string(state.TemperatureUnit),
		CurrentTemperature: state.CurrentTemperature,
		TargetTemperature:  state.TargetTemperature,
		MinTemp:            state.Bounds.Min,
		MaxTemp:            state.Bounds.Max,
		TargetTempStep:     state.Bounds.Step,
	}
}

// ExecuteAction routes a PMA control action to the climate write path
func (a *Adapter) ExecuteAction(ctx context.Context, action types.PMAControlAction) (*types.PMAControlResult, error) {
	start := time.Now()
	if action.Context == nil {
		action.Context = types.NewContext(string(types.SourceGovee), "")
	}

	result := &types.PMAControlResult{
		EntityID: action.EntityID,
		Action:   action.Action,
		Context:  action.Context,
	}

	c, err := a.Climate(action.EntityID)
	if err == nil {
		err = a.dispatch(ctx, c, action)
	}

	result.ProcessedAt = time.Now()
	result.Duration = result.ProcessedAt.Sub(start)
	a.stats.Record(result.Duration, err)

	if err != nil {
		a.logger.WithError(err).WithFields(logrus.Fields{
			"entity_id":  action.EntityID,
			"action":     action.Action,
			"context_id": action.Context.ID,
		}).Warn("Climate action failed")
		result.Error = &types.PMAError{
			Code:      errorCode(err),
			Message:   err.Error(),
			Source:    string(types.SourceGovee),
			EntityID:  action.EntityID,
			Timestamp: result.ProcessedAt,
			Retryable: !errors.Is(err, ErrEntityNotFound) && !errors.Is(err, ErrInvalidParameter) && !errors.Is(err, ErrUnsupportedAction) && !errors.Is(err, ErrUnsupportedHVACMode),
		}
		return result, err
	}

	state := c.State()
	result.Success = true
	result.NewState = ConvertClimate(state).State
	result.Attributes = map[string]interface{}{
		"hvac_mode":          state.HVACMode,
		"preset_mode":        state.PresetMode,
		"target_temperature": state.TargetTemperature,
	}
	return result, nil
}

func (a *Adapter) dispatch(ctx context.Context, c *Climate, action types.PMAControlAction) error {
	switch action.Action {
	case types.ActionTurnOn:
		return c.TurnOn(ctx)
	case types.ActionTurnOff:
		return c.TurnOff(ctx)
	case types.ActionSetHVACMode:
		mode, ok := action.Parameters["hvac_mode"].(string)
		if !ok {
			return fmt.Errorf("%w: hvac_mode", ErrInvalidParameter)
		}
		return c.SetHVACMode(ctx, HVACMode(mode))
	case types.ActionSetPresetMode:
		preset, ok := action.Parameters["preset_mode"].(string)
		if !ok {
			return fmt.Errorf("%w: preset_mode", ErrInvalidParameter)
		}
		return c.SetPresetMode(ctx, preset)
	case types.ActionSetTemperature:
		temperature, ok := toFloat(action.Parameters["temperature"])
		if !ok {
			return fmt.Errorf("%w: temperature", ErrInvalidParameter)
		}
		return c.SetTemperature(ctx, temperature)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, action.Action)
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrEntityNotFound):
		return "ENTITY_NOT_FOUND"
	case errors.Is(err, ErrInvalidParameter):
		return "INVALID_PARAMETER"
	case errors.Is(err, ErrUnsupportedAction):
		return "UNSUPPORTED_ACTION"
	case errors.Is(err, ErrUnsupportedHVACMode):
		return "UNSUPPORTED_HVAC_MODE"
	default:
		return "CONTROL_FAILED"
	}
}
