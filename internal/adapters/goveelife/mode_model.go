package goveelife

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// ModeModel is the climate mode model derived from a device's capability list.
// It is immutable once built; accessors return copies.
type ModeModel struct {
	features ClimateFeature

	hvacModes   []HVACMode
	hvacForward map[VendorValue]HVACMode
	hvacReverse map[HVACMode]VendorValue

	presetModes   []string
	presetForward map[string]VendorValue
	presetReverse map[string]WorkModeValue

	bounds TemperatureBounds
	unit   TemperatureUnit
}

// Features returns the supported feature bitset.
func (m ModeModel) Features() ClimateFeature { return m.features }

// HVACModes returns the supported hvac modes in declaration order.
func (m ModeModel) HVACModes() []HVACMode {
	return append([]HVACMode(nil), m.hvacModes...)
}

// HVACModeFor maps a vendor power value onto an hvac mode.
func (m ModeModel) HVACModeFor(v VendorValue) (HVACMode, bool) {
	mode, ok := m.hvacForward[v]
	return mode, ok
}

// VendorValueFor maps an hvac mode onto the vendor power value.
func (m ModeModel) VendorValueFor(mode HVACMode) (VendorValue, bool) {
	v, ok := m.hvacReverse[mode]
	return v, ok
}

// PresetModes returns the preset names in declaration order.
func (m ModeModel) PresetModes() []string {
	return append([]string(nil), m.presetModes...)
}

// PresetWorkMode returns the coarse workMode value of a preset.
func (m ModeModel) PresetWorkMode(name string) (VendorValue, bool) {
	v, ok := m.presetForward[name]
	return v, ok
}

// PresetCommand returns the full work mode payload for a preset.
func (m ModeModel) PresetCommand(name string) (WorkModeValue, bool) {
	v, ok := m.presetReverse[name]
	return v, ok
}

// MatchPreset finds the first preset, in declaration order, whose payload equals v.
func (m ModeModel) MatchPreset(v WorkModeValue) (string, bool) {
	for _, name := range m.presetModes {
		if m.presetReverse[name] == v {
			return name, true
		}
	}
	return "", false
}

// Bounds returns the settable temperature range.
func (m ModeModel) Bounds() TemperatureBounds { return m.bounds }

// Unit returns the temperature unit declared by the capabilities.
func (m ModeModel) Unit() TemperatureUnit { return m.unit }

// ModeModelView is the serializable form of a ModeModel.
type ModeModelView struct {
	SupportedFeatures []string                 `json:"supported_features"`
	HVACModes         []HVACMode               `json:"hvac_modes"`
	HVACValues        map[HVACMode]VendorValue `json:"hvac_values"`
	PresetModes       []string                 `json:"preset_modes"`
	PresetValues      map[string]WorkModeValue `json:"preset_values"`
	Bounds            TemperatureBounds        `json:"bounds"`
	Unit              TemperatureUnit          `json:"unit"`
}

// View returns a serializable copy of the model.
func (m ModeModel) View() ModeModelView {
	view := ModeModelView{
		SupportedFeatures: m.features.Names(),
		HVACModes:         m.HVACModes(),
		HVACValues:        make(map[HVACMode]VendorValue, len(m.hvacReverse)),
		PresetModes:       m.PresetModes(),
		PresetValues:      make(map[string]WorkModeValue, len(m.presetReverse)),
		Bounds:            m.bounds,
		Unit:              m.unit,
	}
	for mode, v := range m.hvacReverse {
		view.HVACValues[mode] = v
	}
	for name, v := range m.presetReverse {
		view.PresetValues[name] = v
	}
	return view
}

// modeModelBuilder accumulates one BuildModeModel call.
type modeModelBuilder struct {
	model  ModeModel
	logger *logrus.Entry
}

// BuildModeModel derives the mode model from a capability list. It never fails:
// unrecognized or malformed capabilities are logged and skipped.
func BuildModeModel(capabilities []Capability, logger *logrus.Entry) ModeModel {
	b := &modeModelBuilder{
		model: ModeModel{
			hvacForward: make(map[VendorValue]HVACMode),
			hvacReverse: make(map[HVACMode]VendorValue),
			bounds: TemperatureBounds{
				Min:  DefaultMinTemp,
				Max:  DefaultMaxTemp,
				Step: DefaultTempStep,
			},
			unit: UnitCelsius,
		},
		logger: logger,
	}
	b.resetPresets()

	for _, capability := range capabilities {
		b.apply(capability)
	}

	b.logger.WithFields(logrus.Fields{
		"hvac_modes":   b.model.hvacModes,
		"preset_modes": b.model.presetModes,
		"features":     b.model.features.Names(),
	}).Debug("Built climate mode model")

	return b.model
}

func (b *modeModelBuilder) apply(capability Capability) {
	kind := Classify(capability)
	entry := b.logger.WithFields(logrus.Fields{
		"capability_type": capability.Type,
		"instance":        capability.Instance,
		"kind":            kind.String(),
	})

	switch kind {
	case KindOnOff:
		params, err := capability.decodeParameters()
		if err != nil {
			entry.WithError(err).Warn("Skipping malformed capability")
			return
		}
		b.applyOnOff(params, entry)
	case KindTemperatureSetting:
		params, err := capability.decodeParameters()
		if err != nil {
			entry.WithError(err).Warn("Skipping malformed capability")
			return
		}
		b.applyTemperatureSetting(params, entry)
	case KindWorkMode:
		params, err := capability.decodeParameters()
		if err != nil {
			entry.WithError(err).Warn("Skipping malformed capability")
			return
		}
		b.applyWorkMode(params, entry)
	case KindSensorTemperature:
		// read directly by CurrentTemperature
	default:
		entry.Debug("Capability unhandled by climate platform")
	}
}

func (b *modeModelBuilder) applyOnOff(params CapabilityParameters, entry *logrus.Entry) {
	for _, option := range params.Options {
		var (
			mode    HVACMode
			feature ClimateFeature
		)
		switch option.Name {
		case optionOn:
			mode, feature = HVACModeHeatCool, FeatureTurnOn
		case optionOff:
			mode, feature = HVACModeOff, FeatureTurnOff
		default:
			entry.WithField("option", option.Name).Warn("Unknown on_off option")
			continue
		}

		value, ok := NewVendorValue(option.Value)
		if !ok {
			entry.WithField("option", option.Name).Warn("on_off option has no usable value")
			continue
		}

		b.model.features |= feature
		b.addHVACMode(mode, value)
	}
}

// addHVACMode keeps both hvac maps exact inverses of each other.
func (b *modeModelBuilder) addHVACMode(mode HVACMode, value VendorValue) {
	if previous, ok := b.model.hvacReverse[mode]; ok {
		delete(b.model.hvacForward, previous)
	}
	if previousMode, ok := b.model.hvacForward[value]; ok && previousMode != mode {
		delete(b.model.hvacReverse, previousMode)
		b.model.hvacModes = removeMode(b.model.hvacModes, previousMode)
	}

	b.model.hvacForward[value] = mode
	b.model.hvacReverse[mode] = value

	for _, existing := range b.model.hvacModes {
		if existing == mode {
			return
		}
	}
	b.model.hvacModes = append(b.model.hvacModes, mode)
}

func removeMode(modes []HVACMode, mode HVACMode) []HVACMode {
	out := modes[:0]
	for _, m := range modes {
		if m != mode {
			out = append(out, m)
		}
	}
	return out
}

func (b *modeModelBuilder) applyTemperatureSetting(params CapabilityParameters, entry *logrus.Entry) {
	b.model.features |= FeatureTargetTemperature

	for _, field := range params.Fields {
		switch field.FieldName {
		case fieldTemperature:
			if field.Range == nil {
				entry.Warn("temperature field has no range")
				continue
			}
			b.model.bounds = TemperatureBounds{
				Min:  field.Range.Min,
				Max:  field.Range.Max,
				Step: field.Range.Precision,
			}
		case fieldUnit:
			raw, isString := field.DefaultValue.(string)
			unit, ok := ParseTemperatureUnit(raw)
			if !isString || !ok {
				entry.WithField("unit", field.DefaultValue).Warn("Unknown temperature unit")
				continue
			}
			b.model.unit = unit
		case fieldAutoStop:
			// auto-stop is not exposed by the climate entity
		default:
			entry.WithField("field", field.FieldName).Debug("temperature_setting field unhandled")
		}
	}
}

func (b *modeModelBuilder) resetPresets() {
	b.model.presetModes = []string{}
	b.model.presetForward = make(map[string]VendorValue)
	b.model.presetReverse = make(map[string]WorkModeValue)
}

func (b *modeModelBuilder) applyWorkMode(params CapabilityParameters, entry *logrus.Entry) {
	b.model.features |= FeaturePresetMode
	b.resetPresets()

	workField, hasWork := params.field(fieldWorkMode)
	modeField, hasMode := params.field(fieldModeValue)
	if !hasWork || !hasMode {
		entry.Warn("work_mode capability is missing workMode or modeValue fields")
		return
	}

	for _, workOption := range workField.Options {
		workValue, ok := NewVendorValue(workOption.Value)
		if !ok {
			entry.WithField("work_mode", workOption.Name).Warn("workMode option has no usable value")
			continue
		}

		if workOption.Name == optionGearMode {
			for _, sub := range modeField.Options {
				if sub.Name != optionGearMode {
					continue
				}
				for _, level := range sub.Options {
					levelValue, ok := NewVendorValue(level.Value)
					if !ok {
						entry.WithField("level", level.Name).Warn("gearMode level has no usable value")
						continue
					}
					name := fmt.Sprintf("%s-%s", workOption.Name, level.Name)
					b.addPreset(name, WorkModeValue{WorkMode: workValue, ModeValue: levelValue}, entry)
				}
			}
			continue
		}

		defaultLevel := NumberValue(0)
		for _, option := range modeField.Options {
			if option.Name != workOption.Name {
				continue
			}
			if v, ok := NewVendorValue(option.DefaultValue); ok {
				defaultLevel = v
			} else {
				defaultLevel = NumberValue(0)
			}
		}
		b.addPreset(workOption.Name, WorkModeValue{WorkMode: workValue, ModeValue: defaultLevel}, entry)
	}

	entry.WithField("preset_modes", b.model.presetModes).Debug("Available preset modes")
}

// addPreset registers a preset in all three preset containers. The first
// registration of a name wins.
func (b *modeModelBuilder) addPreset(name string, value WorkModeValue, entry *logrus.Entry) {
	if _, exists := b.model.presetReverse[name]; exists {
		entry.WithField("preset", name).Warn("Duplicate preset mode ignored")
		return
	}
	b.model.presetModes = append(b.model.presetModes, name)
	b.model.presetForward[name] = value.WorkMode
	b.model.presetReverse[name] = value
}
