package goveelife

import (
	"encoding/json"
	"math"
	"strconv"
)

// VendorValue is a comparable vendor scalar. Numbers compare by value, so a
// capability value declared as 1 matches a state value decoded as 1.0.
type VendorValue struct {
	num   float64
	str   string
	isStr bool
}

// NumberValue returns a numeric VendorValue.
func NumberValue(n float64) VendorValue {
	return VendorValue{num: n}
}

// StringValue returns a string VendorValue.
func StringValue(s string) VendorValue {
	return VendorValue{str: s, isStr: true}
}

// NewVendorValue normalizes a decoded JSON scalar. It reports false for nil,
// booleans, maps and slices.
func NewVendorValue(v interface{}) (VendorValue, bool) {
	switch t := v.(type) {
	case float64:
		return NumberValue(t), true
	case float32:
		return NumberValue(float64(t)), true
	case int:
		return NumberValue(float64(t)), true
	case int32:
		return NumberValue(float64(t)), true
	case int64:
		return NumberValue(float64(t)), true
	case uint:
		return NumberValue(float64(t)), true
	case uint32:
		return NumberValue(float64(t)), true
	case uint64:
		return NumberValue(float64(t)), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return StringValue(t.String()), true
		}
		return NumberValue(f), true
	case string:
		return StringValue(t), true
	case VendorValue:
		return t, true
	default:
		return VendorValue{}, false
	}
}

// IsString reports whether the value is a string.
func (v VendorValue) IsString() bool { return v.isStr }

// Float returns the numeric value.
func (v VendorValue) Float() (float64, bool) {
	if v.isStr {
		return 0, false
	}
	return v.num, true
}

// IsZero reports whether the value is the number zero.
func (v VendorValue) IsZero() bool {
	return !v.isStr && v.num == 0
}

// Interface returns the value in its wire form: int64 for integral numbers,
// float64 otherwise, or string.
func (v VendorValue) Interface() interface{} {
	if v.isStr {
		return v.str
	}
	if v.num == math.Trunc(v.num) && math.Abs(v.num) < 1<<53 {
		return int64(v.num)
	}
	return v.num
}

func (v VendorValue) String() string {
	if v.isStr {
		return v.str
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

// MarshalJSON encodes the value in its wire form.
func (v VendorValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON decodes a JSON number or string.
func (v *VendorValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, ok := NewVendorValue(raw)
	if !ok {
		return &json.UnsupportedValueError{Str: string(data)}
	}
	*v = parsed
	return nil
}

// WorkModeValue is the value of the work_mode/workMode capability.
type WorkModeValue struct {
	WorkMode  VendorValue `json:"workMode"`
	ModeValue VendorValue `json:"modeValue"`
}

// parseWorkModeValue reads a {workMode, modeValue} state reading. A missing or
// null modeValue counts as 0; any other unusable modeValue fails the parse.
func parseWorkModeValue(raw interface{}) (WorkModeValue, bool) {
	m, ok := raw.(map[string]interface{})
	if !ok || len(m) == 0 {
		return WorkModeValue{}, false
	}
	workMode, ok := NewVendorValue(m[fieldWorkMode])
	if !ok {
		return WorkModeValue{}, false
	}
	modeValue := NumberValue(0)
	if mv, present := m[fieldModeValue]; present && mv != nil {
		parsed, ok := NewVendorValue(mv)
		if !ok {
			return WorkModeValue{}, false
		}
		modeValue = parsed
	}
	return WorkModeValue{WorkMode: workMode, ModeValue: modeValue}, true
}

// toFloat converts numeric state readings, including numeric strings.
func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		parsed, ok := NewVendorValue(v)
		if !ok {
			return 0, false
		}
		return parsed.Float()
	}
}
