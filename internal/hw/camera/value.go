package camera

import (
	"encoding/json"
	"strconv"
)

// Raw values that mean "on" for the toggle controls.
// Exposure, Auto: 1 = manual mode, 3 = aperture priority mode.
const (
	autoFocusOn    = 1
	autoExposureOn = 3
)

// ValueKind tells whether a ControlValue holds an integer or a boolean.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindBool
)

// ControlValue is the interpreted value of a control: a boolean for
// controls that toggle on/off, an integer for everything else.
// The zero value is the integer 0.
type ControlValue struct {
	Kind ValueKind
	Int  int
	Bool bool
}

// IntValue returns an integer ControlValue.
func IntValue(v int) ControlValue {
	return ControlValue{Kind: KindInt, Int: v}
}

// BoolValue returns a boolean ControlValue.
func BoolValue(v bool) ControlValue {
	return ControlValue{Kind: KindBool, Bool: v}
}

// Interpret converts the raw integer reported by uvcdynctrl.
// autofocus and autoexposure become booleans; other controls pass through.
func Interpret(control string, raw int) ControlValue {
	switch control {
	case AutoFocus:
		return BoolValue(raw == autoFocusOn)
	case AutoExposure:
		return BoolValue(raw == autoExposureOn)
	default:
		return IntValue(raw)
	}
}

// IsBool reports whether the value is a boolean.
func (v ControlValue) IsBool() bool {
	return v.Kind == KindBool
}

func (v ControlValue) String() string {
	if v.Kind == KindBool {
		return strconv.FormatBool(v.Bool)
	}
	return strconv.Itoa(v.Int)
}

// MarshalJSON encodes the value as a bare JSON boolean or number.
func (v ControlValue) MarshalJSON() ([]byte, error) {
	if v.Kind == KindBool {
		return json.Marshal(v.Bool)
	}
	return json.Marshal(v.Int)
}

// UnmarshalJSON accepts a JSON boolean or number.
func (v *ControlValue) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = BoolValue(b)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = IntValue(n)
	return nil
}
