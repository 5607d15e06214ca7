package camera

import (
	"sort"

	"github.com/cjeanneret/UVCam/internal/debug"
)

// Logical control names used by the CLI and the web interface.
const (
	AutoExposure = "autoexposure"
	AutoFocus    = "autofocus"
	Brightness   = "brightness"
	Contrast     = "contrast"
	Exposure     = "exposure"
	Focus        = "focus"
	Saturation   = "saturation"
	Zoom         = "zoom"
)

// defaultControlNames maps logical names to the names uvcdynctrl uses for
// most UVC webcams (see `uvcdynctrl --list`).
var defaultControlNames = map[string]string{
	AutoExposure: "Exposure, Auto",
	AutoFocus:    "Focus, Auto",
	Brightness:   "Brightness",
	Contrast:     "Contrast",
	Exposure:     "Exposure (Absolute)",
	Focus:        "Focus (absolute)",
	Saturation:   "Saturation",
	Zoom:         "Zoom, Absolute",
}

// ControlNames maps the 8 logical control names to device control names.
// The set of keys is fixed; only the device names can be overridden.
type ControlNames struct {
	names map[string]string
}

// DefaultControlNames returns the mapping with no overrides.
func DefaultControlNames() ControlNames {
	return NewControlNames(nil)
}

// NewControlNames starts from the defaults and applies overrides.
// Override keys that are not logical control names are ignored.
func NewControlNames(overrides map[string]string) ControlNames {
	names := make(map[string]string, len(defaultControlNames))
	for k, v := range defaultControlNames {
		names[k] = v
	}
	for k, v := range overrides {
		if _, ok := names[k]; !ok {
			debug.Verbose("Ignoring override for unknown control %q", k)
			continue
		}
		names[k] = v
	}
	return ControlNames{names: names}
}

// Lookup returns the device control name for a logical control.
func (c ControlNames) Lookup(control string) (string, bool) {
	name, ok := c.names[control]
	return name, ok
}

// Logical returns the logical control names, sorted.
func (c ControlNames) Logical() []string {
	keys := make([]string, 0, len(c.names))
	for k := range c.names {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a copy of the mapping.
func (c ControlNames) Map() map[string]string {
	m := make(map[string]string, len(c.names))
	for k, v := range c.names {
		m[k] = v
	}
	return m
}

// Len returns the number of controls (always 8 for a constructed mapping).
func (c ControlNames) Len() int {
	return len(c.names)
}
