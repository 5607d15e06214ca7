package camera

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/cjeanneret/UVCam/internal/debug"
)

// DefaultToolPath is the uvcdynctrl binary. The full path is needed.
const DefaultToolPath = "/usr/bin/uvcdynctrl"

// DefaultControlTimeout bounds a single uvcdynctrl invocation.
const DefaultControlTimeout = 5 * time.Second

var (
	// ErrUnknownControl is returned for a logical name outside the mapping.
	ErrUnknownControl = errors.New("camera: unknown control")

	// ErrInvalidOutput is returned when uvcdynctrl prints something other than an integer.
	ErrInvalidOutput = errors.New("camera: invalid control output")
)

// Runner runs an external command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands on the host with os/exec.
type ExecRunner struct{}

// Run implements Runner. A non-zero exit status is an error carrying stderr.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	debug.Command(name, args)
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return out, fmt.Errorf("%s: %w | %s", name, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// ControllerConfig configures a Controller. Zero fields take defaults.
type ControllerConfig struct {
	ToolPath string        // default /usr/bin/uvcdynctrl
	Device   string        // uvcdynctrl -d argument, default video0
	Names    ControlNames  // default DefaultControlNames()
	Timeout  time.Duration // per invocation, default 5s
	Runner   Runner        // default ExecRunner
}

// Controller reads and writes camera controls through uvcdynctrl.
type Controller struct {
	toolPath string
	device   string
	names    ControlNames
	timeout  time.Duration
	runner   Runner
}

// NewController creates a Controller, filling defaults for zero fields.
func NewController(cfg ControllerConfig) *Controller {
	if cfg.ToolPath == "" {
		cfg.ToolPath = DefaultToolPath
	}
	if cfg.Device == "" {
		cfg.Device = "video0"
	}
	if cfg.Names.Len() == 0 {
		cfg.Names = DefaultControlNames()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultControlTimeout
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	return &Controller{
		toolPath: cfg.ToolPath,
		device:   cfg.Device,
		names:    cfg.Names,
		timeout:  cfg.Timeout,
		runner:   cfg.Runner,
	}
}

// Names returns the control name mapping.
func (c *Controller) Names() ControlNames {
	return c.names
}

// Device returns the uvcdynctrl device name.
func (c *Controller) Device() string {
	return c.device
}

// Read returns the raw integer value of a control.
func (c *Controller) Read(ctx context.Context, control string) (int, error) {
	name, ok := c.names.Lookup(control)
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownControl, control)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out, err := c.runner.Run(ctx, c.toolPath, "-d", c.device, "-g", name)
	if err != nil {
		return 0, fmt.Errorf("get %q: %w", name, err)
	}

	text := strings.TrimSpace(string(out))
	v, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: get %q returned %q", ErrInvalidOutput, name, text)
	}
	return v, nil
}

// Write sets a control to value.
func (c *Controller) Write(ctx context.Context, control string, value int) error {
	name, ok := c.names.Lookup(control)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownControl, control)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.runner.Run(ctx, c.toolPath, "-d", c.device, "-s", name, strconv.Itoa(value)); err != nil {
		return fmt.Errorf("set %q: %w", name, err)
	}
	return nil
}

// GetControlValue returns the current value of a control: a boolean for
// autofocus and autoexposure, the raw integer otherwise.
// Any failure is logged and the integer 0 is returned.
func (c *Controller) GetControlValue(control string) ControlValue {
	raw, err := c.Read(context.Background(), control)
	if err != nil {
		debug.Errorf("Error while getting %s", control)
		debug.Errorf("Error message: %v", err)
		return ControlValue{}
	}
	v := Interpret(control, raw)
	debug.Control("get", control, v)
	return v
}

// SetControlValue sets a control. Any failure is logged and otherwise ignored.
func (c *Controller) SetControlValue(control string, value int) {
	if err := c.Write(context.Background(), control, value); err != nil {
		debug.Errorf("Error while setting %s with value: `%d`", control, value)
		debug.Errorf("Error message: %v", err)
		return
	}
	debug.Control("set", control, value)
}

// GetAll reads every control in the mapping.
func (c *Controller) GetAll() map[string]ControlValue {
	values := make(map[string]ControlValue, c.names.Len())
	for _, control := range c.names.Logical() {
		values[control] = c.GetControlValue(control)
	}
	return values
}
