package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cjeanneret/UVCam/internal/hw/camera"
)

// Capture backends.
const (
	BackendV4L2         = "v4l2"
	BackendMediaDevices = "mediadevices"
)

// CameraConfig describes the capture device.
type CameraConfig struct {
	Source         string `yaml:"source"`           // "0" -> /dev/video0, or a device path
	DeviceName     string `yaml:"device_name"`      // name passed to uvcdynctrl -d
	Backend        string `yaml:"backend"`          // "v4l2" or "mediadevices"
	Width          int    `yaml:"width"`            // screen width of served frames
	Height         int    `yaml:"height"`           // screen height of served frames
	FPS            int    `yaml:"fps"`              // requested frame rate
	JPEGQuality    int    `yaml:"jpeg_quality"`     // 1-100
	FrameTimeoutMs int    `yaml:"frame_timeout_ms"` // wait for a frame before giving up
}

// ControlsConfig describes how camera controls are read and written.
type ControlsConfig struct {
	ToolPath  string            `yaml:"tool_path"`  // uvcdynctrl binary
	TimeoutMs int               `yaml:"timeout_ms"` // per invocation
	Names     map[string]string `yaml:"names"`      // logical -> device control name overrides
}

// LampConfig describes an optional illuminator wired to a GPIO pin.
type LampConfig struct {
	Pin       int  `yaml:"pin"`        // BCM pin. 0 = no lamp.
	ActiveLow bool `yaml:"active_low"` // drive LOW to switch on
}

// TimelapseConfig holds defaults for timelapse captures.
type TimelapseConfig struct {
	OutputDir  string `yaml:"output_dir"`
	IntervalMs int    `yaml:"interval_ms"`
	Count      int    `yaml:"count"`
}

// LogConfig controls the optional log file.
type LogConfig struct {
	ToFile     bool   `yaml:"to_file"`
	Dir        string `yaml:"dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultsConfig contains generic parameters.
type DefaultsConfig struct {
	DebugLevel int  `yaml:"debug_level"` // debug level 0-4 (0=off, 1=info, 2=live, 3=verbose, 4=trace)
	MockGPIO   bool `yaml:"mock_gpio"`   // use mock GPIO (true=dev/test, false=real Raspberry Pi)
}

// Config aggregates all application configuration.
type Config struct {
	Camera    CameraConfig    `yaml:"camera"`
	Controls  ControlsConfig  `yaml:"controls"`
	Lamp      LampConfig      `yaml:"lamp"`
	Timelapse TimelapseConfig `yaml:"timelapse"`
	Log       LogConfig       `yaml:"log"`
	Defaults  DefaultsConfig  `yaml:"defaults"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{
		Defaults: DefaultsConfig{DebugLevel: 1, MockGPIO: true},
	}
	if err := cfg.normalize(); err != nil {
		// defaults are always valid
		panic(err)
	}
	return cfg
}

// Load reads a YAML file and returns the configuration.
// An empty path returns Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Config{Defaults: DefaultsConfig{DebugLevel: 1, MockGPIO: true}}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal yaml: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// normalize fills defaults and validates.
func (c *Config) normalize() error {
	if c.Camera.Source == "" {
		c.Camera.Source = "0"
	}
	if c.Camera.DeviceName == "" {
		c.Camera.DeviceName = deviceNameFor(c.Camera.Source)
	}
	if c.Camera.Backend == "" {
		c.Camera.Backend = BackendV4L2
	}
	if c.Camera.Backend != BackendV4L2 && c.Camera.Backend != BackendMediaDevices {
		return fmt.Errorf("camera.backend must be %q or %q, got %q", BackendV4L2, BackendMediaDevices, c.Camera.Backend)
	}
	if c.Camera.Width == 0 {
		c.Camera.Width = 640
	}
	if c.Camera.Height == 0 {
		c.Camera.Height = 480
	}
	if c.Camera.Width < 0 || c.Camera.Height < 0 {
		return fmt.Errorf("camera size must be positive, got %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.FPS == 0 {
		c.Camera.FPS = 24
	}
	if c.Camera.FPS < 1 || c.Camera.FPS > 240 {
		return fmt.Errorf("camera.fps must be between 1 and 240, got %d", c.Camera.FPS)
	}
	if c.Camera.JPEGQuality == 0 {
		c.Camera.JPEGQuality = 95
	}
	if c.Camera.JPEGQuality < 1 || c.Camera.JPEGQuality > 100 {
		return fmt.Errorf("camera.jpeg_quality must be between 1 and 100, got %d", c.Camera.JPEGQuality)
	}
	if c.Camera.FrameTimeoutMs <= 0 {
		c.Camera.FrameTimeoutMs = 5000
	}

	if c.Controls.ToolPath == "" {
		c.Controls.ToolPath = camera.DefaultToolPath
	}
	if c.Controls.TimeoutMs <= 0 {
		c.Controls.TimeoutMs = 5000
	}
	if err := validateControlNames(c.Controls.Names); err != nil {
		return err
	}

	if c.Lamp.Pin < 0 {
		return fmt.Errorf("lamp.pin must be >= 0, got %d", c.Lamp.Pin)
	}

	if c.Timelapse.OutputDir == "" {
		c.Timelapse.OutputDir = "snapshots"
	}
	if c.Timelapse.IntervalMs <= 0 {
		c.Timelapse.IntervalMs = 1000
	}
	if c.Timelapse.Count < 0 {
		return fmt.Errorf("timelapse.count must be >= 0, got %d", c.Timelapse.Count)
	}
	if c.Timelapse.Count == 0 {
		c.Timelapse.Count = 10
	}

	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Log.MaxBackups <= 0 {
		c.Log.MaxBackups = 3
	}

	if c.Defaults.DebugLevel < 0 || c.Defaults.DebugLevel > 4 {
		return fmt.Errorf("defaults.debug_level must be between 0 and 4, got %d", c.Defaults.DebugLevel)
	}
	return nil
}

func validateControlNames(names map[string]string) error {
	known := camera.DefaultControlNames()
	var unknown []string
	for k, v := range names {
		if _, ok := known.Lookup(k); !ok {
			unknown = append(unknown, k)
			continue
		}
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("controls.names.%s must not be empty", k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("controls.names: unknown control(s) %s (valid: %s)",
			strings.Join(unknown, ", "), strings.Join(known.Logical(), ", "))
	}
	return nil
}

// deviceNameFor derives the uvcdynctrl device name from a capture source:
// "2" -> "video2", "/dev/video1" -> "video1". Anything else falls back to "video0".
func deviceNameFor(source string) string {
	if n, err := strconv.Atoi(source); err == nil && n >= 0 {
		return "video" + strconv.Itoa(n)
	}
	base := filepath.Base(source)
	if strings.HasPrefix(base, "video") {
		return base
	}
	return "video0"
}

// SourcePath returns the capture device path for camera.source.
// A bare index N maps to /dev/videoN.
func (c *Config) SourcePath() string {
	if n, err := strconv.Atoi(c.Camera.Source); err == nil && n >= 0 {
		return "/dev/video" + strconv.Itoa(n)
	}
	return c.Camera.Source
}

// FrameTimeout returns how long to wait for a frame.
func (c *Config) FrameTimeout() time.Duration {
	return time.Duration(c.Camera.FrameTimeoutMs) * time.Millisecond
}

// ControlTimeout returns the time limit for one uvcdynctrl invocation.
func (c *Config) ControlTimeout() time.Duration {
	return time.Duration(c.Controls.TimeoutMs) * time.Millisecond
}

// TimelapseInterval returns the delay between two timelapse shots.
func (c *Config) TimelapseInterval() time.Duration {
	return time.Duration(c.Timelapse.IntervalMs) * time.Millisecond
}

// LampEnabled reports whether a lamp pin is configured.
func (c *Config) LampEnabled() bool {
	return c.Lamp.Pin > 0
}

// ErrInvalidEnv is returned when an environment override cannot be parsed.
var ErrInvalidEnv = errors.New("invalid environment override")
