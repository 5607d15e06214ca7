package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override the YAML configuration.
const (
	EnvSource     = "UVCAM_SOURCE"
	EnvDeviceName = "UVCAM_DEVICE_NAME"
	EnvBackend    = "UVCAM_BACKEND"
	EnvToolPath   = "UVCAM_TOOL_PATH"
	EnvDebugLevel = "UVCAM_DEBUG_LEVEL"
	EnvLampPin    = "UVCAM_LAMP_PIN"
	EnvMockGPIO   = "UVCAM_MOCK_GPIO"
)

// ApplyEnv overrides cfg from the process environment and an optional
// dotenv file. Variables already set in the process win over the file.
// A missing envFile is not an error.
func ApplyEnv(cfg *Config, envFile string) error {
	fileVals := map[string]string{}
	if envFile != "" {
		vals, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			fileVals = vals
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("read env file: %w", err)
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVals[key]
		return v, ok
	}

	sourceSet := false
	if v, ok := lookup(EnvSource); ok && v != "" {
		cfg.Camera.Source = v
		sourceSet = true
	}
	if v, ok := lookup(EnvDeviceName); ok && v != "" {
		cfg.Camera.DeviceName = v
	} else if sourceSet {
		cfg.Camera.DeviceName = deviceNameFor(cfg.Camera.Source)
	}
	if v, ok := lookup(EnvBackend); ok && v != "" {
		cfg.Camera.Backend = v
	}
	if v, ok := lookup(EnvToolPath); ok && v != "" {
		cfg.Controls.ToolPath = v
	}
	if v, ok := lookup(EnvDebugLevel); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvDebugLevel, v)
		}
		cfg.Defaults.DebugLevel = n
	}
	if v, ok := lookup(EnvLampPin); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvLampPin, v)
		}
		cfg.Lamp.Pin = n
	}
	if v, ok := lookup(EnvMockGPIO); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, EnvMockGPIO, v)
		}
		cfg.Defaults.MockGPIO = b
	}

	return cfg.normalize()
}
