package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestApplyEnv_FromFile(t *testing.T) {
	cfg := Default()
	env := writeEnvFile(t, "UVCAM_SOURCE=2\nUVCAM_TOOL_PATH=/usr/local/bin/uvcdynctrl\nUVCAM_LAMP_PIN=23\nUVCAM_MOCK_GPIO=false\n")

	if err := ApplyEnv(cfg, env); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.SourcePath() != "/dev/video2" {
		t.Errorf("SourcePath = %q, want /dev/video2", cfg.SourcePath())
	}
	if cfg.Camera.DeviceName != "video2" {
		t.Errorf("DeviceName = %q, want video2", cfg.Camera.DeviceName)
	}
	if cfg.Controls.ToolPath != "/usr/local/bin/uvcdynctrl" {
		t.Errorf("ToolPath = %q", cfg.Controls.ToolPath)
	}
	if cfg.Lamp.Pin != 23 {
		t.Errorf("Lamp.Pin = %d, want 23", cfg.Lamp.Pin)
	}
	if cfg.Defaults.MockGPIO {
		t.Error("MockGPIO should be false")
	}
}

func TestApplyEnv_ProcessWinsOverFile(t *testing.T) {
	cfg := Default()
	env := writeEnvFile(t, "UVCAM_DEVICE_NAME=fromfile\nUVCAM_DEBUG_LEVEL=3\n")
	t.Setenv(EnvDeviceName, "fromprocess")

	if err := ApplyEnv(cfg, env); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if cfg.Camera.DeviceName != "fromprocess" {
		t.Errorf("DeviceName = %q, want fromprocess", cfg.Camera.DeviceName)
	}
	if cfg.Defaults.DebugLevel != 3 {
		t.Errorf("DebugLevel = %d, want 3", cfg.Defaults.DebugLevel)
	}
}

func TestApplyEnv_MissingFileIgnored(t *testing.T) {
	cfg := Default()
	if err := ApplyEnv(cfg, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing env file should be ignored, got %v", err)
	}
	if cfg.Camera.DeviceName != "video0" {
		t.Errorf("DeviceName = %q, want video0", cfg.Camera.DeviceName)
	}
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{EnvDebugLevel, "loud"},
		{EnvLampPin, "x"},
		{EnvMockGPIO, "maybe"},
	}
	for _, tc := range cases {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			err := ApplyEnv(Default(), "")
			if !errors.Is(err, ErrInvalidEnv) {
				t.Errorf("error = %v, want ErrInvalidEnv", err)
			}
		})
	}
}

func TestApplyEnv_Revalidates(t *testing.T) {
	t.Setenv(EnvBackend, "gstreamer")
	if err := ApplyEnv(Default(), ""); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}
