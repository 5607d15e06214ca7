package main

import (
	"fmt"
	"strconv"

	"github.com/cjeanneret/UVCam/internal/config"
	"github.com/cjeanneret/UVCam/internal/debug"
	"github.com/cjeanneret/UVCam/internal/hw/camera"
	"github.com/cjeanneret/UVCam/internal/hw/gpio"
	"github.com/cjeanneret/UVCam/internal/hw/lamp"
)

// newController builds the uvcdynctrl controller described by cfg.
func newController(cfg *config.Config) *camera.Controller {
	return camera.NewController(camera.ControllerConfig{
		ToolPath: cfg.Controls.ToolPath,
		Device:   cfg.Camera.DeviceName,
		Names:    camera.NewControlNames(cfg.Controls.Names),
		Timeout:  cfg.ControlTimeout(),
	})
}

// newFrameSource opens the capture device with the configured backend.
func newFrameSource(cfg *config.Config) (camera.FrameSource, error) {
	switch cfg.Camera.Backend {
	case config.BackendV4L2:
		src, err := camera.OpenV4L2(camera.V4L2Options{
			Device:  cfg.SourcePath(),
			Width:   cfg.Camera.Width,
			Height:  cfg.Camera.Height,
			FPS:     cfg.Camera.FPS,
			Timeout: cfg.FrameTimeout(),
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	case config.BackendMediaDevices:
		id, err := mediaDeviceID(cfg.Camera.Source, camera.ListDevices())
		if err != nil {
			return nil, err
		}
		src, err := camera.OpenMediaDevices(camera.MediaDevicesOptions{
			DeviceID: id,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			FPS:      cfg.Camera.FPS,
		})
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported camera backend: %s", cfg.Camera.Backend)
	}
}

// mediaDeviceID maps camera.source to a mediadevices device ID.
// An index picks the N-th camera; anything else must match an ID or label.
func mediaDeviceID(source string, devices []camera.Device) (string, error) {
	if n, err := strconv.Atoi(source); err == nil {
		if n == 0 && len(devices) == 0 {
			return "", nil
		}
		if n < 0 || n >= len(devices) {
			return "", fmt.Errorf("camera index %d out of range (%d camera(s) found)", n, len(devices))
		}
		return devices[n].ID, nil
	}
	for _, d := range devices {
		if d.ID == source || d.Label == source {
			return d.ID, nil
		}
	}
	return "", fmt.Errorf("camera %q not found", source)
}

// openCamera opens the capture device and wires the controller.
func openCamera(cfg *config.Config) (*camera.Camera, error) {
	debug.Step(1, "Opening capture device")
	debug.Value("Backend", cfg.Camera.Backend)
	debug.Value("Source", cfg.SourcePath())

	src, err := newFrameSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	return camera.New(src, newController(cfg), camera.Options{
		Width:       cfg.Camera.Width,
		Height:      cfg.Camera.Height,
		FPS:         cfg.Camera.FPS,
		JPEGQuality: cfg.Camera.JPEGQuality,
	}), nil
}

// newGPIODriver opens the GPIO backend; replaced in tests.
var newGPIODriver = gpio.NewDriver

// openLamp returns the configured lamp, or nil when lamp.pin is 0.
// The returned close function releases the GPIO driver.
func openLamp(cfg *config.Config) (*lamp.Lamp, func(), error) {
	if !cfg.LampEnabled() {
		return nil, func() {}, nil
	}
	debug.Step(2, "Initializing lamp")
	debug.Value("Mock GPIO", cfg.Defaults.MockGPIO)
	debug.Value("Lamp pin", cfg.Lamp.Pin)

	drv, err := newGPIODriver(cfg.Defaults.MockGPIO)
	if err != nil {
		return nil, nil, fmt.Errorf("init GPIO: %w", err)
	}
	closeDriver := func() {
		if err := drv.Close(); err != nil {
			debug.Errorf("closing GPIO driver failed: %v", err)
		}
	}
	l, err := lamp.New(drv, cfg.Lamp.Pin, cfg.Lamp.ActiveLow)
	if err != nil {
		closeDriver()
		return nil, nil, err
	}
	return l, closeDriver, nil
}
