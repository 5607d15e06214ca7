package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"

	"golang.org/x/image/draw"

	"github.com/cjeanneret/UVCam/internal/debug"
)

// Defaults used when Options fields are zero.
const (
	DefaultFPS         = 24
	DefaultWidth       = 640
	DefaultHeight      = 480
	DefaultJPEGQuality = 95
)

// Options configures a Camera. Zero fields take defaults.
type Options struct {
	Width       int // screen width of encoded frames
	Height      int // screen height of encoded frames
	FPS         int
	JPEGQuality int
	Now         func() time.Time // clock for the timestamp overlay
}

// Camera reads frames from a capture device and gets/sets its controls.
// Methods are safe for concurrent use. Device access is serialized;
// control calls run alongside it.
type Camera struct {
	mu       sync.Mutex // guards the device state below
	source   FrameSource
	controls *Controller // immutable, safe without mu
	width    int
	height   int
	fps      int
	quality  int
	now      func() time.Time
	released bool
}

// New wraps a frame source and a control backend.
func New(source FrameSource, controls *Controller, opts Options) *Camera {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.FPS <= 0 {
		opts.FPS = DefaultFPS
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if controls == nil {
		controls = NewController(ControllerConfig{})
	}
	return &Camera{
		source:   source,
		controls: controls,
		width:    opts.Width,
		height:   opts.Height,
		fps:      opts.FPS,
		quality:  opts.JPEGQuality,
		now:      opts.Now,
	}
}

// GetFrame reads a frame, superimposes a timestamp and returns it encoded as JPEG.
// If the device fails to deliver a frame it is released and every later call
// returns ErrReleased.
func (c *Camera) GetFrame() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.released || c.source == nil {
		return nil, ErrReleased
	}

	img, err := c.source.ReadFrame()
	if err != nil {
		debug.Errorf("Frame grab failed, releasing capture device: %v", err)
		c.releaseLocked()
		return nil, fmt.Errorf("grab frame: %w", err)
	}

	frame := image.NewRGBA(image.Rect(0, 0, c.width, c.height))
	draw.ApproxBiLinear.Scale(frame, frame.Bounds(), img, img.Bounds(), draw.Src, nil)
	Stamp(frame, c.now())

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: c.quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	debug.Trace("Frame encoded: %d bytes", buf.Len())
	return buf.Bytes(), nil
}

// SetFPS asks the device for a new frame rate. fps <= 0 selects the default (24).
func (c *Camera) SetFPS(fps int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if fps <= 0 {
		fps = DefaultFPS
	}
	if c.released || c.source == nil {
		return ErrReleased
	}
	if err := c.source.SetFPS(fps); err != nil {
		return err
	}
	c.fps = fps
	debug.Live("Frame rate set to %d", fps)
	return nil
}

// FPS returns the last frame rate requested.
func (c *Camera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

// Size returns the width and height of encoded frames.
func (c *Camera) Size() (int, int) {
	return c.width, c.height
}

// Control calls go through uvcdynctrl, not the capture device,
// so they do not take mu and never wait behind a frame read.

// GetControlValue returns a control value, or 0 after logging a failure.
func (c *Camera) GetControlValue(control string) ControlValue {
	return c.controls.GetControlValue(control)
}

// SetControlValue sets a control; failures are logged.
func (c *Camera) SetControlValue(control string, value int) {
	c.controls.SetControlValue(control, value)
}

// GetAllControls reads every control.
func (c *Camera) GetAllControls() map[string]ControlValue {
	return c.controls.GetAll()
}

// ControlNames returns the control name mapping.
func (c *Camera) ControlNames() ControlNames {
	return c.controls.Names()
}

// Released reports whether the capture device has been released.
func (c *Camera) Released() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

// Close releases the capture device. It is safe to call more than once.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseLocked()
}

func (c *Camera) releaseLocked() error {
	if c.released || c.source == nil {
		c.released = true
		return nil
	}
	c.released = true
	return c.source.Close()
}
