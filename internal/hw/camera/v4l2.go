package camera

import (
	"fmt"
	"image"
	"time"

	"github.com/blackjack/webcam"

	"github.com/cjeanneret/UVCam/internal/debug"
)

// V4L2Options configures a V4L2Source.
type V4L2Options struct {
	Device  string        // e.g. /dev/video0
	Width   int           // requested capture width
	Height  int           // requested capture height
	FPS     int           // requested frame rate, 0 = driver default
	Timeout time.Duration // wait for a frame
}

// V4L2Source captures frames from a Linux video device.
// MJPEG is preferred when the device offers it, YUYV otherwise.
type V4L2Source struct {
	cam     *webcam.Webcam
	device  string
	format  PixelFormat
	width   int
	height  int
	timeout uint32 // seconds
}

// OpenV4L2 opens the device, negotiates a format and starts streaming.
func OpenV4L2(opts V4L2Options) (*V4L2Source, error) {
	cam, err := webcam.Open(opts.Device)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Device, err)
	}

	format, err := pickFormat(cam.GetSupportedFormats())
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("%s: %w", opts.Device, err)
	}

	got, w, h, err := cam.SetImageFormat(webcam.PixelFormat(format), uint32(opts.Width), uint32(opts.Height))
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("%s: set format %s %dx%d: %w", opts.Device, format, opts.Width, opts.Height, err)
	}
	debug.Verbose("V4L2 %s: asked for %s %dx%d, got %s %dx%d",
		opts.Device, format, opts.Width, opts.Height, PixelFormat(got), w, h)

	if err := cam.SetBufferCount(4); err != nil {
		debug.Verbose("V4L2 %s: set buffer count: %v", opts.Device, err)
	}

	src := &V4L2Source{
		cam:     cam,
		device:  opts.Device,
		format:  PixelFormat(got),
		width:   int(w),
		height:  int(h),
		timeout: timeoutSeconds(opts.Timeout),
	}
	if opts.FPS > 0 {
		if err := src.SetFPS(opts.FPS); err != nil {
			debug.Warn("V4L2 %s: %v", opts.Device, err)
		}
	}

	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("%s: start streaming: %w", opts.Device, err)
	}
	debug.Info("Capturing from %s (%s %dx%d)", opts.Device, src.format, src.width, src.height)
	return src, nil
}

func pickFormat(supported map[webcam.PixelFormat]string) (PixelFormat, error) {
	for _, want := range []PixelFormat{FormatMJPEG, FormatYUYV} {
		if _, ok := supported[webcam.PixelFormat(want)]; ok {
			return want, nil
		}
	}
	return 0, fmt.Errorf("no supported pixel format (need MJPG or YUYV)")
}

func timeoutSeconds(d time.Duration) uint32 {
	s := uint32(d / time.Second)
	if s == 0 {
		s = 1
	}
	return s
}

// ReadFrame implements FrameSource.
func (s *V4L2Source) ReadFrame() (image.Image, error) {
	if s.cam == nil {
		return nil, ErrReleased
	}

	err := s.cam.WaitForFrame(s.timeout)
	switch err.(type) {
	case nil:
	case *webcam.Timeout:
		return nil, ErrFrameTimeout
	default:
		return nil, fmt.Errorf("%s: wait for frame: %w", s.device, err)
	}

	data, err := s.cam.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("%s: read frame: %w", s.device, err)
	}
	return decodeFrame(s.format, data, s.width, s.height)
}

// SetFPS implements FrameSource.
func (s *V4L2Source) SetFPS(fps int) error {
	if s.cam == nil {
		return ErrReleased
	}
	if err := s.cam.SetFramerate(float32(fps)); err != nil {
		return fmt.Errorf("set framerate %d: %w", fps, err)
	}
	debug.Verbose("V4L2 %s: frame rate set to %d", s.device, fps)
	return nil
}

// Close implements FrameSource.
func (s *V4L2Source) Close() error {
	if s.cam == nil {
		return nil
	}
	_ = s.cam.StopStreaming()
	err := s.cam.Close()
	s.cam = nil
	return err
}
