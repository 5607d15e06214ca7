package camera

import (
	"fmt"
	"image"

	"github.com/pion/mediadevices"
	_ "github.com/pion/mediadevices/pkg/driver/camera" // registers the camera driver
	"github.com/pion/mediadevices/pkg/prop"

	"github.com/cjeanneret/UVCam/internal/debug"
)

// Device describes a capture device found by ListDevices.
type Device struct {
	ID    string
	Label string
	Kind  string
}

// ListDevices enumerates the video input devices known to mediadevices.
func ListDevices() []Device {
	devices := mediadevices.EnumerateDevices()
	result := make([]Device, 0, len(devices))
	for _, d := range devices {
		if d.Kind != mediadevices.VideoInput {
			continue
		}
		result = append(result, Device{
			ID:    d.DeviceID,
			Label: d.Label,
			Kind:  "video",
		})
	}
	return result
}

// MediaDevicesOptions configures a MediaDevicesSource.
type MediaDevicesOptions struct {
	DeviceID string // empty = first camera
	Width    int
	Height   int
	FPS      int
}

// MediaDevicesSource captures raw frames through pion/mediadevices.
type MediaDevicesSource struct {
	opts   MediaDevicesOptions
	track  *mediadevices.VideoTrack
	reader interface {
		Read() (image.Image, func(), error)
	}
	closed bool
}

// OpenMediaDevices opens the camera track.
func OpenMediaDevices(opts MediaDevicesOptions) (*MediaDevicesSource, error) {
	s := &MediaDevicesSource{opts: opts}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MediaDevicesSource) open() error {
	opts := s.opts
	stream, err := mediadevices.GetUserMedia(mediadevices.MediaStreamConstraints{
		Video: func(c *mediadevices.MediaTrackConstraints) {
			c.Width = prop.Int(opts.Width)
			c.Height = prop.Int(opts.Height)
			if opts.FPS > 0 {
				c.FrameRate = prop.Float(float32(opts.FPS))
			}
			if opts.DeviceID != "" {
				c.DeviceID = prop.String(opts.DeviceID)
			}
		},
	})
	if err != nil {
		return fmt.Errorf("get user media: %w", err)
	}

	tracks := stream.GetVideoTracks()
	if len(tracks) == 0 {
		return fmt.Errorf("get user media: no video track")
	}
	track, ok := tracks[0].(*mediadevices.VideoTrack)
	if !ok {
		tracks[0].Close()
		return fmt.Errorf("get user media: unexpected track type %T", tracks[0])
	}

	s.track = track
	s.reader = track.NewReader(false)
	debug.Info("Capturing from mediadevices track %s", track.ID())
	return nil
}

// ReadFrame implements FrameSource. The returned image is a copy owned by the caller.
func (s *MediaDevicesSource) ReadFrame() (image.Image, error) {
	if s.closed {
		return nil, ErrReleased
	}
	if s.track == nil {
		if err := s.open(); err != nil {
			return nil, err
		}
	}

	img, release, err := s.reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	defer release()
	if img == nil {
		return nil, ErrNoFrame
	}
	return copyImage(img), nil
}

// SetFPS implements FrameSource. The track is reopened on the next read.
func (s *MediaDevicesSource) SetFPS(fps int) error {
	if s.closed {
		return ErrReleased
	}
	s.opts.FPS = fps
	if s.track != nil {
		if err := s.track.Close(); err != nil {
			return fmt.Errorf("close track: %w", err)
		}
		s.track = nil
		s.reader = nil
	}
	return nil
}

// Close implements FrameSource.
func (s *MediaDevicesSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.track == nil {
		return nil
	}
	err := s.track.Close()
	s.track = nil
	s.reader = nil
	return err
}

// copyImage detaches a frame from the driver buffer that release() recycles.
func copyImage(src image.Image) image.Image {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x-b.Min.X, y-b.Min.Y, src.At(x, y))
		}
	}
	return dst
}
