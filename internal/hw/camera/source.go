package camera

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
)

var (
	// ErrFrameTimeout is returned when the device delivers no frame in time.
	ErrFrameTimeout = errors.New("camera: timeout waiting for frame")

	// ErrNoFrame is returned when the device returns an empty buffer.
	ErrNoFrame = errors.New("camera: no frame received")

	// ErrReleased is returned once the capture device has been released.
	ErrReleased = errors.New("camera: capture device released")
)

// FrameSource is a video capture device.
// It is not safe for concurrent use; Camera serializes access.
type FrameSource interface {
	// ReadFrame blocks until the next frame is available.
	ReadFrame() (image.Image, error)
	// SetFPS requests a new frame rate.
	SetFPS(fps int) error
	// Close releases the device.
	Close() error
}

// PixelFormat is a V4L2 fourcc.
type PixelFormat uint32

// fourcc builds a V4L2 pixel format code.
func fourcc(a, b, c, d byte) PixelFormat {
	return PixelFormat(uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24)
}

// Pixel formats understood by decodeFrame.
var (
	FormatMJPEG = fourcc('M', 'J', 'P', 'G')
	FormatYUYV  = fourcc('Y', 'U', 'Y', 'V')
)

func (p PixelFormat) String() string {
	return string([]byte{byte(p), byte(p >> 8), byte(p >> 16), byte(p >> 24)})
}

// decodeFrame turns a raw device buffer into an image.
func decodeFrame(format PixelFormat, data []byte, width, height int) (image.Image, error) {
	if len(data) == 0 {
		return nil, ErrNoFrame
	}
	switch format {
	case FormatMJPEG:
		img, err := jpeg.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode mjpeg frame: %w", err)
		}
		return img, nil
	case FormatYUYV:
		return decodeYUYV(data, width, height)
	default:
		return nil, fmt.Errorf("unsupported pixel format %s", format)
	}
}

// decodeYUYV converts packed YUYV 4:2:2 (Y0 U Y1 V per pixel pair) to an image.YCbCr.
func decodeYUYV(data []byte, width, height int) (*image.YCbCr, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	stride := width * 2
	if len(data) < stride*height {
		return nil, fmt.Errorf("short yuyv frame: got %d bytes, want %d", len(data), stride*height)
	}

	img := image.NewYCbCr(image.Rect(0, 0, width, height), image.YCbCrSubsampleRatio422)
	for y := 0; y < height; y++ {
		row := data[y*stride : (y+1)*stride]
		yOff := y * img.YStride
		cOff := y * img.CStride
		for x := 0; x+1 < width; x += 2 {
			i := x * 2
			img.Y[yOff+x] = row[i]
			img.Y[yOff+x+1] = row[i+2]
			img.Cb[cOff+x/2] = row[i+1]
			img.Cr[cOff+x/2] = row[i+3]
		}
		if width%2 == 1 {
			img.Y[yOff+width-1] = row[(width-1)*2]
		}
	}
	return img, nil
}
