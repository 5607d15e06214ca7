package camera

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a solid frame or a canned error.
type fakeSource struct {
	frame  image.Image
	err    error
	fps    []int
	reads  int
	closed int
}

func (s *fakeSource) ReadFrame() (image.Image, error) {
	s.reads++
	if s.err != nil {
		return nil, s.err
	}
	return s.frame, nil
}

func (s *fakeSource) SetFPS(fps int) error {
	s.fps = append(s.fps, fps)
	return nil
}

func (s *fakeSource) Close() error {
	s.closed++
	return nil
}

func solidFrame(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

var fixedNow = func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) }

func TestCamera_GetFrameEncodesResizedJPEG(t *testing.T) {
	src := &fakeSource{frame: solidFrame(1280, 720, color.Black)}
	cam := New(src, newTestController(&fakeRunner{}), Options{Now: fixedNow})

	data, err := cam.GetFrame()
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 640, 480), img.Bounds())
}

func TestCamera_GetFrameStampsTimestamp(t *testing.T) {
	src := &fakeSource{frame: solidFrame(640, 480, color.Black)}
	cam := New(src, nil, Options{Now: fixedNow, JPEGQuality: 100})

	data, err := cam.GetFrame()
	require.NoError(t, err)
	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	// The text sits just above the baseline in the bottom-left corner;
	// at least one pixel there must be bright.
	origin := StampOrigin(img.Bounds())
	bright := false
	for y := origin.Y - 10; y < origin.Y; y++ {
		for x := origin.X; x < origin.X+140; x++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r>>8 > 128 {
				bright = true
			}
		}
	}
	assert.True(t, bright, "expected timestamp pixels near %v", origin)

	// The top of the frame stays untouched.
	r, _, _, _ := img.At(320, 20).RGBA()
	assert.Less(t, r>>8, uint32(40))
}

func TestCamera_CustomSize(t *testing.T) {
	src := &fakeSource{frame: solidFrame(100, 100, color.White)}
	cam := New(src, nil, Options{Width: 320, Height: 240})

	data, err := cam.GetFrame()
	require.NoError(t, err)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 320, cfg.Width)
	assert.Equal(t, 240, cfg.Height)

	w, h := cam.Size()
	assert.Equal(t, 320, w)
	assert.Equal(t, 240, h)
}

func TestCamera_FailedGrabReleasesDevice(t *testing.T) {
	src := &fakeSource{err: ErrFrameTimeout}
	cam := New(src, nil, Options{})

	_, err := cam.GetFrame()
	require.ErrorIs(t, err, ErrFrameTimeout)
	assert.Equal(t, 1, src.closed)
	assert.True(t, cam.Released())

	_, err = cam.GetFrame()
	assert.ErrorIs(t, err, ErrReleased)
	assert.Equal(t, 1, src.reads, "a released device is not read again")
	assert.ErrorIs(t, cam.SetFPS(30), ErrReleased)
}

func TestCamera_SetFPS(t *testing.T) {
	src := &fakeSource{frame: solidFrame(8, 8, color.White)}
	cam := New(src, nil, Options{})
	assert.Equal(t, DefaultFPS, cam.FPS())

	require.NoError(t, cam.SetFPS(30))
	require.NoError(t, cam.SetFPS(0))

	assert.Equal(t, []int{30, 24}, src.fps, "fps <= 0 selects the default 24")
	assert.Equal(t, 24, cam.FPS())
}

func TestCamera_CloseIsIdempotent(t *testing.T) {
	src := &fakeSource{}
	cam := New(src, nil, Options{})

	require.NoError(t, cam.Close())
	require.NoError(t, cam.Close())
	assert.Equal(t, 1, src.closed)
}

func TestCamera_ControlsDelegate(t *testing.T) {
	r := &fakeRunner{out: "1"}
	cam := New(&fakeSource{}, newTestController(r), Options{})

	assert.Equal(t, BoolValue(true), cam.GetControlValue(AutoFocus))
	assert.Equal(t, IntValue(1), cam.GetControlValue(Contrast))
	cam.SetControlValue(Zoom, 2)
	assert.Len(t, cam.GetAllControls(), 8)
	assert.Equal(t, 8, cam.ControlNames().Len())

	assert.Equal(t, []string{"/usr/bin/uvcdynctrl", "-d", "video0", "-s", "Zoom, Absolute", "2"}, r.calls[2])
}

func TestCamera_GetFrameWrapsSourceError(t *testing.T) {
	boom := errors.New("device unplugged")
	cam := New(&fakeSource{err: boom}, nil, Options{})

	_, err := cam.GetFrame()
	assert.ErrorIs(t, err, boom)
}

// blockingRunner hangs until released, like a stuck uvcdynctrl.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(ctx context.Context, _ string, _ ...string) ([]byte, error) {
	close(b.started)
	select {
	case <-b.release:
		return []byte("1"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCamera_ControlCallDoesNotStallFrames(t *testing.T) {
	r := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}
	src := &fakeSource{frame: solidFrame(640, 480, color.Black)}
	cam := New(src, newTestController(r), Options{Now: fixedNow})

	done := make(chan ControlValue, 1)
	go func() { done <- cam.GetControlValue(Focus) }()
	<-r.started

	frameDone := make(chan error, 1)
	go func() {
		_, err := cam.GetFrame()
		frameDone <- err
	}()

	select {
	case err := <-frameDone:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("GetFrame blocked behind a pending control read")
	}

	close(r.release)
	assert.Equal(t, IntValue(1), <-done)
}
