package timelapse

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cjeanneret/UVCam/internal/debug"
)

// FrameGrabber returns one encoded (JPEG) frame.
type FrameGrabber interface {
	GetFrame() ([]byte, error)
}

// Sequence grabs frames at a fixed interval and stores them as files.
type Sequence struct {
	camera FrameGrabber
	now    func() time.Time
}

func NewSequence(c FrameGrabber) *Sequence {
	return &Sequence{
		camera: c,
		now:    time.Now,
	}
}

// Params defines a timelapse run.
type Params struct {
	Count     int           // number of frames, > 0
	Interval  time.Duration // delay between two frames
	OutputDir string        // created if missing
	Prefix    string        // file name prefix, default "frame"
}

// ErrInvalidCount is returned when Params.Count is not positive.
var ErrInvalidCount = errors.New("timelapse: count must be > 0")

// FileName returns the name of the index-th frame (0-based) taken at t.
func FileName(prefix string, t time.Time, index int) string {
	return fmt.Sprintf("%s_%s_%03d.jpg", prefix, t.Format("2006-01-02_15-04-05"), index+1)
}

// Run takes p.Count frames and returns the paths written so far.
// It stops early on cancellation or on the first grab/write error.
func (s *Sequence) Run(ctx context.Context, p Params) ([]string, error) {
	if p.Count <= 0 {
		return nil, ErrInvalidCount
	}
	if p.Prefix == "" {
		p.Prefix = "frame"
	}
	if p.OutputDir == "" {
		p.OutputDir = "."
	}
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	debug.Section("Timelapse")
	debug.Value("Frames", p.Count)
	debug.Value("Interval", p.Interval)
	debug.Value("Output", p.OutputDir)

	paths := make([]string, 0, p.Count)
	for i := 0; i < p.Count; i++ {
		select {
		case <-ctx.Done():
			return paths, ctx.Err()
		default:
		}

		data, err := s.camera.GetFrame()
		if err != nil {
			return paths, fmt.Errorf("frame %d/%d: %w", i+1, p.Count, err)
		}

		path := filepath.Join(p.OutputDir, FileName(p.Prefix, s.now(), i))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
		debug.Live("Frame %d/%d saved to %s", i+1, p.Count, path)

		// No wait after the last frame
		if i == p.Count-1 {
			break
		}
		timer := time.NewTimer(p.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return paths, ctx.Err()
		case <-timer.C:
		}
	}

	debug.Summary(fmt.Sprintf("Timelapse complete: %d frames in %s", len(paths), p.OutputDir))
	return paths, nil
}
