package timelapse

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCamera records GetFrame calls.
type mockCamera struct {
	mu     sync.Mutex
	frames int
	failAt int // 1-based call that fails, 0 = never
}

func (m *mockCamera) GetFrame() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames++
	if m.failAt > 0 && m.frames == m.failAt {
		return nil, errors.New("device released")
	}
	return []byte{0xFF, 0xD8, byte(m.frames), 0xFF, 0xD9}, nil
}

func (m *mockCamera) frameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

func newTestSequence(cam FrameGrabber) *Sequence {
	seq := NewSequence(cam)
	seq.now = func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }
	return seq
}

func TestRun_WritesFrames(t *testing.T) {
	cam := &mockCamera{}
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := newTestSequence(cam).Run(context.Background(), Params{
		Count:     3,
		Interval:  time.Millisecond,
		OutputDir: dir,
		Prefix:    "cam",
	})
	require.NoError(t, err)

	require.Len(t, paths, 3)
	assert.Equal(t, 3, cam.frameCount())
	assert.Equal(t, filepath.Join(dir, "cam_2026-10-18_12-00-00_001.jpg"), paths[0])
	assert.Equal(t, filepath.Join(dir, "cam_2026-10-18_12-00-00_003.jpg"), paths[2])

	data, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, byte(2), data[2])
}

func TestRun_DefaultPrefix(t *testing.T) {
	paths, err := newTestSequence(&mockCamera{}).Run(context.Background(), Params{
		Count:     1,
		OutputDir: t.TempDir(),
	})
	require.NoError(t, err)
	assert.Equal(t, "frame_2026-10-18_12-00-00_001.jpg", filepath.Base(paths[0]))
}

func TestRun_InvalidCount(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := newTestSequence(&mockCamera{}).Run(context.Background(), Params{Count: n, OutputDir: t.TempDir()})
		assert.ErrorIs(t, err, ErrInvalidCount)
	}
}

func TestRun_StopsOnGrabError(t *testing.T) {
	cam := &mockCamera{failAt: 2}

	paths, err := newTestSequence(cam).Run(context.Background(), Params{
		Count:     5,
		OutputDir: t.TempDir(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "frame 2/5")
	assert.Len(t, paths, 1)
	assert.Equal(t, 2, cam.frameCount())
}

func TestRun_CancelDuringInterval(t *testing.T) {
	cam := &mockCamera{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	var paths []string
	var err error
	go func() {
		paths, err = newTestSequence(cam).Run(ctx, Params{
			Count:     10,
			Interval:  time.Hour,
			OutputDir: t.TempDir(),
		})
		close(done)
	}()

	require.Eventually(t, func() bool { return cam.frameCount() == 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, paths, 1)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	cam := &mockCamera{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths, err := newTestSequence(cam).Run(ctx, Params{Count: 3, OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, paths)
	assert.Zero(t, cam.frameCount())
}
