package capture

import (
	"errors"
	"sync"

	"gocv.io/x/gocv"
)

// ErrNoMoreFrames is returned by MockCamera when a non-looping playback ends.
var ErrNoMoreFrames = errors.New("no more frames")

// MockCamera is a Camera that serves blank frames of the default size. It can
// fail a number of Open calls first, which lets callers exercise retries.
type MockCamera struct {
	mu        sync.Mutex
	remaining int
	loop      bool
	failOpens int
	opens     int
	running   bool
	fps       int
}

// NewMockCamera returns a camera that yields n frames, forever when loop is set.
func NewMockCamera(n int, loop bool) *MockCamera {
	return &MockCamera{remaining: n, loop: loop, fps: DefaultFPS}
}

// FailOpens makes the next n calls to Open return an error.
func (c *MockCamera) FailOpens(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failOpens = n
}

// Opens returns how many times Open was called.
func (c *MockCamera) Opens() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opens
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.opens++
	if c.failOpens > 0 {
		c.failOpens--
		return errors.New("mock camera busy")
	}
	c.running = true
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	if !c.loop {
		if c.remaining <= 0 {
			return nil, ErrNoMoreFrames
		}
		c.remaining--
	}

	mat := gocv.NewMatWithSize(DefaultHeight, DefaultWidth, gocv.MatTypeCV8UC3)
	return &mat, nil
}

func (c *MockCamera) SetFPS(fps int) {
	if fps <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fps = fps
}

func (c *MockCamera) FPS() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fps
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}
