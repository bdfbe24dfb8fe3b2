package capture

import (
	"errors"
	"testing"
)

func TestMockCamera_Playback(t *testing.T) {
	cam := NewMockCamera(2, false)

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Fatalf("ReadFrame() before Open error = %v, want ErrCameraNotOpen", err)
	}
	if err := cam.Open(); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer cam.Close()

	for i := 0; i < 2; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() %d error = %v", i, err)
		}
		if f.Cols() != DefaultWidth || f.Rows() != DefaultHeight {
			t.Errorf("frame size = %dx%d", f.Cols(), f.Rows())
		}
		f.Close()
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrNoMoreFrames) {
		t.Errorf("ReadFrame() after playback error = %v, want ErrNoMoreFrames", err)
	}
}

func TestMockCamera_Loop(t *testing.T) {
	cam := NewMockCamera(0, true)
	cam.Open()
	defer cam.Close()

	for i := 0; i < 5; i++ {
		f, err := cam.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() iteration %d error = %v", i, err)
		}
		f.Close()
	}
}

func TestMockCamera_FailOpens(t *testing.T) {
	cam := NewMockCamera(1, false)
	cam.FailOpens(2)

	for i := 0; i < 2; i++ {
		if err := cam.Open(); err == nil {
			t.Fatalf("Open() %d succeeded, want failure", i)
		}
	}
	if err := cam.Open(); err != nil {
		t.Fatalf("third Open() error = %v", err)
	}
	if cam.Opens() != 3 || !cam.IsOpen() {
		t.Errorf("opens = %d open = %v", cam.Opens(), cam.IsOpen())
	}
}
