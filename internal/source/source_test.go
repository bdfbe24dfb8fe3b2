package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func fastPolicy(tries uint) Policy {
	return Policy{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxTries: tries}
}

// flakySource fails a fixed number of times before returning frames.
type flakySource struct {
	failures int
	err      error
	calls    int
}

func (s *flakySource) Next(ctx context.Context) (detector.Frame, error) {
	s.calls++
	if s.failures > 0 {
		s.failures--
		return detector.Frame{}, s.err
	}
	return detector.Frame{Timestamp: base}, nil
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		tries     uint
		wantErr   error
		wantCalls int
	}{
		{"recovers", 2, errors.New("timeout"), 5, nil, 3},
		{"exhausted", 10, errors.New("timeout"), 3, ErrRetriesExhausted, 3},
		{"eof passes through", 1, io.EOF, 5, io.EOF, 1},
		{"malformed passes through", 1, detector.ErrMalformedFrame, 5, detector.ErrMalformedFrame, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &flakySource{failures: tt.failures, err: tt.err}
			_, err := WithRetry(src, fastPolicy(tt.tries)).Next(context.Background())

			if tt.wantErr == nil && err != nil {
				t.Fatalf("Next() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Next() error = %v, want %v", err, tt.wantErr)
			}
			if src.calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", src.calls, tt.wantCalls)
			}
		})
	}
}

func TestOpen_RetriesCamera(t *testing.T) {
	cam := capture.NewMockCamera(1, false)
	cam.FailOpens(2)
	det := detector.NewMockDetector()

	src, err := Open(context.Background(), CameraOpener(cam, det, detector.HandRight), fastPolicy(5))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer src.Close()

	if cam.Opens() != 3 {
		t.Errorf("opens = %d, want 3", cam.Opens())
	}
}

func TestOpen_Exhausted(t *testing.T) {
	cam := capture.NewMockCamera(1, false)
	cam.FailOpens(100)

	_, err := Open(context.Background(), CameraOpener(cam, detector.NewMockDetector(), ""), fastPolicy(3))
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("Open() error = %v, want ErrRetriesExhausted", err)
	}
	if cam.Opens() != 3 {
		t.Errorf("opens = %d, want 3", cam.Opens())
	}
}

func TestCameraSource_Next(t *testing.T) {
	cam := capture.NewMockCamera(2, false)
	if err := cam.Open(); err != nil {
		t.Fatal(err)
	}

	left := detector.DigitLandmarks(3)
	left.Handedness = detector.HandLeft
	right := detector.DigitLandmarks(4)

	det := detector.NewMockDetector()
	det.SetHands([]detector.HandLandmarks{left, right})

	src := NewCameraSource(cam, det, detector.HandRight)
	src.now = func() time.Time { return base }
	defer src.Close()

	f, err := src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if f.Hand == nil || f.Hand.Handedness != detector.HandRight {
		t.Fatalf("picked hand = %+v, want the right hand", f.Hand)
	}
	if !f.Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v", f.Timestamp, base)
	}

	det.SetHands(nil)
	f, err = src.Next(context.Background())
	if err != nil {
		t.Fatalf("Next() error = %v", err)
	}
	if f.Hand != nil {
		t.Error("frame without hands carries a hand")
	}

	if _, err := src.Next(context.Background()); !errors.Is(err, capture.ErrNoMoreFrames) {
		t.Errorf("Next() after playback error = %v, want ErrNoMoreFrames", err)
	}
	if det.Calls() != 2 {
		t.Errorf("detector calls = %d, want 2", det.Calls())
	}
}

func TestRecordReplay(t *testing.T) {
	frames := []detector.Frame{
		{Hand: hand(detector.DigitLandmarks(2)), Timestamp: base},
		{Timestamp: base.Add(33 * time.Millisecond)},
		{Hand: hand(detector.PinchLandmarks()), Timestamp: base.Add(66 * time.Millisecond)},
	}
	ch := make(chan detector.Frame, len(frames))
	for _, f := range frames {
		ch <- f
	}
	close(ch)

	var buf bytes.Buffer
	rec := Record(NewChanSource(ch), &buf)
	ctx := context.Background()
	for {
		if _, err := rec.Next(ctx); err != nil {
			if !errors.Is(err, io.EOF) {
				t.Fatalf("Next() error = %v", err)
			}
			break
		}
	}
	if rec.Count() != 3 {
		t.Fatalf("recorded %d frames, want 3", rec.Count())
	}

	replayBase := base.Add(time.Hour)
	replay := NewReplaySource(&buf, replayBase)
	for i, want := range frames {
		got, err := replay.Next(ctx)
		if err != nil {
			t.Fatalf("frame %d: Next() error = %v", i, err)
		}
		if offset := got.Timestamp.Sub(replayBase); offset != want.Timestamp.Sub(base) {
			t.Errorf("frame %d: offset = %v, want %v", i, offset, want.Timestamp.Sub(base))
		}
		if (got.Hand == nil) != (want.Hand == nil) {
			t.Fatalf("frame %d: hand presence mismatch", i)
		}
		if got.Hand != nil && got.Hand.Points != want.Hand.Points {
			t.Errorf("frame %d: landmarks differ", i)
		}
	}
	if _, err := replay.Next(ctx); !errors.Is(err, io.EOF) {
		t.Errorf("Next() at end error = %v, want io.EOF", err)
	}
}

func TestReplaySource_Malformed(t *testing.T) {
	input := strings.Join([]string{
		`{"t_ms":0}`,
		`{"t_ms":33,"hand":{"points":[{"x":0.5,"y":0.5,"z":0}],"handedness":"Right"}}`,
		``,
		`not json`,
		`{"t_ms":99}`,
	}, "\n")
	src := NewReplaySource(strings.NewReader(input), base)
	ctx := context.Background()

	if _, err := src.Next(ctx); err != nil {
		t.Fatalf("first Next() error = %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := src.Next(ctx); !errors.Is(err, detector.ErrMalformedFrame) {
			t.Fatalf("Next() error = %v, want ErrMalformedFrame", err)
		}
	}
	f, err := src.Next(ctx)
	if err != nil {
		t.Fatalf("Next() after malformed lines error = %v", err)
	}
	if got := f.Timestamp.Sub(base); got != 99*time.Millisecond {
		t.Errorf("offset = %v, want 99ms", got)
	}
}

func TestCountFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rec.jsonl")
	if err := os.WriteFile(path, []byte("{\"t_ms\":0}\n\n{\"t_ms\":33}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	n, err := CountFrames(path)
	if err != nil {
		t.Fatalf("CountFrames() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountFrames() = %d, want 2", n)
	}
}

func TestChanSource(t *testing.T) {
	ch := make(chan detector.Frame)
	src := NewChanSource(ch)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Next() with cancelled ctx error = %v", err)
	}

	close(ch)
	if _, err := src.Next(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Next() on closed channel error = %v, want io.EOF", err)
	}
}

func hand(h detector.HandLandmarks) *detector.HandLandmarks {
	return &h
}
