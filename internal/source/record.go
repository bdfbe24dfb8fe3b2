package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// Recorder passes frames through from a source and writes each one to w in
// the format ReplaySource reads.
type Recorder struct {
	src   gesture.FrameSource
	enc   *json.Encoder
	mu    sync.Mutex
	start time.Time
	count int
}

// Record wraps src. Offsets are measured from the first frame.
func Record(src gesture.FrameSource, w io.Writer) *Recorder {
	return &Recorder{src: src, enc: json.NewEncoder(w)}
}

func (r *Recorder) Next(ctx context.Context) (detector.Frame, error) {
	f, err := r.src.Next(ctx)
	if err != nil {
		return f, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.start.IsZero() {
		r.start = f.Timestamp
	}
	rec := record{
		OffsetMS: f.Timestamp.Sub(r.start).Milliseconds(),
		Hand:     f.Hand,
	}
	if err := r.enc.Encode(rec); err != nil {
		return f, fmt.Errorf("write recording: %w", err)
	}
	r.count++
	return f, nil
}

// Count returns how many frames were written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// WriteRecording writes frames to w in the format ReplaySource reads.
func WriteRecording(w io.Writer, frames []detector.Frame) error {
	ch := make(chan detector.Frame, len(frames))
	for _, f := range frames {
		ch <- f
	}
	close(ch)

	rec := Record(NewChanSource(ch), w)
	for {
		if _, err := rec.Next(context.Background()); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
