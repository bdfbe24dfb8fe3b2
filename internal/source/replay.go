package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// record is one line of a recording: the offset from the start of the
// recording in milliseconds and the hand, absent when none was seen.
type record struct {
	OffsetMS int64                   `json:"t_ms"`
	Hand     *detector.HandLandmarks `json:"hand,omitempty"`
}

// ReplaySource reads a JSON-lines recording of keypoint frames. Next returns
// io.EOF after the last line. A line that does not decode is reported as
// detector.ErrMalformedFrame and reading continues with the next line.
type ReplaySource struct {
	scanner *bufio.Scanner
	closer  io.Closer
	base    time.Time
	line    int

	// Paced makes Next wait so frames are delivered at their recorded rate.
	Paced bool
	start time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewReplaySource reads frames from r. Frame timestamps are base plus the
// recorded offset.
func NewReplaySource(r io.Reader, base time.Time) *ReplaySource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	s := &ReplaySource{scanner: scanner, base: base, sleep: sleepCtx}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenReplay opens a recording file.
func OpenReplay(path string, base time.Time) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	return NewReplaySource(f, base), nil
}

// ReplayOpener returns an Opener for a recording file.
func ReplayOpener(path string, paced bool) Opener {
	return func(ctx context.Context) (Source, error) {
		s, err := OpenReplay(path, time.Now())
		if err != nil {
			return nil, err
		}
		s.Paced = paced
		return s, nil
	}
}

func (s *ReplaySource) Next(ctx context.Context) (detector.Frame, error) {
	if err := ctx.Err(); err != nil {
		return detector.Frame{}, err
	}

	for s.scanner.Scan() {
		s.line++
		data := s.scanner.Bytes()
		if len(data) == 0 {
			continue
		}

		var rec record
		if err := json.Unmarshal(data, &rec); err != nil {
			return detector.Frame{}, fmt.Errorf("%w: line %d: %v", detector.ErrMalformedFrame, s.line, err)
		}

		offset := time.Duration(rec.OffsetMS) * time.Millisecond
		if s.Paced {
			if err := s.pace(ctx, offset); err != nil {
				return detector.Frame{}, err
			}
		}
		return detector.Frame{Hand: rec.Hand, Timestamp: s.base.Add(offset)}, nil
	}

	if err := s.scanner.Err(); err != nil {
		return detector.Frame{}, fmt.Errorf("read recording: %w", err)
	}
	return detector.Frame{}, io.EOF
}

func (s *ReplaySource) pace(ctx context.Context, offset time.Duration) error {
	if s.start.IsZero() {
		s.start = time.Now()
	}
	if wait := offset - time.Since(s.start); wait > 0 {
		return s.sleep(ctx, wait)
	}
	return nil
}

// Close closes the underlying reader when it is closable.
func (s *ReplaySource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// CountFrames returns the number of non-empty lines in a recording.
func CountFrames(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			n++
		}
	}
	return n, scanner.Err()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
