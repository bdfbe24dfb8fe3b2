package source

import (
	"context"
	"io"

	"github.com/ayusman/mudra/internal/detector"
)

// ChanSource delivers frames sent on a channel. Closing the channel ends the
// stream.
type ChanSource struct {
	frames <-chan detector.Frame
}

func NewChanSource(frames <-chan detector.Frame) *ChanSource {
	return &ChanSource{frames: frames}
}

func (s *ChanSource) Next(ctx context.Context) (detector.Frame, error) {
	select {
	case <-ctx.Done():
		return detector.Frame{}, ctx.Err()
	case f, ok := <-s.frames:
		if !ok {
			return detector.Frame{}, io.EOF
		}
		return f, nil
	}
}

func (s *ChanSource) Close() error {
	return nil
}
