package gesture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// FrameSource delivers keypoint frames to the engine worker. Next blocks
// until a frame is available and returns io.EOF when the source is finished.
// An error wrapping detector.ErrMalformedFrame skips one frame.
type FrameSource interface {
	Next(ctx context.Context) (detector.Frame, error)
}

// FrameObserver receives per-frame statistics from the worker. The
// confidence is the value the engine used, after the off-hand penalty, and 0
// for a frame without a hand.
type FrameObserver interface {
	ObserveFrame(latency time.Duration, confidence float64)
	ObserveRejected()
	ObserveDropped()
}

type nopObserver struct{}

func (nopObserver) ObserveFrame(time.Duration, float64) {}
func (nopObserver) ObserveRejected()                    {}
func (nopObserver) ObserveDropped()                     {}

// Run drives the engine from src until ctx is done or the source ends. Events
// are handed to out without blocking; when out is full the event is dropped.
// Run returns nil on cancellation or io.EOF and the source error otherwise.
// out is not closed.
func (e *Engine) Run(ctx context.Context, src FrameSource, out chan<- Event) error {
	log.Println("Gesture engine started")
	defer log.Println("Gesture engine stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		frame, err := src.Next(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF) || ctx.Err() != nil:
			return nil
		case errors.Is(err, detector.ErrMalformedFrame):
			log.Printf("Rejected frame: %v", err)
			e.observer.ObserveRejected()
			continue
		default:
			return fmt.Errorf("read frame: %w", err)
		}

		start := time.Now()
		events, err := e.Step(frame)
		if err != nil {
			log.Printf("Rejected frame: %v", err)
			e.observer.ObserveRejected()
			continue
		}

		e.observer.ObserveFrame(time.Since(start), e.confidence)

		for _, ev := range events {
			select {
			case out <- ev:
			default:
				log.Printf("Event queue full, dropping %s %q", ev.Kind, ev.Value)
				e.observer.ObserveDropped()
			}
		}
	}
}
