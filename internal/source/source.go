// Package source provides the pose sources that feed keypoint frames to the
// gesture engine, and retry helpers for sources that fail transiently.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// ErrRetriesExhausted wraps the last error once a retry policy gives up.
var ErrRetriesExhausted = errors.New("pose source retries exhausted")

// Source is a gesture.FrameSource that holds resources.
type Source interface {
	gesture.FrameSource
	Close() error
}

// Opener creates a ready-to-read source.
type Opener func(ctx context.Context) (Source, error)

// Policy bounds the exponential backoff used when a source misbehaves.
type Policy struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxTries        uint
}

// DefaultPolicy retries for roughly ten seconds.
func DefaultPolicy() Policy {
	return Policy{
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     3 * time.Second,
		MaxTries:        8,
	}
}

func (p Policy) options(what string) []backoff.RetryOption {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialInterval
	b.MaxInterval = p.MaxInterval

	tries := p.MaxTries
	if tries == 0 {
		tries = 1
	}

	return []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(tries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Printf("%s failed, retrying in %v: %v", what, wait.Round(time.Millisecond), err)
		}),
	}
}

// Open calls open until it succeeds, the policy gives up or ctx ends.
func Open(ctx context.Context, open Opener, p Policy) (Source, error) {
	src, err := backoff.Retry(ctx, func() (Source, error) {
		return open(ctx)
	}, p.options("open pose source")...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
	}
	return src, nil
}

// retrying retries transient Next failures of the wrapped source.
type retrying struct {
	src    gesture.FrameSource
	policy Policy
}

// WithRetry wraps src so a failing Next is retried with backoff. End of
// stream, malformed frames and context errors are passed through at once.
func WithRetry(src gesture.FrameSource, p Policy) gesture.FrameSource {
	return &retrying{src: src, policy: p}
}

func (r *retrying) Next(ctx context.Context) (detector.Frame, error) {
	frame, err := backoff.Retry(ctx, func() (detector.Frame, error) {
		f, err := r.src.Next(ctx)
		if err != nil && !transient(ctx, err) {
			return f, backoff.Permanent(err)
		}
		return f, err
	}, r.policy.options("read frame")...)
	if err != nil {
		if !transient(ctx, err) {
			return frame, err
		}
		return frame, fmt.Errorf("%w: %w", ErrRetriesExhausted, err)
	}
	return frame, nil
}

func transient(ctx context.Context, err error) bool {
	switch {
	case ctx.Err() != nil,
		errors.Is(err, io.EOF),
		errors.Is(err, detector.ErrMalformedFrame),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return false
	}
	return true
}
