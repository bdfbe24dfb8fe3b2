package source

import (
	"context"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
)

// CameraSource grabs frames from a camera and runs them through a detector.
// The frame timestamp is the arrival time of the camera image.
type CameraSource struct {
	camera   capture.Camera
	detector detector.Detector
	hand     string
	now      func() time.Time
}

// NewCameraSource returns a source over an opened camera. When several hands
// are reported, the one matching preferredHand is used, otherwise the first.
func NewCameraSource(cam capture.Camera, det detector.Detector, preferredHand string) *CameraSource {
	return &CameraSource{
		camera:   cam,
		detector: det,
		hand:     preferredHand,
		now:      time.Now,
	}
}

// CameraOpener returns an Opener that opens the camera and builds a source.
// The detector is shared across attempts and closed with the source.
func CameraOpener(cam capture.Camera, det detector.Detector, preferredHand string) Opener {
	return func(ctx context.Context) (Source, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := cam.Open(); err != nil {
			return nil, err
		}
		return NewCameraSource(cam, det, preferredHand), nil
	}
}

func (s *CameraSource) Next(ctx context.Context) (detector.Frame, error) {
	if err := ctx.Err(); err != nil {
		return detector.Frame{}, err
	}

	mat, err := s.camera.ReadFrame()
	if err != nil {
		return detector.Frame{}, fmt.Errorf("read camera: %w", err)
	}
	defer mat.Close()
	at := s.now()

	hands, err := s.detector.Detect(mat)
	if err != nil {
		return detector.Frame{}, fmt.Errorf("detect hands: %w", err)
	}

	return detector.Frame{Hand: s.pick(hands), Timestamp: at}, nil
}

func (s *CameraSource) pick(hands []detector.HandLandmarks) *detector.HandLandmarks {
	if len(hands) == 0 {
		return nil
	}
	for i := range hands {
		if hands[i].Handedness == s.hand {
			return &hands[i]
		}
	}
	return &hands[0]
}

// Close releases the camera and the detector.
func (s *CameraSource) Close() error {
	camErr := s.camera.Close()
	detErr := s.detector.Close()
	if camErr != nil {
		return camErr
	}
	return detErr
}
