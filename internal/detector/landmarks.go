// Package detector provides the hand keypoint model and the adapters that turn
// camera frames into keypoint frames.
package detector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Handedness labels reported by the pose estimator.
const (
	HandLeft  = "Left"
	HandRight = "Right"
)

// ErrMalformedFrame is returned for keypoint data that cannot be classified:
// wrong landmark count, unknown handedness or non-finite coordinates.
var ErrMalformedFrame = errors.New("malformed keypoint frame")

// Point3D represents a normalized keypoint. X and Y are fractions of the frame,
// Z is depth relative to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks of one tracked hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// UnmarshalJSON decodes a hand and rejects point lists that are not exactly
// NumLandmarks long.
func (h *HandLandmarks) UnmarshalJSON(data []byte) error {
	var raw struct {
		Points     []Point3D `json:"points"`
		Handedness string    `json:"handedness"`
		Score      float64   `json:"score"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Points) != NumLandmarks {
		return fmt.Errorf("%w: got %d landmarks, want %d", ErrMalformedFrame, len(raw.Points), NumLandmarks)
	}

	copy(h.Points[:], raw.Points)
	h.Handedness = raw.Handedness
	h.Score = raw.Score
	return nil
}

// Validate reports whether the hand can be fed to the classifier.
func (h *HandLandmarks) Validate() error {
	if h.Handedness != HandLeft && h.Handedness != HandRight {
		return fmt.Errorf("%w: handedness %q", ErrMalformedFrame, h.Handedness)
	}
	for i, p := range h.Points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return fmt.Errorf("%w: landmark %d is not finite", ErrMalformedFrame, i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Frame is one observation from the pose source. Hand is nil when no hand
// was detected.
type Frame struct {
	Hand      *HandLandmarks `json:"hand,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
