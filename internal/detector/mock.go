package detector

import (
	"time"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Thumb describes the thumb posture of a synthetic pose.
type Thumb int

const (
	// ThumbClosed tucks the thumb across the palm.
	ThumbClosed Thumb = iota
	// ThumbOpen stretches the thumb away from the palm.
	ThumbOpen
	// ThumbDown points the thumb tip below its knuckle.
	ThumbDown
)

// Pose describes a synthetic right hand facing the camera. Fingers lists
// index, middle, ring and pinky; true means extended.
type Pose struct {
	Thumb   Thumb
	Fingers [4]bool
	WristX  float64
	WristY  float64
	Pinch   bool
}

// Knuckle offsets from the wrist for index, middle, ring and pinky.
var knuckles = [4]Point3D{
	{X: 0.04, Y: -0.12},
	{X: 0.00, Y: -0.13},
	{X: -0.035, Y: -0.12},
	{X: -0.07, Y: -0.10},
}

// Landmarks renders the pose into a full landmark set with a high detection score.
func (p Pose) Landmarks() HandLandmarks {
	wx, wy := p.WristX, p.WristY
	if wx == 0 && wy == 0 {
		wx, wy = 0.5, 0.6
	}
	at := func(dx, dy float64) Point3D { return Point3D{X: wx + dx, Y: wy + dy} }

	h := HandLandmarks{Handedness: HandRight, Score: 0.95}
	h.Points[Wrist] = at(0, 0)

	for i, k := range knuckles {
		mcp := 5 + i*4
		h.Points[mcp] = at(k.X, k.Y)
		if p.Fingers[i] {
			h.Points[mcp+1] = at(k.X, k.Y-0.05)
			h.Points[mcp+2] = at(k.X, k.Y-0.085)
			h.Points[mcp+3] = at(k.X, k.Y-0.11)
		} else {
			h.Points[mcp+1] = at(k.X, k.Y-0.04)
			h.Points[mcp+2] = at(k.X, k.Y-0.02)
			h.Points[mcp+3] = at(k.X, k.Y-0.01)
		}
	}

	h.Points[ThumbCMC] = at(0.03, -0.03)
	switch p.Thumb {
	case ThumbOpen:
		h.Points[ThumbMCP] = at(0.06, -0.06)
		h.Points[ThumbIP] = at(0.09, -0.08)
		h.Points[ThumbTip] = at(0.12, -0.10)
	case ThumbDown:
		h.Points[ThumbMCP] = at(0.06, -0.06)
		h.Points[ThumbIP] = at(0.07, -0.02)
		h.Points[ThumbTip] = at(0.07, 0.02)
	default:
		h.Points[ThumbMCP] = at(0.05, -0.07)
		h.Points[ThumbIP] = at(0.04, -0.10)
		h.Points[ThumbTip] = at(-0.01, -0.08)
	}

	if p.Pinch {
		// Index bends toward the thumb and the tips touch.
		h.Points[IndexPIP] = at(0.06, -0.18)
		h.Points[IndexDIP] = at(0.08, -0.17)
		h.Points[IndexTip] = at(0.09, -0.15)
		h.Points[ThumbMCP] = at(0.06, -0.06)
		h.Points[ThumbIP] = at(0.09, -0.10)
		h.Points[ThumbTip] = at(0.10, -0.13)
	}

	return h
}

// FistLandmarks returns a closed fist: every finger curled, thumb tucked.
func FistLandmarks() HandLandmarks {
	return Pose{}.Landmarks()
}

// DigitLandmarks returns the pose that signs digit d (0-9) at the default
// wrist position. Thumb-closed poses sign 0-4 by extended finger count,
// thumb-open poses sign 6, 7, 8, 9 and 5.
func DigitLandmarks(d int) HandLandmarks {
	return DigitPose(d).Landmarks()
}

// DigitPose returns the Pose for digit d so callers can move the wrist.
func DigitPose(d int) Pose {
	var p Pose
	count := d
	if d >= 5 {
		p.Thumb = ThumbOpen
		count = (d - 5 + 4) % 5 // 6->0, 7->1, 8->2, 9->3, 5->4
	}
	for i := 0; i < count && i < 4; i++ {
		p.Fingers[i] = true
	}
	return p
}

// PinchLandmarks returns thumb and index tips pressed together.
func PinchLandmarks() HandLandmarks {
	return Pose{Pinch: true}.Landmarks()
}

// ThumbsDownLandmarks returns the disconnect pose: thumb down, fingers curled.
func ThumbsDownLandmarks() HandLandmarks {
	return Pose{Thumb: ThumbDown}.Landmarks()
}

// ShakaLandmarks returns the cancel pose: thumb and pinky out, other fingers curled.
func ShakaLandmarks() HandLandmarks {
	return Pose{Thumb: ThumbOpen, Fingers: [4]bool{false, false, false, true}}.Landmarks()
}

// OpenPalmLandmarks returns every finger extended with the thumb out.
func OpenPalmLandmarks() HandLandmarks {
	return Pose{Thumb: ThumbOpen, Fingers: [4]bool{true, true, true, true}}.Landmarks()
}

// JitteryLandmarks returns a hand whose fingertips are scattered far from
// the palm, which yields a classification confidence well below 0.7.
func JitteryLandmarks() HandLandmarks {
	h := OpenPalmLandmarks()
	h.Points[IndexTip].Y -= 0.45
	h.Points[RingTip].Y -= 0.45
	h.Points[IndexTip].X += 0.2
	return h
}

// DemoFrameInterval is the frame spacing of DemoSequence (about 30fps).
const DemoFrameInterval = 33 * time.Millisecond

// DemoSequence returns a scripted session starting at start: digit 2 held,
// the hand moved right to preview C, a fist to commit it, a second with no
// hand and finally a pinch.
func DemoSequence(start time.Time) []Frame {
	right := DigitPose(2)
	right.WristX, right.WristY = 0.85, 0.6
	fist := Pose{WristX: 0.85, WristY: 0.6}

	steps := []struct {
		hand   *HandLandmarks
		frames int
	}{
		{ptr(DigitLandmarks(2)), 5},
		{ptr(right.Landmarks()), 3},
		{ptr(fist.Landmarks()), 1},
		{nil, 30},
		{ptr(PinchLandmarks()), 1},
	}

	var frames []Frame
	at := start
	for _, s := range steps {
		for i := 0; i < s.frames; i++ {
			frames = append(frames, Frame{Hand: s.hand, Timestamp: at})
			at = at.Add(DemoFrameInterval)
		}
	}
	return frames
}

func ptr(h HandLandmarks) *HandLandmarks {
	return &h
}
