package detector

import "math"

// FingerTips lists the five fingertip landmarks, thumb first.
var FingerTips = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}

// Distance returns the planar distance between two keypoints. Z is ignored
// because it is only a relative depth estimate.
func Distance(a, b Point3D) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Variance returns the population variance of values, 0 for an empty slice.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return sq / float64(len(values))
}

// PalmCenter returns the keypoint used as the palm reference.
func (h *HandLandmarks) PalmCenter() Point3D {
	return h.Points[MiddleMCP]
}

// TipSpread returns the distance from each fingertip to the palm center.
func (h *HandLandmarks) TipSpread() []float64 {
	palm := h.PalmCenter()
	out := make([]float64, 0, len(FingerTips))
	for _, tip := range FingerTips {
		out = append(out, Distance(h.Points[tip], palm))
	}
	return out
}

// Extended reports whether the finger whose tip is at index tip is stretched
// out, meaning its tip sits above its PIP joint in image coordinates.
func (h *HandLandmarks) Extended(tip int) bool {
	return h.Points[tip].Y < h.Points[tip-2].Y
}

// ThumbOpen reports whether the thumb tip is farther from the pinky knuckle
// than the thumb IP joint is.
func (h *HandLandmarks) ThumbOpen() bool {
	base := h.Points[PinkyMCP]
	return Distance(h.Points[ThumbTip], base) > Distance(h.Points[ThumbIP], base)
}
