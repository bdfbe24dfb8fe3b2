package gesture

import (
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// PoseConfidence maps the spread of the fingertip-to-palm distances to a
// confidence in [0,1]. A tight, deliberate pose has low variance.
func PoseConfidence(h *detector.HandLandmarks, scale float64) float64 {
	c := 1 - detector.Variance(h.TipSpread())*scale
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// Digit maps a thumb posture and the number of extended non-thumb fingers
// to a digit. Closed thumb: 0-4 directly. Open thumb: 6, 7, 8, 9, then 5
// for the all-open hand.
func Digit(thumbOpen bool, extended int) int {
	if extended < 0 || extended > 4 {
		return NoDigit
	}
	if !thumbOpen {
		return extended
	}
	return [5]int{6, 7, 8, 9, 5}[extended]
}

// CountExtended returns how many of index, middle, ring and pinky are extended.
func CountExtended(h *detector.HandLandmarks) int {
	n := 0
	for _, tip := range detector.FingerTips[1:] {
		if h.Extended(tip) {
			n++
		}
	}
	return n
}

// IsDisconnectPose reports a thumbs-down with the index finger curled.
func IsDisconnectPose(h *detector.HandLandmarks) bool {
	p := h.Points
	return p[detector.ThumbTip].Y > p[detector.ThumbMCP].Y &&
		p[detector.IndexTip].Y > p[detector.IndexPIP].Y
}

// IsCancelPose reports an open thumb and pinky with the three middle fingers
// curled.
func IsCancelPose(h *detector.HandLandmarks) bool {
	return h.ThumbOpen() &&
		h.Extended(detector.PinkyTip) &&
		!h.Extended(detector.IndexTip) &&
		!h.Extended(detector.MiddleTip) &&
		!h.Extended(detector.RingTip)
}

// Classifier evaluates the gesture priority order for one frame. The hold
// timers, pinch latch, swipe window and spatial flags it reads and updates
// live in the State passed to Classify.
type Classifier struct {
	cfg Config
}

// NewClassifier returns a classifier using cfg.
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// IsPinch reports whether thumb and index tips are within the scaled pinch
// threshold.
func (c *Classifier) IsPinch(h *detector.HandLandmarks) bool {
	d := detector.Distance(h.Points[detector.ThumbTip], h.Points[detector.IndexTip])
	return d < c.cfg.PinchThreshold*c.cfg.Sensitivity
}

// ScrollZone returns the scroll action for the wrist height, if any.
func (c *Classifier) ScrollZone(h *detector.HandLandmarks) Action {
	y := h.Points[detector.Wrist].Y
	switch {
	case y < c.cfg.ScrollTop:
		return ActionScrollUp
	case y > c.cfg.ScrollBottom:
		return ActionScrollDown
	}
	return ActionNone
}

// Classify runs the priority order on a hand whose confidence already passed
// the minimum. The first matching check claims the frame. A hold pose claims
// it while its timer runs, so a pending disconnect or cancel never reads as
// a digit.
func (c *Classifier) Classify(st *State, h *detector.HandLandmarks, now time.Time, confidence float64) Classification {
	if IsDisconnectPose(h) {
		st.Cancel.Reset()
		st.Swipe.Reset()
		if st.Disconnect.Fires(now, c.cfg.DisconnectHold) {
			return Classification{Digit: NoDigit, Action: ActionDisconnect, Confidence: confidence}
		}
		return Empty(confidence)
	}
	st.Disconnect.Reset()

	if IsCancelPose(h) {
		st.Swipe.Reset()
		if st.Cancel.Fires(now, c.cfg.CancelHold) {
			return Classification{Digit: NoDigit, Action: ActionCancel, Confidence: confidence}
		}
		return Empty(confidence)
	}
	st.Cancel.Reset()

	// Lateral motion selects a zone while a letter group is held.
	if st.Spatial.Holding() {
		st.Swipe.Reset()
	} else {
		switch st.Swipe.Observe(h.Points[detector.Wrist].X, c.cfg.SwipeThreshold) {
		case SwipeRight:
			return Classification{Digit: NoDigit, Action: ActionSwipeRight, Confidence: confidence}
		case SwipeLeft:
			return Classification{Digit: NoDigit, Action: ActionSwipeLeft, Confidence: confidence}
		}
	}

	if a := c.ScrollZone(h); a != ActionNone {
		return Classification{Digit: NoDigit, Action: a, Confidence: confidence}
	}

	if c.IsPinch(h) {
		if st.Pinched {
			return Empty(confidence)
		}
		st.Pinched = true
		return Classification{Digit: NoDigit, Action: ActionSelect, Confidence: confidence}
	}
	st.Pinched = false

	d := Digit(h.ThumbOpen(), CountExtended(h))
	if d == 0 && st.Spatial.Armed() {
		return Classification{Digit: NoDigit, Action: ActionSpatialCommit, Confidence: confidence}
	}
	return Classification{Digit: d, Confidence: confidence}
}
