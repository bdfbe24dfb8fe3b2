package gesture

import (
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/detector"
)

// State is all mutable engine state. It is owned by a single Engine and must
// only be touched from the goroutine driving it.
type State struct {
	// Candidate is the digit seen on the previous frame, NoDigit if none.
	Candidate int
	// Stable is the length of the current run of Candidate.
	Stable int

	LastTrigger time.Time
	LastScroll  time.Time
	// LastActivity is the time of the last emitted event, used for the
	// spatial idle timeout.
	LastActivity time.Time

	Pinched    bool
	Disconnect HoldTimer
	Cancel     HoldTimer
	Swipe      SwipeDetector
	Spatial    Spatial
}

func newState() State {
	return State{Candidate: NoDigit}
}

func (s *State) resetStability() {
	s.Candidate = NoDigit
	s.Stable = 0
}

// decay applies the effect of a frame without a usable hand.
func (s *State) decay() {
	s.Disconnect.Reset()
	s.Cancel.Reset()
	s.Pinched = false
	s.Swipe.Reset()
	s.Spatial.Disarm()
	s.resetStability()
}

// Engine is the per-frame gesture state machine. It is not safe for
// concurrent use; a restart builds a new Engine.
type Engine struct {
	cfg        Config
	classifier *Classifier
	state      State
	observer   FrameObserver
	// confidence of the last stepped frame after the off-hand penalty, 0
	// without a hand.
	confidence float64
}

// New creates an engine. The config is validated once here.
func New(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.ZoneBounds = append([]float64(nil), cfg.ZoneBounds...)

	return &Engine{
		cfg:        cfg,
		classifier: NewClassifier(cfg),
		state:      newState(),
		observer:   nopObserver{},
	}, nil
}

// WithObserver attaches o to receive per-frame statistics from Run.
func (e *Engine) WithObserver(o FrameObserver) *Engine {
	if o == nil {
		o = nopObserver{}
	}
	e.observer = o
	return e
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	return e.state
}

// Reset clears every timer, flag and counter.
func (e *Engine) Reset() {
	e.state = newState()
}

// Step processes one frame and returns the events it produced, in order.
// At most one of them is committed; the others are previews. A malformed
// frame is rejected with detector.ErrMalformedFrame and leaves the state
// untouched.
func (e *Engine) Step(f detector.Frame) ([]Event, error) {
	if f.Hand != nil {
		if err := f.Hand.Validate(); err != nil {
			return nil, fmt.Errorf("step: %w", err)
		}
	}

	now := f.Timestamp
	st := &e.state
	var events []Event

	if st.Spatial.Holding() && now.Sub(st.LastActivity) >= e.cfg.IdleTimeout {
		st.Spatial.Clear()
		events = e.emit(events, newEvent(KindPreview, "", 0, now))
	}

	e.confidence = 0
	if f.Hand == nil {
		st.decay()
		return events, nil
	}

	confidence := PoseConfidence(f.Hand, e.cfg.VarianceScale)
	e.confidence = confidence
	if confidence < e.cfg.MinConfidence {
		st.decay()
		return events, nil
	}
	if e.cfg.PreferredHand != "" && f.Hand.Handedness != e.cfg.PreferredHand {
		confidence *= e.cfg.OffHandPenalty
		e.confidence = confidence
	}

	if e.coolingDown(now) {
		return e.stepCooldown(events, f.Hand, now, confidence), nil
	}

	c := e.classifier.Classify(st, f.Hand, now, confidence)
	entered := false
	switch {
	case c.HasAction():
		events = e.handleAction(events, c, now)
	case c.HasDigit():
		events, entered = e.handleDigit(events, c, now)
	default:
		st.resetStability()
	}

	if !entered && st.Spatial.Update(f.Hand.Points[detector.Wrist].X, e.cfg.ZoneBounds) {
		events = e.emit(events, e.preview(now, confidence))
	}
	return events, nil
}

func (e *Engine) coolingDown(now time.Time) bool {
	last := e.state.LastTrigger
	return !last.IsZero() && now.Sub(last) < e.cfg.Cooldown
}

func (e *Engine) scrollAllowed(now time.Time) bool {
	last := e.state.LastScroll
	return last.IsZero() || now.Sub(last) >= e.cfg.ScrollInterval
}

// stepCooldown runs during the refractory period. Classification is skipped;
// only the scroll zones stay live on their own interval. A released pinch
// still clears the latch so the next pinch after the cooldown is an edge.
func (e *Engine) stepCooldown(events []Event, h *detector.HandLandmarks, now time.Time, confidence float64) []Event {
	st := &e.state
	if !e.classifier.IsPinch(h) {
		st.Pinched = false
	}

	a := e.classifier.ScrollZone(h)
	if a == ActionNone || !e.scrollAllowed(now) {
		return events
	}
	st.LastScroll = now
	st.resetStability()
	return e.emit(events, actionEvent(a, confidence, now))
}

func (e *Engine) handleAction(events []Event, c Classification, now time.Time) []Event {
	st := &e.state

	switch c.Action {
	case ActionScrollUp, ActionScrollDown:
		st.resetStability()
		if !e.scrollAllowed(now) {
			return events
		}
		st.LastScroll = now
		return e.emit(events, actionEvent(c.Action, c.Confidence, now))

	case ActionSpatialCommit:
		zone := st.Spatial.Zone()
		letter, ok := st.Spatial.Commit()
		if !ok {
			st.resetStability()
			return events
		}
		ev := newEvent(KindLetter, letter, c.Confidence, now)
		ev.Zone = zone
		e.trigger(now)
		return e.emit(events, ev)

	case ActionDisconnect:
		last := st.LastTrigger
		*st = newState()
		st.LastTrigger = last
		e.trigger(now)
		return e.emit(events, actionEvent(c.Action, c.Confidence, now))

	case ActionCancel:
		st.Spatial.Clear()
	}

	e.trigger(now)
	return e.emit(events, actionEvent(c.Action, c.Confidence, now))
}

// trigger starts the shared cooldown after a committed action or letter.
// Frames inside the cooldown are not observed by the swipe detector, so its
// reference position is dropped here.
func (e *Engine) trigger(now time.Time) {
	st := &e.state
	if now.After(st.LastTrigger) {
		st.LastTrigger = now
	}
	st.resetStability()
	st.Disconnect.Reset()
	st.Cancel.Reset()
	st.Swipe.Reset()
	st.Spatial.Disarm()
}

// handleDigit advances the stability run. A digit is emitted once, on the
// frame its run reaches StabilityFrames; the run keeps counting after that
// so a held pose does not repeat. It reports whether a spatial hold started.
func (e *Engine) handleDigit(events []Event, c Classification, now time.Time) ([]Event, bool) {
	st := &e.state

	if c.Digit == st.Candidate {
		st.Stable++
	} else {
		st.Candidate = c.Digit
		st.Stable = 1
	}

	if c.Digit >= 2 && st.Spatial.Holding() {
		st.Spatial.Arm()
	}

	if st.Stable != e.cfg.StabilityFrames {
		return events, false
	}

	events = e.emit(events, digitEvent(c.Digit, c.Confidence, now))
	if st.Spatial.Digit() == c.Digit || !st.Spatial.Hold(c.Digit, e.cfg.ZoneBounds) {
		return events, false
	}
	return e.emit(events, e.preview(now, c.Confidence)), true
}

func (e *Engine) preview(now time.Time, confidence float64) Event {
	ev := newEvent(KindPreview, e.state.Spatial.Letter(), confidence, now)
	ev.Zone = e.state.Spatial.Zone()
	return ev
}

func (e *Engine) emit(events []Event, ev Event) []Event {
	e.state.LastActivity = ev.Timestamp
	return append(events, ev)
}
