// Package gesture turns a stream of hand keypoint frames into debounced
// digit, letter and control events.
package gesture

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Action names a control gesture.
type Action string

const (
	ActionNone          Action = ""
	ActionSelect        Action = "select"
	ActionDisconnect    Action = "disconnect"
	ActionCancel        Action = "cancel"
	ActionScrollUp      Action = "scroll_up"
	ActionScrollDown    Action = "scroll_down"
	ActionSwipeLeft     Action = "swipe_left"
	ActionSwipeRight    Action = "swipe_right"
	ActionSpatialCommit Action = "spatial_commit"
)

// IsScroll reports whether a is one of the scroll-zone actions.
func (a Action) IsScroll() bool {
	return a == ActionScrollUp || a == ActionScrollDown
}

// EmittedActions lists the actions that reach consumers as action events.
// A spatial commit surfaces as a letter instead.
func EmittedActions() []Action {
	return []Action{
		ActionSelect, ActionDisconnect, ActionCancel,
		ActionScrollUp, ActionScrollDown, ActionSwipeLeft, ActionSwipeRight,
	}
}

// ParseAction returns the emitted action named s.
func ParseAction(s string) (Action, bool) {
	for _, a := range EmittedActions() {
		if string(a) == s {
			return a, true
		}
	}
	return ActionNone, false
}

// NoDigit marks a Classification without a digit candidate.
const NoDigit = -1

// Classification is the per-frame verdict of the pose classifier. At most one
// of Digit and Action is set; both are absent when no qualifying pose was seen.
type Classification struct {
	Digit      int
	Action     Action
	Confidence float64
}

// Empty returns a Classification with neither a digit nor an action.
func Empty(confidence float64) Classification {
	return Classification{Digit: NoDigit, Confidence: confidence}
}

// HasDigit reports whether the frame produced a digit candidate.
func (c Classification) HasDigit() bool {
	return c.Digit != NoDigit
}

// HasAction reports whether the frame produced a control gesture.
func (c Classification) HasAction() bool {
	return c.Action != ActionNone
}

// Kind identifies the type of an emitted Event.
type Kind string

const (
	KindDigit  Kind = "digit"
	KindLetter Kind = "letter"
	KindAction Kind = "action"
	// KindPreview is a non-committing spatial zone update. An empty Value
	// with Zone -1 means the pending hold was cleared.
	KindPreview Kind = "preview"
)

// Event is an immutable gesture event handed to the consumer.
type Event struct {
	ID         string    `json:"id"`
	Kind       Kind      `json:"kind"`
	Value      string    `json:"value"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	Zone       int       `json:"zone"`
}

// Committed reports whether the event is a final input rather than a preview.
func (e Event) Committed() bool {
	return e.Kind != KindPreview
}

func newEvent(kind Kind, value string, confidence float64, at time.Time) Event {
	return Event{
		ID:         uuid.NewString(),
		Kind:       kind,
		Value:      value,
		Confidence: confidence,
		Timestamp:  at,
		Zone:       -1,
	}
}

func digitEvent(d int, confidence float64, at time.Time) Event {
	return newEvent(KindDigit, strconv.Itoa(d), confidence, at)
}

func actionEvent(a Action, confidence float64, at time.Time) Event {
	return newEvent(KindAction, string(a), confidence, at)
}
