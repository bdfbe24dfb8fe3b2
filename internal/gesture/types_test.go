package gesture

import (
	"testing"
	"time"
)

func TestParseAction(t *testing.T) {
	tests := []struct {
		in   string
		want Action
		ok   bool
	}{
		{"select", ActionSelect, true},
		{"scroll_down", ActionScrollDown, true},
		{"swipe_left", ActionSwipeLeft, true},
		{"spatial_commit", ActionNone, false},
		{"", ActionNone, false},
		{"Select", ActionNone, false},
	}

	for _, tt := range tests {
		got, ok := ParseAction(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseAction(%q) = %q, %v, want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	for _, a := range EmittedActions() {
		if _, ok := ParseAction(string(a)); !ok {
			t.Errorf("ParseAction(%q) rejected an emitted action", a)
		}
	}
}

func TestEvent_Identity(t *testing.T) {
	at := time.Now()
	a := digitEvent(3, 0.9, at)
	b := digitEvent(3, 0.9, at)

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("event ids %q and %q are not unique", a.ID, b.ID)
	}
	if a.Value != "3" || a.Zone != -1 || !a.Committed() {
		t.Errorf("digit event = %+v", a)
	}

	preview := Event{Kind: KindPreview, Value: "B", Zone: 1}
	if preview.Committed() {
		t.Error("preview reported as committed")
	}
}
