package gesture

import "time"

// HoldTimer measures how long a pose has been observed without a break.
// The zero value is an unset timer.
type HoldTimer struct {
	start   time.Time
	running bool
}

// Observe records that the pose is present at now and returns how long it
// has been held. The first observation returns 0.
func (h *HoldTimer) Observe(now time.Time) time.Duration {
	if !h.running {
		h.start = now
		h.running = true
		return 0
	}
	return now.Sub(h.start)
}

// Reset unsets the timer; the next Observe starts a new hold.
func (h *HoldTimer) Reset() {
	*h = HoldTimer{}
}

// Running reports whether a hold is in progress.
func (h *HoldTimer) Running() bool {
	return h.running
}

// Fires observes the pose at now and reports whether the hold has lasted
// longer than d. A fired timer is reset so one hold fires once.
func (h *HoldTimer) Fires(now time.Time, d time.Duration) bool {
	if h.Observe(now) > d {
		h.Reset()
		return true
	}
	return false
}
