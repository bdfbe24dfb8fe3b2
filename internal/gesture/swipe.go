package gesture

import "math"

// SwipeWindow is the number of wrist deltas averaged by the swipe detector.
const SwipeWindow = 5

// Direction is the sign of a detected swipe.
type Direction int

const (
	NoSwipe    Direction = 0
	SwipeLeft  Direction = -1
	SwipeRight Direction = 1
)

// SwipeDetector keeps a rolling window of horizontal wrist deltas.
type SwipeDetector struct {
	samples []float64
	prevX   float64
	hasPrev bool
}

// Observe feeds the wrist x of the current frame. The first frame after a
// reset only sets the reference position.
func (d *SwipeDetector) Observe(x, threshold float64) Direction {
	if !d.hasPrev {
		d.prevX = x
		d.hasPrev = true
		return NoSwipe
	}

	dir := d.Push(x-d.prevX, threshold)
	d.prevX = x
	return dir
}

// Push appends one delta, evicting the oldest beyond SwipeWindow. Once the
// window is full and its mean magnitude exceeds threshold/SwipeWindow a swipe
// is reported and the window is emptied.
func (d *SwipeDetector) Push(delta, threshold float64) Direction {
	d.samples = append(d.samples, delta)
	if len(d.samples) > SwipeWindow {
		d.samples = d.samples[1:]
	}
	if len(d.samples) < SwipeWindow {
		return NoSwipe
	}

	var sum float64
	for _, s := range d.samples {
		sum += s
	}
	mean := sum / float64(len(d.samples))
	if math.Abs(mean) <= threshold/SwipeWindow {
		return NoSwipe
	}

	d.samples = d.samples[:0]
	if mean > 0 {
		return SwipeRight
	}
	return SwipeLeft
}

// Len returns the number of buffered deltas.
func (d *SwipeDetector) Len() int {
	return len(d.samples)
}

// Reset drops the window and the reference position.
func (d *SwipeDetector) Reset() {
	d.samples = d.samples[:0]
	d.hasPrev = false
	d.prevX = 0
}
