// Package metrics collects detection statistics from the gesture worker and
// the event consumer.
package metrics

import (
	"sort"
	"sync"
	"time"
)

// latencyWindow is how many recent frame latencies the percentile is taken over.
const latencyWindow = 1000

// Collector accumulates frame and event statistics. It is safe for
// concurrent use; the worker records frames while HTTP handlers read reports.
type Collector struct {
	mu sync.Mutex

	started  time.Time
	frames   int64
	hands    int64
	rejected int64
	dropped  int64

	latencies []time.Duration
	next      int
	totalLat  time.Duration
	totalConf float64

	kinds   map[string]int64
	actions map[string]int64
	last    time.Time
}

// New returns an empty collector.
func New() *Collector {
	return &Collector{
		started:   time.Now(),
		latencies: make([]time.Duration, 0, latencyWindow),
		kinds:     make(map[string]int64),
		actions:   make(map[string]int64),
	}
}

// ObserveFrame records the processing latency of one frame and the confidence
// the engine used for it. A confidence of 0 means no hand was seen and is
// left out of the average.
func (c *Collector) ObserveFrame(latency time.Duration, confidence float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.frames++
	c.totalLat += latency
	if len(c.latencies) < latencyWindow {
		c.latencies = append(c.latencies, latency)
	} else {
		c.latencies[c.next] = latency
		c.next = (c.next + 1) % latencyWindow
	}

	if confidence > 0 {
		c.hands++
		c.totalConf += confidence
	}
}

// ObserveRejected counts a malformed frame.
func (c *Collector) ObserveRejected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected++
}

// ObserveDropped counts an event lost to a full queue.
func (c *Collector) ObserveDropped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropped++
}

// ObserveEvent counts a delivered event by kind, and action events by name.
func (c *Collector) ObserveEvent(kind, value string, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.kinds[kind]++
	if kind == "action" {
		c.actions[value]++
	}
	if at.After(c.last) {
		c.last = at
	}
}

// Report is a point-in-time copy of the collected statistics.
type Report struct {
	Uptime        time.Duration    `json:"-"`
	UptimeSeconds float64          `json:"uptime_seconds"`
	Frames        int64            `json:"frames"`
	HandFrames    int64            `json:"hand_frames"`
	Rejected      int64            `json:"rejected_frames"`
	Dropped       int64            `json:"dropped_events"`
	AvgLatencyMS  float64          `json:"avg_latency_ms"`
	P95LatencyMS  float64          `json:"p95_latency_ms"`
	AvgConfidence float64          `json:"avg_confidence"`
	Events        map[string]int64 `json:"events"`
	Actions       map[string]int64 `json:"actions"`
	LastEvent     *time.Time       `json:"last_event,omitempty"`
}

// Report returns the current statistics.
func (c *Collector) Report() Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := Report{
		Uptime:     time.Since(c.started),
		Frames:     c.frames,
		HandFrames: c.hands,
		Rejected:   c.rejected,
		Dropped:    c.dropped,
		Events:     copyCounts(c.kinds),
		Actions:    copyCounts(c.actions),
	}
	r.UptimeSeconds = r.Uptime.Seconds()

	if c.frames > 0 {
		r.AvgLatencyMS = ms(c.totalLat / time.Duration(c.frames))
	}
	r.P95LatencyMS = ms(percentile(c.latencies, 0.95))
	if c.hands > 0 {
		r.AvgConfidence = c.totalConf / float64(c.hands)
	}
	if !c.last.IsZero() {
		last := c.last
		r.LastEvent = &last
	}
	return r
}

// Reset clears all statistics.
func (c *Collector) Reset() {
	fresh := New()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.started = fresh.started
	c.frames, c.hands, c.rejected, c.dropped = 0, 0, 0, 0
	c.latencies = fresh.latencies
	c.next = 0
	c.totalLat = 0
	c.totalConf = 0
	c.kinds = fresh.kinds
	c.actions = fresh.actions
	c.last = time.Time{}
}

// percentile returns the nearest-rank percentile of samples.
func percentile(samples []time.Duration, p float64) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	rank := int(p*float64(len(sorted))+0.5) - 1
	if rank < 0 {
		rank = 0
	}
	if rank >= len(sorted) {
		rank = len(sorted) - 1
	}
	return sorted[rank]
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
