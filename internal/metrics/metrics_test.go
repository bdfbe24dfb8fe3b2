package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCollector_Report(t *testing.T) {
	c := New()

	for i := 1; i <= 100; i++ {
		c.ObserveFrame(time.Duration(i)*time.Millisecond, 0.9)
	}
	c.ObserveFrame(time.Millisecond, 0)
	c.ObserveRejected()
	c.ObserveDropped()
	c.ObserveDropped()

	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	c.ObserveEvent("digit", "2", at)
	c.ObserveEvent("action", "select", at.Add(time.Second))
	c.ObserveEvent("action", "select", at)

	r := c.Report()
	if r.Frames != 101 || r.HandFrames != 100 {
		t.Errorf("frames = %d hands = %d, want 101 100", r.Frames, r.HandFrames)
	}
	if r.Rejected != 1 || r.Dropped != 2 {
		t.Errorf("rejected = %d dropped = %d", r.Rejected, r.Dropped)
	}
	if r.P95LatencyMS != 95 {
		t.Errorf("p95 = %v, want 95", r.P95LatencyMS)
	}
	if r.AvgConfidence < 0.8999 || r.AvgConfidence > 0.9001 {
		t.Errorf("avg confidence = %v, want 0.9", r.AvgConfidence)
	}
	if r.Events["digit"] != 1 || r.Events["action"] != 2 || r.Actions["select"] != 2 {
		t.Errorf("events = %v actions = %v", r.Events, r.Actions)
	}
	if r.LastEvent == nil || !r.LastEvent.Equal(at.Add(time.Second)) {
		t.Errorf("last event = %v", r.LastEvent)
	}

	// Reports are copies.
	r.Events["digit"] = 99
	if c.Report().Events["digit"] != 1 {
		t.Error("report shares its map with the collector")
	}
}

func TestCollector_LatencyWindow(t *testing.T) {
	c := New()

	for i := 0; i < latencyWindow; i++ {
		c.ObserveFrame(100*time.Millisecond, 0.9)
	}
	for i := 0; i < latencyWindow; i++ {
		c.ObserveFrame(time.Millisecond, 0.9)
	}

	if p95 := c.Report().P95LatencyMS; p95 != 1 {
		t.Errorf("p95 = %v, want 1 once old samples are evicted", p95)
	}
}

func TestCollector_Reset(t *testing.T) {
	c := New()
	c.ObserveFrame(time.Millisecond, 0.5)
	c.ObserveEvent("letter", "C", time.Now())
	c.Reset()

	r := c.Report()
	if r.Frames != 0 || len(r.Events) != 0 || r.LastEvent != nil || r.P95LatencyMS != 0 {
		t.Errorf("report after Reset = %+v", r)
	}
}

func TestCollector_Concurrent(t *testing.T) {
	c := New()
	var wg sync.WaitGroup

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 250; j++ {
				c.ObserveFrame(time.Millisecond, 0.8)
				c.Report()
			}
		}()
	}
	wg.Wait()

	if got := c.Report().Frames; got != 1000 {
		t.Errorf("frames = %d, want 1000", got)
	}
}

func TestPercentile(t *testing.T) {
	if got := percentile(nil, 0.95); got != 0 {
		t.Errorf("percentile(nil) = %v", got)
	}
	one := []time.Duration{7 * time.Millisecond}
	if got := percentile(one, 0.95); got != 7*time.Millisecond {
		t.Errorf("percentile(one) = %v", got)
	}
}
