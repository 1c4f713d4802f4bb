package replay

import "time"

// Clock allows deterministic pacing control in tests.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// VirtualClock tracks the replay position inside the loaded time span. The
// engine owns it and mutates it only between events.
type VirtualClock struct {
	startNs   int64
	endNs     int64
	currentNs int64
}

// SetBounds pins the clock to a new span and rewinds to its start.
func (c *VirtualClock) SetBounds(startNs, endNs int64) {
	c.startNs = startNs
	c.endNs = endNs
	c.currentNs = startNs
}

// AdvanceTo moves the clock to ts.
func (c *VirtualClock) AdvanceTo(ts int64) {
	c.currentNs = ts
}

// Start returns the span start in nanoseconds.
func (c VirtualClock) Start() int64 { return c.startNs }

// End returns the span end in nanoseconds.
func (c VirtualClock) End() int64 { return c.endNs }

// Current returns the clock position in nanoseconds.
func (c VirtualClock) Current() int64 { return c.currentNs }

// Progress returns the fraction of the span elapsed. An empty or inverted
// span reads as complete.
func (c VirtualClock) Progress() float64 {
	if c.endNs <= c.startNs {
		return 1.0
	}
	return float64(c.currentNs-c.startNs) / float64(c.endNs-c.startNs)
}
