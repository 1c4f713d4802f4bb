package bus

import "sync/atomic"

// EventStats is a point-in-time snapshot of one event type's counters.
type EventStats struct {
	Published uint64
	Received  uint64
	Dropped   uint64
}

// typeCounters are the live counters behind one event type. The received
// counter is reserved: no delivery path increments it yet.
type typeCounters struct {
	published uint64
	received  uint64
	dropped   uint64
}

func (c *typeCounters) snapshot() EventStats {
	return EventStats{
		Published: atomic.LoadUint64(&c.published),
		Received:  atomic.LoadUint64(&c.received),
		Dropped:   atomic.LoadUint64(&c.dropped),
	}
}
