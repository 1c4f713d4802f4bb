package recorder

import (
	"sync"

	"main/internal/schema"
)

// Recorder keeps the most recent envelopes in a fixed-size ring. Below
// capacity new records append; afterwards they overwrite the slot under a
// rotating cursor. The cursor advances after every record, so a snapshot
// taken after wraparound is in slot order, not chronological order.
type Recorder struct {
	mu       sync.Mutex
	events   []schema.Envelope
	pos      int
	capacity int
}

// New creates a recorder holding at most capacity envelopes.
func New(capacity int) *Recorder {
	if capacity < 1 {
		capacity = 1
	}
	return &Recorder{
		events:   make([]schema.Envelope, 0, capacity),
		capacity: capacity,
	}
}

// Record stores one envelope.
func (r *Recorder) Record(env schema.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) < r.capacity {
		r.events = append(r.events, env)
	} else {
		r.events[r.pos] = env
	}
	r.pos = (r.pos + 1) % r.capacity
}

// Events returns a snapshot of the buffer in slot order.
func (r *Recorder) Events() []schema.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.Envelope, len(r.events))
	copy(out, r.events)
	return out
}

// EventsInRange returns buffered envelopes with timestamps inside
// [startNs, endNs], both inclusive.
func (r *Recorder) EventsInRange(startNs, endNs int64) []schema.Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.Envelope, 0, len(r.events))
	for _, env := range r.events {
		if env.TimestampNs >= startNs && env.TimestampNs <= endNs {
			out = append(out, env)
		}
	}
	return out
}

// Clear discards all buffered envelopes and rewinds the cursor.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = r.events[:0]
	r.pos = 0
}

// Len returns the number of buffered envelopes.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// IsEmpty reports whether nothing has been recorded.
func (r *Recorder) IsEmpty() bool { return r.Len() == 0 }

// Capacity returns the fixed buffer capacity.
func (r *Recorder) Capacity() int { return r.capacity }
