package replay

import (
	"main/internal/bus"
	"main/internal/schema"
)

// Builder assembles a replay engine step by step. The zero speed
// replays as fast as possible.
type Builder struct {
	bus              *bus.EventBus
	speed            Speed
	events           []schema.Envelope
	progressInterval int
}

// NewBuilder starts a builder publishing into b.
func NewBuilder(b *bus.EventBus) *Builder {
	return &Builder{bus: b, speed: SpeedMax}
}

// Speed sets the replay speed.
func (b *Builder) Speed(speed Speed) *Builder {
	b.speed = speed
	return b
}

// Events sets the batch to replay.
func (b *Builder) Events(events []schema.Envelope) *Builder {
	b.events = events
	return b
}

// ProgressInterval sets the progress callback cadence.
func (b *Builder) ProgressInterval(n int) *Builder {
	b.progressInterval = n
	return b
}

// Build produces the configured engine.
func (b *Builder) Build() *Replay {
	r := New(b.bus, b.speed)
	if b.progressInterval > 0 {
		r.SetProgressInterval(b.progressInterval)
	}
	if len(b.events) > 0 {
		r.LoadEvents(b.events)
	}
	return r
}
