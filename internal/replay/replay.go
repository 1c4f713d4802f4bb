package replay

import (
	"sort"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/bus"
	"main/internal/schema"
)

// DefaultProgressInterval is how many events pass between progress
// callbacks.
const DefaultProgressInterval = 10000

// Pacing delays at or below this threshold are burst-replayed.
const minPacedDelay = time.Millisecond

// OnEvent observes each envelope right after it is re-published.
type OnEvent func(index int, env schema.Envelope)

// OnProgress observes replay progress as a span fraction and event index.
type OnProgress func(progress float64, index int)

// Stats summarizes one replay run. Rates are zero when the run was too
// short to measure.
type Stats struct {
	EventsReplayed  int
	WallTime        time.Duration
	VirtualSpan     time.Duration
	EventsPerSecond float64
	EffectiveSpeed  float64
}

// Replay re-publishes recorded envelopes through the dynamic bus in
// timestamp order, pacing to the recorded gaps when a speed is set.
// Subscribers receive fresh envelopes and cannot tell replay from live
// traffic. A run in progress cannot be canceled.
type Replay struct {
	bus              *bus.EventBus
	speed            Speed
	events           []schema.Envelope
	clock            VirtualClock
	wall             Clock
	onEvent          OnEvent
	onProgress       OnProgress
	progressInterval int
}

// New creates a replay engine publishing into b.
func New(b *bus.EventBus, speed Speed) *Replay {
	return &Replay{
		bus:              b,
		speed:            speed,
		wall:             realClock{},
		progressInterval: DefaultProgressInterval,
	}
}

// WithClock swaps the pacing clock implementation.
func (r *Replay) WithClock(clock Clock) *Replay {
	if clock != nil {
		r.wall = clock
	}
	return r
}

// OnEvent registers a per-event callback.
func (r *Replay) OnEvent(fn OnEvent) {
	r.onEvent = fn
}

// OnProgress registers a progress callback.
func (r *Replay) OnProgress(fn OnProgress) {
	r.onProgress = fn
}

// SetProgressInterval overrides the progress callback cadence.
func (r *Replay) SetProgressInterval(n int) {
	if n > 0 {
		r.progressInterval = n
	}
}

// EventCount returns the number of loaded events.
func (r *Replay) EventCount() int { return len(r.events) }

// Clock returns a copy of the virtual clock.
func (r *Replay) Clock() VirtualClock { return r.clock }

// LoadEvents replaces the loaded batch. The batch is stable-sorted
// ascending by envelope timestamp, so equal timestamps keep their input
// order, and the virtual clock bounds are pinned to the batch span.
func (r *Replay) LoadEvents(events []schema.Envelope) {
	batch := make([]schema.Envelope, len(events))
	copy(batch, events)
	sort.SliceStable(batch, func(i, j int) bool {
		return batch[i].TimestampNs < batch[j].TimestampNs
	})
	r.events = batch
	if len(batch) > 0 {
		r.clock.SetBounds(batch[0].TimestampNs, batch[len(batch)-1].TimestampNs)
	} else {
		r.clock.SetBounds(0, 0)
	}
	logs.Infof("load events for replay, count: %d", len(batch))
}

// Run replays every loaded event in order and returns the run statistics.
// Publish failures are logged and skipped, they never abort the run.
func (r *Replay) Run() Stats {
	started := time.Now()
	logs.Infof("start replay, events: %d, speed: %s", len(r.events), r.speed)

	var prevTS int64
	for i, env := range r.events {
		r.clock.AdvanceTo(env.TimestampNs)
		r.pace(env.TimestampNs, prevTS)
		prevTS = env.TimestampNs

		if err := r.bus.PublishWithPriority(env.Event, env.Priority); err != nil {
			logs.Debugf("replay publish failed, id: %d, err: %+v", env.ID, err)
		}
		if r.onEvent != nil {
			r.onEvent(i, env)
		}
		if r.onProgress != nil && (i+1)%r.progressInterval == 0 {
			r.onProgress(r.clock.Progress(), i)
		}
	}

	var spanNs int64
	if len(r.events) > 0 {
		spanNs = r.events[len(r.events)-1].TimestampNs - r.events[0].TimestampNs
	}
	stats := r.buildStats(len(r.events), spanNs, time.Since(started))
	logs.Infof("replay complete, events: %d, wall: %s, rate: %.0f/s",
		stats.EventsReplayed, stats.WallTime, stats.EventsPerSecond)
	return stats
}

// RunUntil replays only the events with timestamps at or before endNs,
// then reattaches the unplayed suffix so the loaded set keeps its
// remainder for later runs.
func (r *Replay) RunUntil(endNs int64) Stats {
	cut := sort.Search(len(r.events), func(i int) bool {
		return r.events[i].TimestampNs > endNs
	})
	suffix := r.events[cut:]
	r.events = r.events[:cut:cut]
	stats := r.Run()
	r.events = append(r.events, suffix...)
	return stats
}

// pace sleeps out the gap to the previous event scaled by the speed.
// Sub-millisecond delays are skipped, so dense bursts replay unthrottled.
func (r *Replay) pace(current, prev int64) {
	if r.speed <= SpeedMax || prev <= 0 {
		return
	}
	delta := current - prev
	if delta <= 0 {
		return
	}
	delay := time.Duration(float64(delta) / float64(r.speed))
	if delay > minPacedDelay {
		r.wall.Sleep(delay)
	}
}

// buildStats summarizes a run over the batch that actually played, so a
// partial run reports the prefix span, not the whole loaded span.
func (r *Replay) buildStats(count int, spanNs int64, wall time.Duration) Stats {
	stats := Stats{
		EventsReplayed: count,
		WallTime:       wall,
		VirtualSpan:    time.Duration(spanNs),
	}
	if secs := wall.Seconds(); secs > 0 {
		stats.EventsPerSecond = float64(count) / secs
	}
	if wall > 0 {
		stats.EffectiveSpeed = float64(stats.VirtualSpan) / float64(wall)
	}
	return stats
}
