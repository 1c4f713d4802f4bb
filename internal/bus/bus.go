package bus

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yanun0323/logs"

	"main/internal/recorder"
	"main/internal/schema"
)

var ErrNilEvent = errors.New("event is nil")

// DefaultChannelCapacity is the per-subscriber buffer size on the dynamic
// bus. A subscriber that falls further behind loses its oldest envelopes.
const DefaultChannelCapacity = 10000

// EventBus fans envelopes out to string-keyed subscriber channels. Channels
// are created lazily on first publish or subscribe; creation is race-safe
// and exactly one channel ever exists per key. Publishing runs on the
// caller's goroutine, there is no dispatcher in between.
type EventBus struct {
	mu       sync.RWMutex
	channels map[string]*fanout

	capacity int
	rec      *recorder.Recorder
	lastID   uint64
}

// New creates a bus without recording.
func New() *EventBus {
	return newBus(DefaultChannelCapacity, nil)
}

// NewRecording creates a bus that mirrors every published envelope into a
// ring recorder holding the most recent recorderCapacity envelopes.
func NewRecording(recorderCapacity int) *EventBus {
	return newBus(DefaultChannelCapacity, recorder.New(recorderCapacity))
}

func newBus(channelCapacity int, rec *recorder.Recorder) *EventBus {
	if channelCapacity <= 0 {
		channelCapacity = 1
	}
	return &EventBus{
		channels: make(map[string]*fanout),
		capacity: channelCapacity,
		rec:      rec,
	}
}

// Recorder returns the attached recorder, nil when the bus does not record.
func (b *EventBus) Recorder() *recorder.Recorder { return b.rec }

// Publish wraps event in an envelope and delivers it to every current
// subscriber of its type. The priority is the payload's own when it
// implements Prioritized, otherwise the default. Zero subscribers is not a
// failure: the envelope counts as dropped and the call succeeds.
func (b *EventBus) Publish(event schema.Event) error {
	if event == nil {
		return ErrNilEvent
	}
	return b.publish(event, payloadPriority(event))
}

// PublishWithPriority publishes with an explicit delivery priority. The
// priority is advisory and does not affect delivery order.
func (b *EventBus) PublishWithPriority(event schema.Event, priority uint8) error {
	if event == nil {
		return ErrNilEvent
	}
	return b.publish(event, schema.ClampPriority(priority))
}

func (b *EventBus) publish(event schema.Event, priority uint8) error {
	env := schema.Envelope{
		ID:          atomic.AddUint64(&b.lastID, 1),
		TimestampNs: time.Now().UnixNano(),
		Priority:    priority,
		Event:       event,
	}
	if b.rec != nil {
		b.rec.Record(env)
	}
	b.fanout(event.EventType()).deliver(env)
	return nil
}

func payloadPriority(event schema.Event) uint8 {
	if p, ok := event.(schema.Prioritized); ok {
		return schema.ClampPriority(p.Priority())
	}
	return schema.PriorityDefault
}

// Subscribe returns a new independent listener for eventType. Every
// subscriber observes every envelope published after it attaches.
func (b *EventBus) Subscribe(eventType string) *Subscription {
	f := b.fanout(eventType)
	s := &Subscription{
		bus:       b,
		f:         f,
		eventType: eventType,
		ch:        make(chan schema.Envelope, b.capacity),
	}
	f.mu.Lock()
	f.subs = append(f.subs, s)
	f.mu.Unlock()
	return s
}

// SubscribeMarketData subscribes to the fixed market data key.
func (b *EventBus) SubscribeMarketData() *Subscription { return b.Subscribe(schema.TypeMarketData) }

// SubscribeSignals subscribes to the fixed signal key.
func (b *EventBus) SubscribeSignals() *Subscription { return b.Subscribe(schema.TypeSignal) }

// SubscribeFills subscribes to the fixed fill key.
func (b *EventBus) SubscribeFills() *Subscription { return b.Subscribe(schema.TypeFill) }

// SubscribeOrders subscribes to the fixed order key.
func (b *EventBus) SubscribeOrders() *Subscription { return b.Subscribe(schema.TypeOrder) }

// SubscribeFeatures subscribes to the fixed feature key.
func (b *EventBus) SubscribeFeatures() *Subscription { return b.Subscribe(schema.TypeFeature) }

// Stats returns a snapshot of every event type's counters.
func (b *EventBus) Stats() map[string]EventStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]EventStats, len(b.channels))
	for name, f := range b.channels {
		out[name] = f.counters.snapshot()
	}
	return out
}

// TypeStats returns the counters for one event type.
func (b *EventBus) TypeStats(eventType string) (EventStats, bool) {
	b.mu.RLock()
	f, ok := b.channels[eventType]
	b.mu.RUnlock()
	if !ok {
		return EventStats{}, false
	}
	return f.counters.snapshot(), true
}

// fanout returns the delivery state for eventType, creating it when absent.
// Racing callers agree on a single winner.
func (b *EventBus) fanout(eventType string) *fanout {
	b.mu.RLock()
	f, ok := b.channels[eventType]
	b.mu.RUnlock()
	if ok {
		return f
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if f, ok := b.channels[eventType]; ok {
		return f
	}
	f = &fanout{}
	b.channels[eventType] = f
	logs.Debugf("create event channel, type: %s", eventType)
	return f
}

// fanout is one event type's subscriber list and counters.
type fanout struct {
	mu       sync.RWMutex
	subs     []*Subscription
	counters typeCounters
}

// deliver pushes env to every subscriber. The read lock is held across the
// pushes so a subscription cannot close its channel mid-delivery.
func (f *fanout) deliver(env schema.Envelope) {
	atomic.AddUint64(&f.counters.published, 1)
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.subs) == 0 {
		atomic.AddUint64(&f.counters.dropped, 1)
		return
	}
	for _, s := range f.subs {
		s.push(env)
	}
}

// detach removes s from the subscriber list.
func (f *fanout) detach(s *Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, sub := range f.subs {
		if sub == s {
			next := make([]*Subscription, 0, len(f.subs)-1)
			next = append(next, f.subs[:i]...)
			next = append(next, f.subs[i+1:]...)
			f.subs = next
			return
		}
	}
}
