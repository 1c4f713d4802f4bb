package bus

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"

	"main/pkg/channel"
)

// DefaultQueueCapacity is the bounded queue size behind each typed channel.
const DefaultQueueCapacity = 100000

// TypedBus routes messages through bounded queues keyed by compile-time
// element type. Receivers compete: each message reaches exactly one of
// them. Publishing and receiving stay on the concrete type end to end, so
// the hot path never boxes payloads.
type TypedBus struct {
	mu       sync.RWMutex
	channels map[reflect.Type]any
	capacity int
}

// NewTyped creates a typed bus.
func NewTyped() *TypedBus {
	return newTyped(DefaultQueueCapacity)
}

func newTyped(capacity int) *TypedBus {
	if capacity <= 0 {
		capacity = 1
	}
	return &TypedBus{
		channels: make(map[reflect.Type]any),
		capacity: capacity,
	}
}

// TypedStats is a point-in-time snapshot of one element type's counters.
// Received is reserved: no delivery path increments it yet.
type TypedStats struct {
	Published   uint64
	Received    uint64
	Subscribers uint64
}

// Stats returns per-type snapshots keyed by element type name.
func (b *TypedBus) Stats() map[string]TypedStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]TypedStats, len(b.channels))
	for key, raw := range b.channels {
		out[key.String()] = raw.(typedCounters).stats()
	}
	return out
}

// Publish sends event to the queue for its type, blocking while the queue
// is full. It fails with channel.ErrDisconnected only when every receiving
// handle has been dropped; it is not retried automatically.
func Publish[E any](b *TypedBus, event E) error {
	tc := typedChannelFor[E](b)
	if err := tc.tx.Send(event); err != nil {
		return err
	}
	atomic.AddUint64(&tc.published, 1)
	return nil
}

// TryPublish sends without blocking, distinguishing a full queue
// (channel.ErrFull) from a disconnected one (channel.ErrDisconnected).
func TryPublish[E any](b *TypedBus, event E) error {
	tc := typedChannelFor[E](b)
	if err := tc.tx.TrySend(event); err != nil {
		return err
	}
	atomic.AddUint64(&tc.published, 1)
	return nil
}

// Subscribe returns a competing receiver on the E queue.
func Subscribe[E any](b *TypedBus) *channel.Receiver[E] {
	tc := typedChannelFor[E](b)
	atomic.AddUint64(&tc.subscribers, 1)
	return tc.rx.Clone()
}

// Recv takes the next E message using the bus's own receiving handle,
// competing with subscribed receivers.
func Recv[E any](b *TypedBus) (E, error) {
	return typedChannelFor[E](b).rx.Recv()
}

// TryRecv takes a pending E message without blocking, distinguishing an
// empty queue (channel.ErrEmpty) from a disconnected one.
func TryRecv[E any](b *TypedBus) (E, error) {
	return typedChannelFor[E](b).rx.TryRecv()
}

// typedChannel is one element type's queue plus counters. The bus keeps
// both handles alive for its lifetime, so the queue outlives any
// individual subscriber.
type typedChannel[E any] struct {
	tx          *channel.Sender[E]
	rx          *channel.Receiver[E]
	published   uint64
	received    uint64
	subscribers uint64
}

type typedCounters interface {
	stats() TypedStats
}

func (tc *typedChannel[E]) stats() TypedStats {
	return TypedStats{
		Published:   atomic.LoadUint64(&tc.published),
		Received:    atomic.LoadUint64(&tc.received),
		Subscribers: atomic.LoadUint64(&tc.subscribers),
	}
}

// typedChannelFor returns the queue for E, creating it on first use.
// Racing callers agree on a single winner. An entry that fails the type
// assertion is a corrupted registry, which is a programming error and
// aborts.
func typedChannelFor[E any](b *TypedBus) *typedChannel[E] {
	key := reflect.TypeOf((*E)(nil)).Elem()
	b.mu.RLock()
	raw, ok := b.channels[key]
	b.mu.RUnlock()
	if !ok {
		b.mu.Lock()
		raw, ok = b.channels[key]
		if !ok {
			tx, rx := channel.Bounded[E](b.capacity)
			raw = &typedChannel[E]{tx: tx, rx: rx}
			b.channels[key] = raw
		}
		b.mu.Unlock()
	}
	tc, ok := raw.(*typedChannel[E])
	if !ok {
		panic(fmt.Sprintf("type mismatch in channel registry, key: %s", key))
	}
	return tc
}
