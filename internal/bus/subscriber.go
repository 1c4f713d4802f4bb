package bus

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/yanun0323/logs"

	"main/internal/schema"
)

var (
	ErrSubscriptionClosed = errors.New("subscription closed")
	ErrNoEvent            = errors.New("no event buffered")
)

// LaggedError reports how many envelopes were evicted from a slow
// subscriber's buffer since the previous receive.
type LaggedError struct {
	Count uint64
}

func (e *LaggedError) Error() string {
	return fmt.Sprintf("subscription lagged, skipped: %d", e.Count)
}

// Subscription is one listener on a dynamic bus event type. Each
// subscription buffers independently; when the buffer is full the oldest
// envelope is evicted and counted, and the next Recv surfaces the count as
// a LaggedError before newer envelopes are handed out.
type Subscription struct {
	bus       *EventBus
	f         *fanout
	eventType string
	ch        chan schema.Envelope
	lagged    uint64
	closed    uint32
}

// EventType returns the subscription key.
func (s *Subscription) EventType() string { return s.eventType }

// push delivers env without blocking the publisher. Called with the fanout
// read lock held.
func (s *Subscription) push(env schema.Envelope) {
	for {
		select {
		case s.ch <- env:
			return
		default:
		}
		select {
		case <-s.ch:
			atomic.AddUint64(&s.lagged, 1)
		default:
		}
	}
}

// Recv returns the next envelope. A lag signal is surfaced first when the
// subscriber fell behind; buffered envelopes remain readable after Close
// until drained.
func (s *Subscription) Recv(ctx context.Context) (schema.Envelope, error) {
	if n := atomic.SwapUint64(&s.lagged, 0); n > 0 {
		return schema.Envelope{}, &LaggedError{Count: n}
	}
	select {
	case env, ok := <-s.ch:
		if !ok {
			return schema.Envelope{}, ErrSubscriptionClosed
		}
		return env, nil
	case <-ctx.Done():
		return schema.Envelope{}, ctx.Err()
	}
}

// TryRecv returns a buffered envelope without blocking, or ErrNoEvent when
// nothing is pending.
func (s *Subscription) TryRecv() (schema.Envelope, error) {
	if n := atomic.SwapUint64(&s.lagged, 0); n > 0 {
		return schema.Envelope{}, &LaggedError{Count: n}
	}
	select {
	case env, ok := <-s.ch:
		if !ok {
			return schema.Envelope{}, ErrSubscriptionClosed
		}
		return env, nil
	default:
		return schema.Envelope{}, ErrNoEvent
	}
}

// Next returns the next envelope, absorbing lag signals with a warning
// instead of an error. It reports false on lag, closure, or context end,
// so callers cannot tell a missed batch from a finished stream here; use
// Recv when that distinction matters.
func (s *Subscription) Next(ctx context.Context) (schema.Envelope, bool) {
	env, err := s.Recv(ctx)
	if err != nil {
		var lag *LaggedError
		if errors.As(err, &lag) {
			logs.Warnf("subscription lagging, type: %s, skipped: %d", s.eventType, lag.Count)
		}
		return schema.Envelope{}, false
	}
	return env, true
}

// Resubscribe closes this subscription and returns a fresh one attached at
// the current stream tail, discarding backlog and lag state.
func (s *Subscription) Resubscribe() *Subscription {
	fresh := s.bus.Subscribe(s.eventType)
	s.Close()
	return fresh
}

// Close detaches the subscription from the bus. Idempotent.
func (s *Subscription) Close() {
	if !atomic.CompareAndSwapUint32(&s.closed, 0, 1) {
		return
	}
	s.f.detach(s)
	close(s.ch)
}
