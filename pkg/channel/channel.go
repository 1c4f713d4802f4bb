// Package channel provides a generic multi-producer multi-consumer queue
// with bounded and unbounded variants. Handles are cheap to clone and share
// the same underlying buffer; disconnection is tracked per side.
package channel

import (
	"errors"
	"sync"
)

var (
	// ErrDisconnected reports that the opposite side has no live handles
	// left, or that the handle itself was closed.
	ErrDisconnected = errors.New("channel disconnected")
	// ErrFull reports a bounded channel at capacity.
	ErrFull = errors.New("channel full")
	// ErrEmpty reports a channel with nothing buffered.
	ErrEmpty = errors.New("channel empty")
)

const unboundedInitialCapacity = 16

// core is the queue state shared by every handle of one channel.
type core[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      []T
	head     int
	size     int
	bounded  bool

	senders   int
	receivers int
}

func newCore[T any](capacity int, bounded bool) *core[T] {
	if capacity < 1 {
		capacity = 1
	}
	c := &core[T]{
		buf:       make([]T, capacity),
		bounded:   bounded,
		senders:   1,
		receivers: 1,
	}
	c.notEmpty = sync.NewCond(&c.mu)
	c.notFull = sync.NewCond(&c.mu)
	return c
}

// Bounded creates a channel holding at most capacity items. Send blocks
// while the buffer is full.
func Bounded[T any](capacity int) (*Sender[T], *Receiver[T]) {
	c := newCore[T](capacity, true)
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

// Unbounded creates a channel whose buffer grows as needed. Send never
// blocks on capacity.
func Unbounded[T any]() (*Sender[T], *Receiver[T]) {
	c := newCore[T](unboundedInitialCapacity, false)
	return &Sender[T]{c: c}, &Receiver[T]{c: c}
}

// caller holds mu and has verified there is room or the channel is unbounded.
func (c *core[T]) push(v T) {
	if c.size == len(c.buf) {
		c.grow()
	}
	c.buf[(c.head+c.size)%len(c.buf)] = v
	c.size++
	c.notEmpty.Signal()
}

// caller holds mu and has verified size > 0.
func (c *core[T]) pop() T {
	v := c.buf[c.head]
	var zero T
	c.buf[c.head] = zero
	c.head = (c.head + 1) % len(c.buf)
	c.size--
	c.notFull.Signal()
	return v
}

func (c *core[T]) grow() {
	next := make([]T, len(c.buf)*2)
	for i := 0; i < c.size; i++ {
		next[i] = c.buf[(c.head+i)%len(c.buf)]
	}
	c.buf = next
	c.head = 0
}

// Sender is the producing half of a channel.
type Sender[T any] struct {
	c      *core[T]
	closed bool
}

// Send enqueues v, blocking while a bounded channel is full. It fails with
// ErrDisconnected when every receiver handle is gone.
func (s *Sender[T]) Send(v T) error {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		if s.closed || c.receivers == 0 {
			return ErrDisconnected
		}
		if !c.bounded || c.size < len(c.buf) {
			c.push(v)
			return nil
		}
		c.notFull.Wait()
	}
}

// TrySend enqueues v without blocking. It fails with ErrFull when a bounded
// channel is at capacity and ErrDisconnected when every receiver is gone.
func (s *Sender[T]) TrySend(v T) error {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.closed || c.receivers == 0 {
		return ErrDisconnected
	}
	if c.bounded && c.size == len(c.buf) {
		return ErrFull
	}
	c.push(v)
	return nil
}

// Clone returns a new sender sharing the same buffer. Cloning a closed
// handle yields another closed handle.
func (s *Sender[T]) Clone() *Sender[T] {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.closed {
		return &Sender[T]{c: c, closed: true}
	}
	c.senders++
	return &Sender[T]{c: c}
}

// Close releases this handle. When the last sender closes, blocked
// receivers drain the remaining items and then observe ErrDisconnected.
func (s *Sender[T]) Close() {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	c.senders--
	c.notFull.Broadcast()
	if c.senders == 0 {
		c.notEmpty.Broadcast()
	}
}

// Len returns the number of buffered items.
func (s *Sender[T]) Len() int {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.size
}

// IsEmpty reports whether nothing is buffered.
func (s *Sender[T]) IsEmpty() bool { return s.Len() == 0 }

// Receiver is the consuming half of a channel.
type Receiver[T any] struct {
	c      *core[T]
	closed bool
}

// Recv dequeues the next item, blocking while the channel is empty. Items
// buffered before the last sender closed are still delivered; afterwards
// Recv fails with ErrDisconnected.
func (r *Receiver[T]) Recv() (T, error) {
	c := r.c
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	for {
		if r.closed {
			return zero, ErrDisconnected
		}
		if c.size > 0 {
			return c.pop(), nil
		}
		if c.senders == 0 {
			return zero, ErrDisconnected
		}
		c.notEmpty.Wait()
	}
}

// TryRecv dequeues without blocking. It fails with ErrEmpty when nothing is
// buffered and ErrDisconnected when the channel is empty with no senders
// left.
func (r *Receiver[T]) TryRecv() (T, error) {
	c := r.c
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	if r.closed {
		return zero, ErrDisconnected
	}
	if c.size > 0 {
		return c.pop(), nil
	}
	if c.senders == 0 {
		return zero, ErrDisconnected
	}
	return zero, ErrEmpty
}

// Clone returns a new receiver sharing the same buffer. Receivers compete:
// each item is delivered to exactly one of them.
func (r *Receiver[T]) Clone() *Receiver[T] {
	c := r.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.closed {
		return &Receiver[T]{c: c, closed: true}
	}
	c.receivers++
	return &Receiver[T]{c: c}
}

// Close releases this handle. When the last receiver closes, buffered items
// are discarded and blocked senders observe ErrDisconnected.
func (r *Receiver[T]) Close() {
	c := r.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	c.receivers--
	c.notEmpty.Broadcast()
	if c.receivers == 0 {
		var zero T
		for i := 0; i < c.size; i++ {
			c.buf[(c.head+i)%len(c.buf)] = zero
		}
		c.head = 0
		c.size = 0
		c.notFull.Broadcast()
	}
}

// Len returns the number of buffered items.
func (r *Receiver[T]) Len() int {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	return r.c.size
}

// IsEmpty reports whether nothing is buffered.
func (r *Receiver[T]) IsEmpty() bool { return r.Len() == 0 }
