package greenrt

import (
	"errors"
	"sync"
)

// ErrClosed is returned by [Channel.Send] and [Channel.TrySend] when the
// channel has been closed. Sending on a closed channel indicates a bug in
// the producer, so it is surfaced at the call site rather than deferred.
var ErrClosed = errors.New("greenrt: send on closed channel")

// ErrFull is returned by [Channel.TrySend] when a bounded channel's buffer
// is full.
var ErrFull = errors.New("greenrt: channel buffer is full")

// ChannelID identifies a channel in the runtime registry used by the flat
// surface. IDs are monotonically increasing; zero is never a valid id.
type ChannelID uint64

// Channel is a FIFO queue shared by reference between tasks — the one
// runtime structure designed for concurrent multi-writer, multi-reader
// access. A bounded channel (capacity > 0) blocks senders while full,
// bounding memory use; an unbounded channel never blocks senders.
//
// Closing is explicit and idempotent. Once closed, receives drain the
// remaining buffered values and then report end-of-stream; a channel never
// becomes unusable merely because its senders are gone.
//
// Order is FIFO per sender; no ordering is guaranteed across concurrent
// senders.
type Channel[T any] struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	notFull  sync.Cond

	// Bounded: fixed ring of len capacity. Unbounded: growable slice,
	// compacted as the read index advances.
	buf      []T
	head     int
	count    int
	capacity int // 0 means unbounded

	closed bool
}

// NewChannel creates a channel. capacity > 0 gives a bounded ring buffer;
// capacity <= 0 gives an unbounded, growable buffer.
func NewChannel[T any](capacity int) *Channel[T] {
	c := &Channel[T]{}
	if capacity > 0 {
		c.capacity = capacity
		c.buf = make([]T, capacity)
	}
	c.notEmpty.L = &c.mu
	c.notFull.L = &c.mu
	return c
}

// Cap returns the channel's capacity, or 0 for an unbounded channel.
func (c *Channel[T]) Cap() int { return c.capacity }

// Len returns the number of buffered values.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Closed reports whether Close has been called.
func (c *Channel[T]) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Send appends v to the buffer. On a bounded channel it blocks while the
// buffer is full. It returns [ErrClosed] if the channel is closed, either
// on entry or while blocked waiting for space.
func (c *Channel[T]) Send(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.capacity > 0 && c.count == c.capacity && !c.closed {
		c.notFull.Wait()
	}
	if c.closed {
		return ErrClosed
	}

	c.put(v)
	c.notEmpty.Signal()
	return nil
}

// TrySend appends v without blocking. It returns [ErrClosed] if the
// channel is closed and [ErrFull] if a bounded buffer has no space.
func (c *Channel[T]) TrySend(v T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.capacity > 0 && c.count == c.capacity {
		return ErrFull
	}

	c.put(v)
	c.notEmpty.Signal()
	return nil
}

// Recv removes and returns the oldest buffered value. It blocks while the
// buffer is empty and the channel is open. After Close, Recv keeps
// returning buffered values until the buffer drains, then returns the zero
// value and false.
func (c *Channel[T]) Recv() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.count == 0 && !c.closed {
		c.notEmpty.Wait()
	}
	if c.count == 0 {
		var zero T
		return zero, false
	}

	v := c.take()
	c.notFull.Signal()
	return v, true
}

// Close marks the channel closed and wakes every blocked sender and
// receiver. It is idempotent.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.notEmpty.Broadcast()
	c.notFull.Broadcast()
}

// put appends under c.mu.
func (c *Channel[T]) put(v T) {
	if c.capacity > 0 {
		c.buf[(c.head+c.count)%c.capacity] = v
		c.count++
		return
	}
	c.buf = append(c.buf, v)
	c.count++
}

// take pops the oldest value under c.mu.
func (c *Channel[T]) take() T {
	var zero T
	if c.capacity > 0 {
		v := c.buf[c.head]
		c.buf[c.head] = zero
		c.head = (c.head + 1) % c.capacity
		c.count--
		return v
	}

	v := c.buf[c.head]
	c.buf[c.head] = zero
	c.head++
	c.count--
	// Compact once the dead prefix dominates, so an unbounded channel's
	// memory tracks its live contents.
	if c.head > 32 && c.head*2 >= len(c.buf) {
		c.buf = append(c.buf[:0], c.buf[c.head:]...)
		c.head = 0
	}
	return v
}
