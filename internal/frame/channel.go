// SPDX-License-Identifier: MIT
package frame

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrClosed is returned by Recv once the producer has closed the channel
	// and every queued frame has been received, and by Send after Close.
	ErrClosed = errors.New("frame channel closed")
	// ErrDisconnected is returned by Send once the consumer has gone away.
	ErrDisconnected = errors.New("frame consumer disconnected")
)

// Channel hands AudioFrames from a single producer to a single consumer.
//
// With dropOldest set the channel holds at most one frame and Send replaces
// an unconsumed frame with the new one, so a slow renderer always sees the
// freshest data. Without it the queue is unbounded and nothing is dropped.
// Send never blocks in either mode.
type Channel struct {
	mu           sync.Mutex
	queue        []AudioFrame
	dropOldest   bool
	closed       bool
	disconnected bool
	dropped      uint64

	// ready is signalled (non-blocking, capacity 1) whenever the queue or
	// the closed state changes, which wakes a consumer parked in Recv.
	ready chan struct{}
}

// NewChannel creates a Channel. See Channel for the meaning of dropOldest.
func NewChannel(dropOldest bool) *Channel {
	capacity := 1
	if !dropOldest {
		capacity = 16
	}
	return &Channel{
		queue:      make([]AudioFrame, 0, capacity),
		dropOldest: dropOldest,
		ready:      make(chan struct{}, 1),
	}
}

// Send enqueues f without blocking. It returns ErrDisconnected when the
// consumer is gone and ErrClosed after Close.
func (c *Channel) Send(f AudioFrame) error {
	c.mu.Lock()
	switch {
	case c.disconnected:
		c.mu.Unlock()
		return ErrDisconnected
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	}

	if c.dropOldest && len(c.queue) > 0 {
		c.queue[0] = f
		c.dropped++
	} else {
		c.queue = append(c.queue, f)
	}
	c.mu.Unlock()

	c.signal()
	return nil
}

// Recv blocks until a frame is available, the channel is closed, or ctx is
// done. Queued frames are still delivered after Close; ErrClosed is only
// returned once the queue has drained.
func (c *Channel) Recv(ctx context.Context) (AudioFrame, error) {
	for {
		c.mu.Lock()
		if len(c.queue) > 0 {
			f := c.queue[0]
			// Shift rather than reslice so the backing array does not
			// creep forward forever in unbounded mode.
			n := copy(c.queue, c.queue[1:])
			c.queue = c.queue[:n]
			c.mu.Unlock()
			return f, nil
		}
		if c.closed {
			c.mu.Unlock()
			return AudioFrame{}, ErrClosed
		}
		c.mu.Unlock()

		select {
		case <-c.ready:
		case <-ctx.Done():
			return AudioFrame{}, ctx.Err()
		}
	}
}

// Close marks the end of the stream. It is called by the producer and is
// idempotent.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.signal()
}

// Disconnect tells the producer that nobody is listening any more. Pending
// frames are discarded and later Sends fail with ErrDisconnected.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.disconnected = true
	c.queue = c.queue[:0]
	c.mu.Unlock()
}

// Len returns the number of queued frames.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Dropped returns how many frames were overwritten before being received.
func (c *Channel) Dropped() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// DropOldest reports whether the channel runs in latest-only mode.
func (c *Channel) DropOldest() bool {
	return c.dropOldest
}

func (c *Channel) signal() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}
