package events

import "sync/atomic"

// Channel is an Observer backed by a buffered channel, for consumers that
// want to drain events on their own goroutine. Delivery never blocks the
// publisher: events that do not fit in the buffer are dropped and counted.
type Channel struct {
	ch      chan Event
	dropped atomic.Int64
}

// NewChannel creates a channel observer with the given buffer size.
func NewChannel(buffer int) *Channel {
	return &Channel{ch: make(chan Event, buffer)}
}

// OnChange attempts to enqueue the event without blocking.
func (c *Channel) OnChange(evt Event) {
	select {
	case c.ch <- evt:
	default:
		c.dropped.Add(1)
	}
}

// Events returns a read-only channel for consumers.
func (c *Channel) Events() <-chan Event { return c.ch }

// Dropped returns how many events did not fit in the buffer.
func (c *Channel) Dropped() int64 { return c.dropped.Load() }
