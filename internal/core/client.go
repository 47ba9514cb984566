package core

import (
	"context"
	"sync"
)

const defaultOutboundBuffer = 32

// Client is the addressable endpoint of one connection.
// The connection driver owns it; the registry only keeps a pointer by name.
type Client struct {
	ID         string
	RemoteAddr string

	outbound  chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewClient constructs a client with an outbound queue of the given size.
func NewClient(id, remoteAddr string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultOutboundBuffer
	}
	return &Client{
		ID:         id,
		RemoteAddr: remoteAddr,
		outbound:   make(chan []byte, buffer),
		done:       make(chan struct{}),
	}
}

// Outbound exposes encoded payloads waiting to be written to the connection.
func (c *Client) Outbound() <-chan []byte {
	return c.outbound
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Deliver enqueues a payload without blocking.
// Returns false if the queue is full or the client is closed.
func (c *Client) Deliver(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.outbound <- payload:
		return true
	case <-c.done:
		return false
	default:
		// Drop if slow consumer.
		return false
	}
}

// Send enqueues a payload, waiting for room in the queue.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	select {
	case <-c.done:
		return ErrClientClosed
	default:
	}

	select {
	case c.outbound <- payload:
		return nil
	case <-c.done:
		return ErrClientClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close marks the client as gone. Safe to call more than once.
// The outbound channel is never closed so concurrent Deliver calls cannot panic.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
