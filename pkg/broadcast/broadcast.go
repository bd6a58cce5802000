package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
// Source identifies the sender so receivers can skip their own messages.
type Message[T any] struct {
	Data   T      `json:"data"`
	Source string `json:"source,omitempty"`
}

// Subscriber receives messages from a Broadcaster.
// Implementations must be safe for concurrent use.
type Subscriber[T any] interface {
	// Receive returns a channel for receiving broadcast messages.
	// The channel is closed when the subscriber is closed.
	Receive(ctx context.Context) <-chan Message[T]

	// Close releases the subscription. It is idempotent.
	Close() error
}

// Broadcaster sends messages to multiple subscribers.
// Implementations drop messages for slow consumers rather than block.
type Broadcaster[T any] interface {
	// Subscribe creates a subscriber that receives every message broadcast
	// after it was created. Cancelling ctx closes the subscription.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast sends msg to all active subscribers.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close shuts down the broadcaster and closes all subscribers.
	// After Close, Subscribe returns closed subscribers and Broadcast is a no-op.
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	done   chan struct{}
	closed bool
	mu     sync.RWMutex
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch:   make(chan Message[T], bufferSize),
		done: make(chan struct{}),
	}
}

func newClosedSubscriber[T any]() *subscriber[T] {
	sub := newSubscriber[T](1)
	_ = sub.Close()
	return sub
}

func (s *subscriber[T]) Receive(ctx context.Context) <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		close(s.ch)
		close(s.done)
		s.closed = true
	}
	return nil
}

// send delivers msg without blocking. It reports false when the buffer is
// full or the subscriber is closed.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
