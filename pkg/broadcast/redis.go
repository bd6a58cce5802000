package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBroadcaster delivers messages through a Redis Pub/Sub channel, so
// subscribers in different processes receive each other's broadcasts.
// Messages are JSON encoded; T must round-trip through encoding/json.
type RedisBroadcaster[T any] struct {
	client     redis.UniversalClient
	channel    string
	bufferSize int

	mu     sync.Mutex
	subs   map[*subscriber[T]]struct{}
	closed bool
	wg     sync.WaitGroup
}

var _ Broadcaster[string] = (*RedisBroadcaster[string])(nil)

// NewRedisBroadcaster creates a broadcaster on the named Pub/Sub channel.
func NewRedisBroadcaster[T any](client redis.UniversalClient, channel string, bufferSize int) *RedisBroadcaster[T] {
	return &RedisBroadcaster[T]{
		client:     client,
		channel:    channel,
		bufferSize: max(bufferSize, 1),
		subs:       make(map[*subscriber[T]]struct{}),
	}
}

// Subscribe waits for Redis to confirm the subscription before returning,
// so a broadcast issued afterwards is guaranteed to be delivered. When the
// subscription cannot be established a closed subscriber is returned.
func (b *RedisBroadcaster[T]) Subscribe(ctx context.Context) Subscriber[T] {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return newClosedSubscriber[T]()
	}

	ps := b.client.Subscribe(ctx, b.channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return newClosedSubscriber[T]()
	}

	sub := newSubscriber[T](b.bufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = ps.Close()
		_ = sub.Close()
		return sub
	}
	b.subs[sub] = struct{}{}
	b.wg.Add(1)
	b.mu.Unlock()

	go b.forward(ctx, ps, sub)
	return sub
}

func (b *RedisBroadcaster[T]) forward(ctx context.Context, ps *redis.PubSub, sub *subscriber[T]) {
	defer b.wg.Done()
	defer func() {
		_ = ps.Close()
		b.mu.Lock()
		delete(b.subs, sub)
		b.mu.Unlock()
		_ = sub.Close()
	}()

	ch := ps.Channel()
	for {
		select {
		case m, ok := <-ch:
			if !ok {
				return
			}
			var msg Message[T]
			if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
				continue
			}
			// Full buffers drop the message; the subscriber stays.
			sub.send(msg)
		case <-sub.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (b *RedisBroadcaster[T]) Broadcast(ctx context.Context, msg Message[T]) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return nil
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncodeMessage, err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close closes every subscriber and waits for their forwarders to exit.
// The Redis client itself is owned by the caller.
func (b *RedisBroadcaster[T]) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := make([]*subscriber[T], 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		_ = sub.Close()
	}
	b.wg.Wait()
	return nil
}
