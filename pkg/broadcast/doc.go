// Package broadcast provides type-safe one-to-many messaging used to tell
// every tab of an origin that the session ended.
//
// Broadcaster and Subscriber are generic over the payload type. Two
// implementations are provided:
//
//   - MemoryBroadcaster delivers to subscribers in the same process (several
//     tabs hosted by one program).
//   - RedisBroadcaster publishes JSON encoded messages on a Redis Pub/Sub
//     channel, so tabs in separate processes receive each other's messages.
//
// Message.Source carries the sender id; receivers use it to ignore their own
// broadcasts, matching same-origin broadcast channel semantics.
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[string](10)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[string]{Data: "signOut", Source: tabID})
//
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data)
//	}
//
// Subscriptions end when their context is cancelled, when Close is called on
// the subscriber or the broadcaster, and (for the memory implementation)
// when the subscriber's buffer overflows.
package broadcast
