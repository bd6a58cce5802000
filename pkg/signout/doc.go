// Package signout propagates sign-out between tabs that share a session.
//
// Each tab opens one Channel over a broadcast.Broadcaster[Signal]. A
// MemoryBroadcaster connects tabs living in one process, a RedisBroadcaster
// connects tabs in different processes. AnnounceSignOut publishes the
// "signOut" signal tagged with the tab id; every other tab runs the handlers
// registered with OnSignOut. A tab never receives its own announcement, and
// payloads other than "signOut" are ignored.
//
// Receivers are expected to sign out locally without announcing again.
// Handlers run on their own goroutine; signals that arrive while they are
// busy collapse into one pending run. The context passed to handlers
// carries the tab id (TabIDFromContext), and LoggerExtractor adds it to log
// records.
//
// # Usage
//
//	bus := broadcast.NewMemoryBroadcaster[signout.Signal](16)
//	ch := signout.Open(ctx, bus)
//	defer ch.Close()
//
//	unregister := ch.OnSignOut(func(ctx context.Context) {
//	    _ = provider.SignOut(ctx, true)
//	})
//	defer unregister()
//
//	_ = ch.AnnounceSignOut(ctx)
package signout
