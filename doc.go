// Package sessionkit is a client-side session layer for applications that
// talk to a token-based session API.
//
// A Kit models one page context (a browser tab, a CLI process, a worker). It
// keeps the signed-in user, persists the session and refresh tokens in a
// credential store, refreshes expired tokens with a single in-flight call
// while queueing and replaying the requests that failed, and propagates
// sign-out to every other kit sharing the same store and broadcast bus.
//
// Key Features:
//
//   - Single-flight token refresh with queued replay (pkg/tokenrefresh)
//   - Explicit session context on the API client (pkg/apiclient)
//   - Cross-tab sign-out without broadcast loops (pkg/signout)
//   - Cookie jar or Redis credential store (pkg/cookie)
//   - In-memory or Redis Pub/Sub sign-out bus (pkg/broadcast)
//   - Environment configuration (pkg/config) and slog logging (pkg/logger)
//
// Basic Usage:
//
//	kit, err := sessionkit.NewFromEnv(ctx,
//		sessionkit.WithNavigator(session.NavigatorFunc(router.Push)),
//	)
//	if err != nil {
//		return err
//	}
//	defer kit.Close()
//
//	restored, err := kit.Start(ctx)
//	if err != nil {
//		return err
//	}
//	if user, _ := restored.Await(); user == nil {
//		_, err = kit.Provider.SignIn(ctx, session.Credentials{Email: email, Password: password})
//	}
//
//	resp, err := kit.Client.Get(ctx, "/me")
//
// Several tabs in one process share a store and a bus:
//
//	jar, _ := cookie.NewJar("http://localhost:3000")
//	bus := broadcast.NewMemoryBroadcaster[signout.Signal](16)
//	tabA, _ := sessionkit.New(cfg, sessionkit.WithStore(jar), sessionkit.WithBroadcaster(bus))
//	tabB, _ := sessionkit.New(cfg, sessionkit.WithStore(jar), sessionkit.WithBroadcaster(bus))
//
// Configuration:
//
// Config is read with github.com/caarlos0/env tags; see Config for variable
// names. Setting REDIS_URL switches NewFromEnv to a Redis-backed store and
// Pub/Sub channel.
package sessionkit
