// Package tokenrefresh recovers API calls that fail because the session token
// expired.
//
// A Coordinator is installed as the apiclient interceptor. Every failed
// response is classified:
//
//   - not a 401: passed through unchanged;
//   - 401 with the expired code ("token.expired" by default): recoverable;
//   - any other 401: terminal.
//
// Recoverable failures join a single refresh call keyed by the token they
// were sent with (golang.org/x/sync/singleflight). Exactly one POST to the
// refresh path is in flight at a time; the other failures wait for it. On
// success both tokens are written to the cookie store, the client's bearer is
// replaced and every waiting request is replayed once with the new token. On
// failure every waiting request fails with ErrSessionTerminated and the
// terminated handler runs once. Requests that were sent with an older token
// than the current one are replayed without a refresh.
//
// Requests flagged SkipIntercept, and requests to the refresh path, never
// enter the coordinator.
//
// # Usage
//
//	client, _ := apiclient.New(apiURL, apiclient.WithTokenFrom(jar, tokenrefresh.DefaultTokenCookie))
//	coord := tokenrefresh.New(client, jar,
//	    tokenrefresh.WithLogger(log),
//	    tokenrefresh.WithOnTerminated(func(ctx context.Context) { _ = provider.SignOut(ctx, false) }),
//	)
//	client.Use(coord)
//
// # Metrics
//
// NewMetrics creates Prometheus collectors and registers them with the given
// registerer; pass the result with WithMetrics.
//
// # Error Handling
//
// Unrecoverable requests return an error matching ErrSessionTerminated and the
// underlying cause. Refresh failures caused by a missing refresh cookie or a
// malformed refresh response also match ErrNoRefreshToken or
// ErrInvalidRefreshResponse.
package tokenrefresh
