// Package async provides a generic Future for work started in the background,
// such as restoring a session while the caller renders a loading state.
//
// Async starts the supplied function in its own goroutine and returns a
// *Future immediately. Callers wait with Await, AwaitContext or
// AwaitWithTimeout, select on Done, or poll with IsComplete. Resolved builds a
// Future that is already complete, for code paths with nothing to wait for.
//
// # Usage
//
//	future := async.Async(ctx, token, func(ctx context.Context, token string) (*User, error) {
//	    return fetchProfile(ctx, token)
//	})
//
//	// render a loading indicator ...
//	user, err := future.AwaitContext(ctx)
//
// # Error Handling
//
// Await returns the error produced by the callback. AwaitContext returns
// ctx.Err() when the caller stops waiting, and AwaitWithTimeout returns
// ErrTimeout. Neither stops the running computation.
package async
