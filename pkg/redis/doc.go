// Package redis connects to the Redis server that lets separate processes
// share one client session: the cookie.RedisStore credential store and the
// broadcast.RedisBroadcaster sign-out channel both run on the client
// returned by Connect.
//
// # Usage
//
//	cfg := redis.Config{
//	    ConnectionURL:  "redis://localhost:6379/0",
//	    RetryAttempts:  3,
//	    RetryInterval:  2 * time.Second,
//	    ConnectTimeout: 10 * time.Second,
//	}
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	probe := redis.Healthcheck(client)
//	if err := probe(ctx); err != nil {
//	    // redis is not healthy
//	}
//
// # Errors
//
// Sentinel errors (ErrRedisNotReady, ErrFailedToParseRedisConnString, ...)
// are joined with the underlying go-redis error; compare with errors.Is.
package redis
