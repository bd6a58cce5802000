package cookie

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store shared by processes that talk to the same Redis
// database. Keys are "<namespace>:<name>" and max age maps to key TTL.
// Paths are not part of the key.
type RedisStore struct {
	db        redis.UniversalClient
	namespace string
	defaults  Options
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore wraps client. An empty namespace defaults to "sessionkit".
func NewRedisStore(client redis.UniversalClient, namespace string, opts ...Option) *RedisStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisStore{
		db:        client,
		namespace: namespace,
		defaults:  applyOptions(defaultOptions(), opts),
	}
}

func (s *RedisStore) Get(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}

	val, err := s.db.Get(context.Background(), s.key(name)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCookieNotFound
	}
	return val, err
}

func (s *RedisStore) Set(name, value string, opts ...Option) error {
	if name == "" {
		return ErrEmptyName
	}

	options := applyOptions(s.defaults, opts)
	ctx := context.Background()

	switch {
	case options.MaxAge < 0:
		return s.db.Del(ctx, s.key(name)).Err()
	case options.MaxAge > 0:
		return s.db.Set(ctx, s.key(name), value, time.Duration(options.MaxAge)*time.Second).Err()
	default:
		return s.db.Set(ctx, s.key(name), value, 0).Err()
	}
}

func (s *RedisStore) Delete(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	return s.db.Del(context.Background(), s.key(name)).Err()
}

func (s *RedisStore) key(name string) string {
	return s.namespace + ":" + name
}
