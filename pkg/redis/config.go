package redis

import "time"

// Config describes how to reach the Redis server that backs a shared
// credential store and the cross-process sign-out channel.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`                          // "redis://:password@localhost:6379/0"; empty disables Redis
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
