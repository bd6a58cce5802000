package cookie

import "net/http"

// DefaultNamespace prefixes RedisStore keys when no namespace is given.
const DefaultNamespace = "sessionkit"

// Config holds credential store configuration.
type Config struct {
	Origin    string        `env:"COOKIE_ORIGIN" envDefault:"http://localhost:3000"`
	Namespace string        `env:"COOKIE_NAMESPACE" envDefault:"sessionkit"`
	Path      string        `env:"COOKIE_PATH" envDefault:"/"`
	Domain    string        `env:"COOKIE_DOMAIN" envDefault:""`
	MaxAge    int           `env:"COOKIE_MAX_AGE" envDefault:"2592000"` // 30 days
	Secure    bool          `env:"COOKIE_SECURE" envDefault:"false"`
	SameSite  http.SameSite `env:"COOKIE_SAME_SITE" envDefault:"2"` // 2 = SameSiteLaxMode
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Origin:    "http://localhost:3000",
		Namespace: DefaultNamespace,
		Path:      "/",
		MaxAge:    60 * 60 * 24 * 30,
		SameSite:  http.SameSiteLaxMode,
	}
}

// Options converts the non-zero config fields into store options.
func (c Config) Options() []Option {
	opts := make([]Option, 0, 5)
	if c.Path != "" {
		opts = append(opts, WithPath(c.Path))
	}
	if c.Domain != "" {
		opts = append(opts, WithDomain(c.Domain))
	}
	if c.MaxAge != 0 {
		opts = append(opts, WithMaxAge(c.MaxAge))
	}
	if c.Secure {
		opts = append(opts, WithSecure(true))
	}
	if c.SameSite != 0 {
		opts = append(opts, WithSameSite(c.SameSite))
	}
	return opts
}

// NewJarFromConfig creates a Jar for cfg.Origin with options taken from cfg.
func NewJarFromConfig(cfg Config, opts ...Option) (*Jar, error) {
	return NewJar(cfg.Origin, append(cfg.Options(), opts...)...)
}
