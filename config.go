package sessionkit

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/signout"
	"github.com/dmitrymomot/sessionkit/pkg/tokenrefresh"
)

// Config is the complete configuration of one page context.
type Config struct {
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"sessionkit"`

	// APIURL is the base URL of the remote session API.
	APIURL      string        `env:"API_URL" envDefault:"http://localhost:3333"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	TokenCookie   string        `env:"TOKEN_COOKIE" envDefault:"nextauth.token"`
	RefreshCookie string        `env:"REFRESH_COOKIE" envDefault:"nextauth.refreshToken"`
	TokenMaxAge   time.Duration `env:"TOKEN_MAX_AGE" envDefault:"720h"`

	SignInPath     string        `env:"SIGN_IN_PATH" envDefault:"/sessions"`
	MePath         string        `env:"ME_PATH" envDefault:"/me"`
	RefreshPath    string        `env:"REFRESH_PATH" envDefault:"/refresh"`
	ExpiredCode    string        `env:"TOKEN_EXPIRED_CODE" envDefault:"token.expired"`
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT" envDefault:"15s"`

	LandingPath string `env:"LANDING_PATH" envDefault:"/dashboard"`
	EntryPath   string `env:"ENTRY_PATH" envDefault:"/"`

	// ChannelName names the sign-out channel; with Redis it is the Pub/Sub
	// channel, prefixed with the cookie namespace.
	ChannelName string `env:"AUTH_CHANNEL" envDefault:"auth"`

	Cookie cookie.Config
	Redis  redis.Config
}

// DefaultConfig returns the configuration used when no environment is set.
func DefaultConfig() Config {
	s := session.DefaultConfig()
	r := tokenrefresh.DefaultConfig()
	return Config{
		AppEnv:         "development",
		ServiceName:    "sessionkit",
		APIURL:         "http://localhost:3333",
		HTTPTimeout:    30 * time.Second,
		TokenCookie:    s.TokenCookie,
		RefreshCookie:  s.RefreshCookie,
		TokenMaxAge:    s.CookieMaxAge,
		SignInPath:     s.SignInPath,
		MePath:         s.MePath,
		RefreshPath:    r.RefreshPath,
		ExpiredCode:    r.ExpiredCode,
		RefreshTimeout: r.RefreshTimeout,
		LandingPath:    s.LandingPath,
		EntryPath:      s.EntryPath,
		ChannelName:    signout.DefaultChannelName,
		Cookie:         cookie.DefaultConfig(),
	}
}

// LoadConfig reads Config from the environment (and a .env file when
// present). An empty prefix uses the process-wide cached loader.
func LoadConfig(prefix string) (Config, error) {
	var cfg Config
	if prefix == "" {
		err := config.Load(&cfg)
		return cfg, err
	}
	err := config.LoadWithPrefix(&cfg, prefix)
	return cfg, err
}

func (c Config) sessionConfig() session.Config {
	return session.Config{
		TokenCookie:   c.TokenCookie,
		RefreshCookie: c.RefreshCookie,
		CookieMaxAge:  c.TokenMaxAge,
		CookiePath:    c.cookiePath(),
		SignInPath:    c.SignInPath,
		MePath:        c.MePath,
		LandingPath:   c.LandingPath,
		EntryPath:     c.EntryPath,
	}
}

func (c Config) refreshConfig() tokenrefresh.Config {
	return tokenrefresh.Config{
		TokenCookie:    c.TokenCookie,
		RefreshCookie:  c.RefreshCookie,
		RefreshPath:    c.RefreshPath,
		ExpiredCode:    c.ExpiredCode,
		CookieMaxAge:   c.TokenMaxAge,
		CookiePath:     c.cookiePath(),
		RefreshTimeout: c.RefreshTimeout,
	}
}

func (c Config) cookiePath() string {
	if c.Cookie.Path == "" {
		return "/"
	}
	return c.Cookie.Path
}

func (c Config) channelKey() string {
	ns := c.Cookie.Namespace
	if ns == "" {
		ns = cookie.DefaultNamespace
	}
	return ns + ":" + c.ChannelName
}
