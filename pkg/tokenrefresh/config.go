package tokenrefresh

import "time"

const (
	DefaultTokenCookie    = "nextauth.token"
	DefaultRefreshCookie  = "nextauth.refreshToken"
	DefaultRefreshPath    = "/refresh"
	DefaultExpiredCode    = "token.expired"
	DefaultCookieMaxAge   = 30 * 24 * time.Hour
	DefaultRefreshTimeout = 15 * time.Second
)

// Config controls where tokens live and how the refresh call is made. Zero
// fields take their value from DefaultConfig.
type Config struct {
	TokenCookie    string
	RefreshCookie  string
	RefreshPath    string
	ExpiredCode    string
	CookieMaxAge   time.Duration
	CookiePath     string
	RefreshTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		TokenCookie:    DefaultTokenCookie,
		RefreshCookie:  DefaultRefreshCookie,
		RefreshPath:    DefaultRefreshPath,
		ExpiredCode:    DefaultExpiredCode,
		CookieMaxAge:   DefaultCookieMaxAge,
		CookiePath:     "/",
		RefreshTimeout: DefaultRefreshTimeout,
	}
}

// withDefaults fills zero fields from DefaultConfig.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TokenCookie == "" {
		c.TokenCookie = d.TokenCookie
	}
	if c.RefreshCookie == "" {
		c.RefreshCookie = d.RefreshCookie
	}
	if c.RefreshPath == "" {
		c.RefreshPath = d.RefreshPath
	}
	if c.ExpiredCode == "" {
		c.ExpiredCode = d.ExpiredCode
	}
	if c.CookieMaxAge <= 0 {
		c.CookieMaxAge = d.CookieMaxAge
	}
	if c.CookiePath == "" {
		c.CookiePath = d.CookiePath
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = d.RefreshTimeout
	}
	return c
}
