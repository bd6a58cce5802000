package session

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/tokenrefresh"
)

// Config holds cookie names, API paths and navigation targets. Zero fields
// take their value from DefaultConfig.
type Config struct {
	// TokenCookie holds the session token (default: "nextauth.token")
	TokenCookie string
	// RefreshCookie holds the refresh token (default: "nextauth.refreshToken")
	RefreshCookie string

	CookieMaxAge time.Duration
	CookiePath   string

	SignInPath string
	MePath     string

	// LandingPath is visited after sign-in, EntryPath after sign-out.
	LandingPath string
	EntryPath   string
}

// DefaultConfig returns default provider configuration
func DefaultConfig() Config {
	return Config{
		TokenCookie:   tokenrefresh.DefaultTokenCookie,
		RefreshCookie: tokenrefresh.DefaultRefreshCookie,
		CookieMaxAge:  tokenrefresh.DefaultCookieMaxAge,
		CookiePath:    "/",
		SignInPath:    "/sessions",
		MePath:        "/me",
		LandingPath:   "/dashboard",
		EntryPath:     "/",
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TokenCookie == "" {
		c.TokenCookie = d.TokenCookie
	}
	if c.RefreshCookie == "" {
		c.RefreshCookie = d.RefreshCookie
	}
	if c.CookieMaxAge <= 0 {
		c.CookieMaxAge = d.CookieMaxAge
	}
	if c.CookiePath == "" {
		c.CookiePath = d.CookiePath
	}
	if c.SignInPath == "" {
		c.SignInPath = d.SignInPath
	}
	if c.MePath == "" {
		c.MePath = d.MePath
	}
	if c.LandingPath == "" {
		c.LandingPath = d.LandingPath
	}
	if c.EntryPath == "" {
		c.EntryPath = d.EntryPath
	}
	return c
}

func (c Config) cookieMaxAge() int {
	return int(c.CookieMaxAge.Seconds())
}
