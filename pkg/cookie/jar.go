package cookie

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"
)

// Jar is an in-process Store scoped to one origin, backed by an RFC 6265
// cookie jar. Expiry and path matching are enforced by the jar.
// Several tabs in one process share a single *Jar.
type Jar struct {
	jar      *cookiejar.Jar
	origin   *url.URL
	defaults Options
}

var _ Store = (*Jar)(nil)

// NewJar creates a jar for origin (scheme and host, e.g. "http://localhost:3000").
func NewJar(origin string, opts ...Option) (*Jar, error) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOrigin, origin)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	return &Jar{
		jar:      jar,
		origin:   &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"},
		defaults: applyOptions(defaultOptions(), opts),
	}, nil
}

// Get returns the value visible at the default path.
func (j *Jar) Get(name string) (string, error) {
	if name == "" {
		return "", ErrEmptyName
	}

	for _, c := range j.jar.Cookies(j.urlFor(j.defaults.Path)) {
		if c.Name == name {
			return c.Value, nil
		}
	}
	return "", ErrCookieNotFound
}

func (j *Jar) Set(name, value string, opts ...Option) error {
	if name == "" {
		return ErrEmptyName
	}

	options := applyOptions(j.defaults, opts)
	j.jar.SetCookies(j.urlFor(options.Path), []*http.Cookie{options.cookie(name, value)})
	return nil
}

func (j *Jar) Delete(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	options := applyOptions(j.defaults, []Option{WithMaxAge(-1)})
	j.jar.SetCookies(j.urlFor(options.Path), []*http.Cookie{options.cookie(name, "")})
	return nil
}

// HTTPJar exposes the underlying jar so an http.Client can share it.
func (j *Jar) HTTPJar() http.CookieJar {
	return j.jar
}

// Origin returns the origin the jar is scoped to.
func (j *Jar) Origin() string {
	return j.origin.Scheme + "://" + j.origin.Host
}

func (j *Jar) urlFor(path string) *url.URL {
	u := *j.origin
	if path != "" {
		u.Path = path
	}
	return &u
}
