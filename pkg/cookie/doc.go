// Package cookie provides the credential store used to persist session and
// refresh tokens on the client side.
//
// The Store interface mirrors what a browser offers a page: Get, Set with
// path and max age, and Delete. Two implementations are provided:
//
//   - Jar keeps values in an RFC 6265 cookie jar (net/http/cookiejar with the
//     golang.org/x/net/publicsuffix list) scoped to one origin. Expiry is
//     enforced by the jar, and the jar can back an http.Client via HTTPJar.
//   - RedisStore keeps values in Redis under "<namespace>:<name>" with the max
//     age mapped to the key TTL, so separate processes share one session.
//
// # Usage
//
//	jar, err := cookie.NewJar("http://localhost:3000")
//	if err != nil { log.Fatal(err) }
//
//	_ = jar.Set("nextauth.token", token, cookie.WithMaxAge(60*60*24*30), cookie.WithPath("/"))
//	token, err := jar.Get("nextauth.token")
//	_ = jar.Delete("nextauth.token")
//
// # Configuration
//
// Config can be populated with github.com/caarlos0/env:
//
//	cfg := cookie.DefaultConfig()
//	_ = env.Parse(&cfg)
//	jar, _ := cookie.NewJarFromConfig(cfg)
//
// # Error Handling
//
// Missing or expired values return ErrCookieNotFound; compare with errors.Is.
// Empty names return ErrEmptyName. Secure cookies are not readable through a
// jar scoped to an http origin.
package cookie
