package apiclient

import (
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// Headers is the session context shared by every request a Client sends:
// the current bearer token and a set of static default headers. Each request
// takes a snapshot at send time, so updates are visible to the next call.
type Headers struct {
	mu     sync.RWMutex
	bearer string
	static http.Header
}

func NewHeaders() *Headers {
	return &Headers{static: make(http.Header)}
}

// Bearer returns the current access token, or "".
func (h *Headers) Bearer() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.bearer
}

func (h *Headers) SetBearer(token string) {
	h.mu.Lock()
	h.bearer = token
	h.mu.Unlock()
}

// SetToken installs the access token of tok. A nil token clears the bearer.
func (h *Headers) SetToken(tok *oauth2.Token) {
	if tok == nil {
		h.ClearBearer()
		return
	}
	h.SetBearer(tok.AccessToken)
}

func (h *Headers) ClearBearer() {
	h.SetBearer("")
}

// Authorization returns the Authorization header value that the next request
// will carry, or "" when no token is set.
func (h *Headers) Authorization() string {
	token := h.Bearer()
	if token == "" {
		return ""
	}
	tok := &oauth2.Token{AccessToken: token}
	return tok.Type() + " " + tok.AccessToken
}

func (h *Headers) Set(key, value string) {
	h.mu.Lock()
	h.static.Set(key, value)
	h.mu.Unlock()
}

func (h *Headers) Get(key string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.static.Get(key)
}

func (h *Headers) Del(key string) {
	h.mu.Lock()
	h.static.Del(key)
	h.mu.Unlock()
}

// apply copies the static headers onto req and sets the Authorization
// header. It returns the bearer token used.
func (h *Headers) apply(req *http.Request) string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for k, vs := range h.static {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if h.bearer != "" {
		(&oauth2.Token{AccessToken: h.bearer}).SetAuthHeader(req)
	}
	return h.bearer
}
