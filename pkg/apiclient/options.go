package apiclient

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

const defaultTimeout = 30 * time.Second

type options struct {
	httpClient *http.Client
	logger     *slog.Logger
	headers    map[string]string
	store      cookie.Store
	tokenName  string
}

// Option configures a Client.
type Option func(*options)

// WithHTTPClient sets the underlying HTTP client. Timeouts of retried
// requests are those of this client.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithHeader adds a static default header sent on every request.
func WithHeader(key, value string) Option {
	return func(o *options) {
		if key != "" && value != "" {
			o.headers[key] = value
		}
	}
}

// WithTokenFrom reads the session token stored under name once, during
// construction, and installs it as the bearer.
func WithTokenFrom(store cookie.Store, name string) Option {
	return func(o *options) {
		o.store = store
		o.tokenName = name
	}
}

func defaultOptions() *options {
	return &options{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Discard(),
		headers:    make(map[string]string),
	}
}
