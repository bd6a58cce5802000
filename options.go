package sessionkit

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/sessionkit/pkg/broadcast"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/signout"
)

type options struct {
	store      cookie.Store
	bus        broadcast.Broadcaster[signout.Signal]
	navigator  session.Navigator
	logger     *slog.Logger
	httpClient *http.Client
	registerer prometheus.Registerer
	tabID      string

	closers      []func() error
	healthchecks []healthcheck
}

// Option configures a Kit.
type Option func(*options)

// WithStore shares a credential store between kits. Tabs of one origin
// must use the same store.
func WithStore(s cookie.Store) Option {
	return func(o *options) {
		if s != nil {
			o.store = s
		}
	}
}

// WithBroadcaster shares the sign-out bus between kits.
func WithBroadcaster(b broadcast.Broadcaster[signout.Signal]) Option {
	return func(o *options) {
		if b != nil {
			o.bus = b
		}
	}
}

func WithNavigator(n session.Navigator) Option {
	return func(o *options) {
		o.navigator = n
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithMetrics registers the token refresh metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

// WithTabID fixes the tab identifier used on the sign-out channel.
func WithTabID(id string) Option {
	return func(o *options) {
		o.tabID = id
	}
}
