package sessionkit

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/apiclient"
	"github.com/dmitrymomot/sessionkit/pkg/async"
	"github.com/dmitrymomot/sessionkit/pkg/broadcast"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/redis"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/signout"
	"github.com/dmitrymomot/sessionkit/pkg/tokenrefresh"
)

const busBufferSize = 16

type healthcheck func(context.Context) error

// Kit is one page context: an API client whose expired tokens are refreshed
// by a coordinator, and a session provider that shares sign-out with every
// other kit on the same store and bus.
type Kit struct {
	Store       cookie.Store
	Bus         broadcast.Broadcaster[signout.Signal]
	Client      *apiclient.Client
	Coordinator *tokenrefresh.Coordinator
	Provider    *session.Provider

	logger       *slog.Logger
	closers      []func() error
	healthchecks []healthcheck
}

// New wires a kit from cfg. Without WithStore a cookie jar for
// cfg.Cookie.Origin is created; without WithBroadcaster an in-memory bus is
// created and closed with the kit.
func New(cfg Config, opts ...Option) (*Kit, error) {
	o := &options{logger: logger.Discard()}
	for _, opt := range opts {
		opt(o)
	}

	k := &Kit{
		logger:       o.logger,
		closers:      o.closers,
		healthchecks: o.healthchecks,
	}

	k.Store = o.store
	if k.Store == nil {
		jar, err := cookie.NewJarFromConfig(cfg.Cookie)
		if err != nil {
			return nil, err
		}
		k.Store = jar
	}

	k.Bus = o.bus
	if k.Bus == nil {
		bus := broadcast.NewMemoryBroadcaster[signout.Signal](busBufferSize)
		k.Bus = bus
		k.closers = append(k.closers, bus.Close)
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}

	client, err := apiclient.New(cfg.APIURL,
		apiclient.WithHTTPClient(httpClient),
		apiclient.WithTokenFrom(k.Store, cfg.TokenCookie),
		apiclient.WithLogger(o.logger),
	)
	if err != nil {
		return nil, err
	}
	k.Client = client

	var metrics *tokenrefresh.Metrics
	if o.registerer != nil {
		if metrics, err = tokenrefresh.NewMetrics(o.registerer); err != nil {
			return nil, err
		}
	}

	k.Coordinator = tokenrefresh.New(client, k.Store,
		tokenrefresh.WithConfig(cfg.refreshConfig()),
		tokenrefresh.WithLogger(o.logger),
		tokenrefresh.WithMetrics(metrics),
	)
	client.Use(k.Coordinator)

	channelOpts := []signout.Option{signout.WithLogger(o.logger)}
	if o.tabID != "" {
		channelOpts = append(channelOpts, signout.WithTabID(o.tabID))
	}
	k.Provider = session.NewProvider(client, k.Store, k.Bus,
		session.WithConfig(cfg.sessionConfig()),
		session.WithNavigator(o.navigator),
		session.WithLogger(o.logger),
		session.WithChannelOptions(channelOpts...),
	)

	k.Coordinator.OnTerminated(func(ctx context.Context) {
		if err := k.Provider.SignOut(ctx, false); err != nil {
			k.logger.WarnContext(ctx, "sign-out after terminated session", logger.Error(err))
		}
	})

	return k, nil
}

// NewFromEnv loads Config from the environment and builds a kit. When
// REDIS_URL is set the credential store and the sign-out channel live in
// Redis so kits in different processes share one session.
func NewFromEnv(ctx context.Context, opts ...Option) (*Kit, error) {
	cfg, err := LoadConfig("")
	if err != nil {
		return nil, err
	}
	return newFromConfig(ctx, cfg, opts...)
}

func newFromConfig(ctx context.Context, cfg Config, opts ...Option) (*Kit, error) {
	log := logger.New(
		logger.WithEnvironment(cfg.AppEnv, cfg.ServiceName),
		logger.WithContextExtractors(signout.LoggerExtractor()),
	)
	base := []Option{WithLogger(log)}

	var owned []func() error
	if cfg.Redis.Enabled() {
		client, err := redis.Connect(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		bus := broadcast.NewRedisBroadcaster[signout.Signal](client, cfg.channelKey(), busBufferSize)
		owned = append(owned, bus.Close, client.Close)
		base = append(base,
			WithStore(cookie.NewRedisStore(client, cfg.Cookie.Namespace, cfg.Cookie.Options()...)),
			WithBroadcaster(bus),
			func(o *options) {
				o.closers = append(o.closers, owned...)
				o.healthchecks = append(o.healthchecks, redis.Healthcheck(client))
			},
		)
		log.InfoContext(ctx, "using redis for credentials and sign-out channel")
	}

	k, err := New(cfg, append(base, opts...)...)
	if err != nil {
		for _, c := range owned {
			_ = c()
		}
		return nil, err
	}
	return k, nil
}

// Start opens the sign-out channel and restores the session from the store.
func (k *Kit) Start(ctx context.Context) (*async.Future[*session.User], error) {
	return k.Provider.Start(ctx)
}

// Healthcheck pings the backing services, if any.
func (k *Kit) Healthcheck(ctx context.Context) error {
	var errs []error
	for _, check := range k.healthchecks {
		if err := check(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close releases the sign-out channel and every resource the kit owns.
func (k *Kit) Close() error {
	errs := []error{k.Provider.Close()}
	for _, c := range k.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
