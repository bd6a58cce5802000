package tokenrefresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/sessionkit/pkg/apiclient"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/statemachine"
)

// Sender is the part of *apiclient.Client the coordinator needs: a raw round
// trip that bypasses interception, and the shared session headers.
type Sender interface {
	Send(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error)
	Headers() *apiclient.Headers
}

// TerminatedFunc is called once per unrecoverable session, after which the
// session is expected to be signed out.
type TerminatedFunc func(ctx context.Context)

// Coordinator intercepts API responses, refreshes expired session tokens
// with a single in-flight refresh call and replays the requests that failed
// while it ran.
type Coordinator struct {
	client  Sender
	store   cookie.Store
	cfg     Config
	logger  *slog.Logger
	metrics *Metrics
	machine *statemachine.Machine[State, Event]

	group     singleflight.Group
	refreshMu sync.Mutex
	waiting   atomic.Int64

	mu           sync.Mutex
	deadToken    string
	hasDead      bool
	onTerminated TerminatedFunc
}

// Option configures a Coordinator.
type Option func(*Coordinator)

func WithConfig(cfg Config) Option {
	return func(c *Coordinator) {
		c.cfg = cfg.withDefaults()
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// WithOnTerminated sets the handler fired when the session cannot be recovered.
func WithOnTerminated(fn TerminatedFunc) Option {
	return func(c *Coordinator) {
		c.onTerminated = fn
	}
}

// New creates a coordinator that reads and writes tokens in store and sends
// refresh calls through client.
func New(client Sender, store cookie.Store, opts ...Option) *Coordinator {
	c := &Coordinator{
		client:  client,
		store:   store,
		cfg:     DefaultConfig(),
		logger:  logger.Discard(),
		machine: newMachine(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(logger.Component("tokenrefresh"))
	return c
}

// OnTerminated replaces the handler fired when the session cannot be
// recovered.
func (c *Coordinator) OnTerminated(fn TerminatedFunc) {
	c.mu.Lock()
	c.onTerminated = fn
	c.mu.Unlock()
}

// State returns StateRefreshing while a refresh call is in flight and
// StateNormal otherwise.
func (c *Coordinator) State() State {
	return c.machine.Current()
}

// Waiting returns the number of requests currently waiting on a refresh.
func (c *Coordinator) Waiting() int {
	return int(c.waiting.Load())
}

// Intercept implements apiclient.Interceptor.
func (c *Coordinator) Intercept(ctx context.Context, req *apiclient.Request, resp *apiclient.Response, err error) (*apiclient.Response, error) {
	if err == nil || req == nil || req.SkipIntercept || c.isRefreshCall(req) {
		return resp, err
	}

	switch Classify(err, c.cfg.ExpiredCode) {
	case StateRecoverable:
		return c.recover(ctx, req, err)
	case StateTerminal:
		if sent := req.SentWith(); sent != "" && c.markDead(sent) {
			c.logger.InfoContext(ctx, "session rejected",
				logger.Method(req.Method),
				logger.Path(req.Path),
				logger.Error(err),
			)
			c.terminate(ctx)
		}
		return nil, errors.Join(ErrSessionTerminated, err)
	default:
		return resp, err
	}
}

func (c *Coordinator) recover(ctx context.Context, req *apiclient.Request, cause error) (*apiclient.Response, error) {
	sent := req.SentWith()
	current := c.client.Headers().Bearer()

	switch {
	case current == "":
		return nil, errors.Join(ErrSessionTerminated, cause)
	case current != sent:
		// A refresh landed after this request was sent.
		return c.replay(ctx, req)
	case c.isDead(sent):
		return nil, errors.Join(ErrSessionTerminated, cause)
	}

	c.metrics.setWaiting(c.waiting.Add(1))
	ch := c.group.DoChan(sent, func() (any, error) {
		return c.refresh(context.WithoutCancel(ctx), sent)
	})

	select {
	case res := <-ch:
		c.metrics.setWaiting(c.waiting.Add(-1))
		if res.Err != nil {
			return nil, errors.Join(ErrSessionTerminated, res.Err)
		}
		return c.replay(ctx, req)
	case <-ctx.Done():
		c.metrics.setWaiting(c.waiting.Add(-1))
		return nil, ctx.Err()
	}
}

// refresh runs at most once per stale token. It re-checks the headers first
// since a previous flight may have completed between the caller's check and
// joining the group.
func (c *Coordinator) refresh(ctx context.Context, stale string) (*oauth2.Token, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.client.Headers().Bearer(); current != stale {
		if current == "" {
			return nil, ErrSessionTerminated
		}
		return &oauth2.Token{AccessToken: current}, nil
	}
	if c.isDead(stale) {
		return nil, ErrSessionTerminated
	}

	if err := c.machine.Fire(ctx, EventRefreshStarted, nil); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.RefreshTimeout)
	defer cancel()

	tok, err := c.exchange(ctx)
	if err == nil {
		err = c.persist(tok)
	}
	if err != nil {
		c.markDead(stale)
		_ = c.machine.Fire(ctx, EventRefreshFailed, nil)
		c.metrics.refreshResult("failure")
		c.logger.WarnContext(ctx, "token refresh failed",
			logger.State(string(StateTerminal)),
			logger.Error(err),
		)
		c.terminate(ctx)
		return nil, err
	}

	c.client.Headers().SetToken(tok)
	_ = c.machine.Fire(ctx, EventRefreshSucceeded, nil)
	c.metrics.refreshResult("success")
	c.logger.DebugContext(ctx, "token refreshed", logger.Count(c.Waiting()))
	return tok, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

func (c *Coordinator) exchange(ctx context.Context) (*oauth2.Token, error) {
	refreshToken, err := c.store.Get(c.cfg.RefreshCookie)
	if err != nil || refreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	resp, err := c.client.Send(ctx, &apiclient.Request{
		Method:        http.MethodPost,
		Path:          c.cfg.RefreshPath,
		Body:          refreshRequest{RefreshToken: refreshToken},
		SkipIntercept: true,
	})
	if err != nil {
		return nil, err
	}

	var body refreshResponse
	if err := resp.Decode(&body); err != nil {
		return nil, errors.Join(ErrInvalidRefreshResponse, err)
	}
	if body.Token == "" {
		return nil, ErrInvalidRefreshResponse
	}
	if body.RefreshToken == "" {
		body.RefreshToken = refreshToken
	}

	return &oauth2.Token{
		AccessToken:  body.Token,
		RefreshToken: body.RefreshToken,
		TokenType:    "Bearer",
	}, nil
}

func (c *Coordinator) persist(tok *oauth2.Token) error {
	opts := []cookie.Option{
		cookie.WithMaxAge(int(c.cfg.CookieMaxAge.Seconds())),
		cookie.WithPath(c.cfg.CookiePath),
	}
	if err := c.store.Set(c.cfg.TokenCookie, tok.AccessToken, opts...); err != nil {
		return err
	}
	return c.store.Set(c.cfg.RefreshCookie, tok.RefreshToken, opts...)
}

func (c *Coordinator) replay(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error) {
	c.metrics.replayed()
	return c.client.Send(ctx, req)
}

func (c *Coordinator) terminate(ctx context.Context) {
	c.mu.Lock()
	fn := c.onTerminated
	c.mu.Unlock()

	if fn != nil {
		fn(context.WithoutCancel(ctx))
	}
}

// markDead records token as unrecoverable. It reports whether the token was
// not already recorded.
func (c *Coordinator) markDead(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasDead && c.deadToken == token {
		return false
	}
	c.deadToken, c.hasDead = token, true
	return true
}

func (c *Coordinator) isDead(token string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasDead && c.deadToken == token
}

func (c *Coordinator) isRefreshCall(req *apiclient.Request) bool {
	path, _, _ := strings.Cut(req.Path, "?")
	return strings.Trim(path, "/") == strings.Trim(c.cfg.RefreshPath, "/")
}
