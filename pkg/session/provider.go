package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"golang.org/x/oauth2"

	"github.com/dmitrymomot/sessionkit/pkg/apiclient"
	"github.com/dmitrymomot/sessionkit/pkg/async"
	"github.com/dmitrymomot/sessionkit/pkg/broadcast"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/signout"
	"github.com/dmitrymomot/sessionkit/pkg/tokenrefresh"
)

// API is the part of *apiclient.Client the provider uses.
type API interface {
	Do(ctx context.Context, req *apiclient.Request) (*apiclient.Response, error)
	Headers() *apiclient.Headers
}

// Credentials are the email and password sent to the sign-in endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Provider owns the signed-in user of one page context. It signs in and
// out, restores the user from a stored token on Start, and keeps other tabs
// in step through the sign-out channel.
type Provider struct {
	api         API
	store       cookie.Store
	bus         broadcast.Broadcaster[signout.Signal]
	cfg         Config
	navigator   Navigator
	logger      *slog.Logger
	channelOpts []signout.Option

	mu         sync.RWMutex
	user       *User
	channel    *signout.Channel
	unregister func()
}

// NewProvider creates a provider. Call Start before use and Close when done.
func NewProvider(api API, store cookie.Store, bus broadcast.Broadcaster[signout.Signal], opts ...Option) *Provider {
	p := &Provider{
		api:       api,
		store:     store,
		bus:       bus,
		cfg:       DefaultConfig(),
		navigator: noopNavigator{},
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With(logger.Component("session"))
	return p
}

// Start opens the sign-out channel and restores the user when a session
// token is stored. The returned future resolves to the restored user, or to
// nil when there was nothing to restore or restoring failed; a failed
// restore signs the session out.
func (p *Provider) Start(ctx context.Context) (*async.Future[*User], error) {
	p.mu.Lock()
	if p.channel != nil {
		p.mu.Unlock()
		return nil, ErrAlreadyStarted
	}
	ch := signout.Open(context.WithoutCancel(ctx), p.bus, p.channelOpts...)
	p.channel = ch
	p.unregister = ch.OnSignOut(func(ctx context.Context) {
		if err := p.SignOut(ctx, true); err != nil {
			p.logger.WarnContext(ctx, "remote sign-out failed", logger.Error(err))
		}
	})
	p.mu.Unlock()

	token, err := p.store.Get(p.cfg.TokenCookie)
	if err != nil || token == "" {
		return async.Resolved[*User](nil, nil), nil
	}

	return async.Async(ctx, token, p.rehydrate), nil
}

func (p *Provider) rehydrate(ctx context.Context, token string) (*User, error) {
	ctx = p.tabContext(ctx)

	// The cookie may have been written after the client captured its bearer.
	if headers := p.api.Headers(); headers.Bearer() != token {
		headers.SetBearer(token)
	}

	resp, err := p.api.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: p.cfg.MePath})

	var user User
	if err == nil {
		err = resp.Decode(&user)
	}
	if err != nil {
		p.logger.InfoContext(ctx, "session restore failed", logger.Error(err))
		// The coordinator signs out on its own when it gives up.
		if !errors.Is(err, tokenrefresh.ErrSessionTerminated) {
			if soErr := p.SignOut(ctx, false); soErr != nil {
				p.logger.WarnContext(ctx, "sign-out after failed restore", logger.Error(soErr))
			}
		}
		return nil, nil
	}

	u := NewUser(user.Email, user.Permissions, user.Roles)
	p.setUser(u)
	p.logger.DebugContext(ctx, "session restored", logger.Email(u.Email))
	return u.Clone(), nil
}

type signInResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	Permissions  []string `json:"permissions"`
	Roles        []string `json:"roles"`
}

// SignIn exchanges credentials for a token pair, stores both tokens, installs
// the bearer and sets the user. On failure nothing is changed and the error
// matches ErrInvalidCredentials, ErrNetwork or ErrSignInFailed.
func (p *Provider) SignIn(ctx context.Context, creds Credentials) (*User, error) {
	ctx = p.tabContext(ctx)
	resp, err := p.api.Do(ctx, &apiclient.Request{
		Method:        http.MethodPost,
		Path:          p.cfg.SignInPath,
		Body:          creds,
		SkipIntercept: true,
	})

	var body signInResponse
	if err == nil {
		err = resp.Decode(&body)
		if err == nil && body.Token == "" {
			err = errors.New("empty token in sign-in response")
		}
	}
	if err != nil {
		err = errors.Join(signInErrorKind(err), err)
		p.logger.WarnContext(ctx, "sign-in failed", logger.Email(creds.Email), logger.Error(err))
		return nil, err
	}

	tok := &oauth2.Token{AccessToken: body.Token, RefreshToken: body.RefreshToken, TokenType: "Bearer"}
	if err := p.persist(tok); err != nil {
		p.clearCookies()
		p.logger.ErrorContext(ctx, "failed to store tokens", logger.Error(err))
		return nil, errors.Join(ErrSignInFailed, err)
	}
	p.api.Headers().SetToken(tok)

	u := NewUser(creds.Email, body.Permissions, body.Roles)
	p.setUser(u)
	p.logger.InfoContext(ctx, "signed in", logger.Email(u.Email))

	p.navigate(ctx, p.cfg.LandingPath)
	return u.Clone(), nil
}

func signInErrorKind(err error) error {
	if errors.Is(err, apiclient.ErrTransport) {
		return ErrNetwork
	}
	switch apiclient.StatusOf(err) {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusUnprocessableEntity:
		return ErrInvalidCredentials
	}
	return ErrSignInFailed
}

// SignOut deletes both tokens, clears the bearer and the user, tells other
// tabs unless localOnly is set, then navigates to the entry page. Calling it
// on a signed-out provider is harmless.
func (p *Provider) SignOut(ctx context.Context, localOnly bool) error {
	ctx = p.tabContext(ctx)
	errs := p.clearCookies()
	p.api.Headers().ClearBearer()
	p.setUser(nil)

	if !localOnly {
		p.mu.RLock()
		ch := p.channel
		p.mu.RUnlock()
		if ch != nil {
			if err := ch.AnnounceSignOut(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}

	if len(errs) > 0 {
		p.logger.WarnContext(ctx, "sign-out incomplete", logger.Errors(errs...))
	}
	p.logger.InfoContext(ctx, "signed out", slog.Bool("local_only", localOnly))
	p.navigate(ctx, p.cfg.EntryPath)
	return errors.Join(errs...)
}

// User returns a copy of the signed-in user, or nil.
func (p *Provider) User() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user.Clone()
}

func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user != nil
}

// Can reports whether the signed-in user satisfies req.
func (p *Provider) Can(req Requirements) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user.Can(req)
}

// TabID identifies this provider on the sign-out channel, or "" before Start.
func (p *Provider) TabID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.channel == nil {
		return ""
	}
	return p.channel.TabID()
}

// Close releases the sign-out channel.
func (p *Provider) Close() error {
	p.mu.Lock()
	ch, unregister := p.channel, p.unregister
	p.channel, p.unregister = nil, nil
	p.mu.Unlock()

	if ch == nil {
		return nil
	}
	unregister()
	return ch.Close()
}

// tabContext tags ctx with this provider's tab id for logging.
func (p *Provider) tabContext(ctx context.Context) context.Context {
	if signout.TabIDFromContext(ctx) != "" {
		return ctx
	}
	if id := p.TabID(); id != "" {
		return signout.ContextWithTabID(ctx, id)
	}
	return ctx
}

func (p *Provider) setUser(u *User) {
	p.mu.Lock()
	p.user = u
	p.mu.Unlock()
}

func (p *Provider) persist(tok *oauth2.Token) error {
	opts := []cookie.Option{
		cookie.WithMaxAge(p.cfg.cookieMaxAge()),
		cookie.WithPath(p.cfg.CookiePath),
	}
	if err := p.store.Set(p.cfg.TokenCookie, tok.AccessToken, opts...); err != nil {
		return err
	}
	return p.store.Set(p.cfg.RefreshCookie, tok.RefreshToken, opts...)
}

func (p *Provider) clearCookies() []error {
	var errs []error
	for _, name := range []string{p.cfg.TokenCookie, p.cfg.RefreshCookie} {
		if err := p.store.Delete(name); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (p *Provider) navigate(ctx context.Context, path string) {
	if err := p.navigator.Navigate(ctx, path); err != nil {
		p.logger.WarnContext(ctx, "navigation failed", logger.Path(path), logger.Error(err))
	}
}
