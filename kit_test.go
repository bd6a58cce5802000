package sessionkit_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit"
	"github.com/dmitrymomot/sessionkit/internal/apitest"
	"github.com/dmitrymomot/sessionkit/pkg/broadcast"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/signout"
	"github.com/dmitrymomot/sessionkit/pkg/tokenrefresh"
)

var account = apitest.Account{
	Email:       "a@b.com",
	Password:    "secret",
	Permissions: []string{"metrics.list"},
	Roles:       []string{"administrator"},
}

type browser struct {
	api *apitest.Server
	cfg sessionkit.Config
	jar *cookie.Jar
	bus *broadcast.MemoryBroadcaster[signout.Signal]
}

func newBrowser(t *testing.T) *browser {
	t.Helper()

	api := apitest.Start(t, account)
	cfg := sessionkit.DefaultConfig()
	cfg.APIURL = api.URL

	jar, err := cookie.NewJarFromConfig(cfg.Cookie)
	require.NoError(t, err)

	bus := broadcast.NewMemoryBroadcaster[signout.Signal](16)
	t.Cleanup(func() { _ = bus.Close() })

	return &browser{api: api, cfg: cfg, jar: jar, bus: bus}
}

// openTab builds a kit on the shared jar and bus and restores its session.
func (b *browser) openTab(t *testing.T, opts ...sessionkit.Option) *sessionkit.Kit {
	t.Helper()

	opts = append([]sessionkit.Option{sessionkit.WithStore(b.jar), sessionkit.WithBroadcaster(b.bus)}, opts...)
	kit, err := sessionkit.New(b.cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kit.Close() })

	restored, err := kit.Start(context.Background())
	require.NoError(t, err)
	_, err = restored.AwaitWithTimeout(2 * time.Second)
	require.NoError(t, err)
	return kit
}

func signIn(t *testing.T, kit *sessionkit.Kit) {
	t.Helper()
	_, err := kit.Provider.SignIn(context.Background(), session.Credentials{Email: account.Email, Password: account.Password})
	require.NoError(t, err)
}

func TestKit_SignOutPropagatesAcrossTabs(t *testing.T) {
	t.Parallel()

	b := newBrowser(t)
	var mu sync.Mutex
	var visited []string
	nav := session.NavigatorFunc(func(_ context.Context, path string) error {
		mu.Lock()
		visited = append(visited, path)
		mu.Unlock()
		return nil
	})

	tabA := b.openTab(t, sessionkit.WithNavigator(nav), sessionkit.WithTabID("tab-a"))
	signIn(t, tabA)

	tabB := b.openTab(t, sessionkit.WithTabID("tab-b"))
	require.True(t, tabB.Provider.IsAuthenticated())
	assert.Equal(t, "tab-b", tabB.Provider.TabID())
	assert.True(t, tabB.Provider.Can(session.Requirements{Roles: []string{"administrator"}}))

	require.NoError(t, tabA.Provider.SignOut(context.Background(), false))

	require.Eventually(t, func() bool { return !tabB.Provider.IsAuthenticated() }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, tabB.Client.Headers().Authorization())
	assert.Empty(t, cookie.Lookup(b.jar, b.cfg.TokenCookie))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"/dashboard", "/"}, visited)
}

func TestKit_ConcurrentExpiry(t *testing.T) {
	t.Parallel()

	const n = 12
	b := newBrowser(t)
	reg := prometheus.NewRegistry()
	kit := b.openTab(t, sessionkit.WithMetrics(reg))
	signIn(t, kit)

	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	b.api.BeforeRefresh(func() { <-release })
	b.api.ExpireAll()

	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = kit.Client.Get(context.Background(), fmt.Sprintf("/resources/%d", i))
		}()
	}

	require.Eventually(t, func() bool { return kit.Coordinator.Waiting() == n }, 2*time.Second, 5*time.Millisecond)
	unblock()
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "request %d", i)
	}
	assert.Equal(t, 1, b.api.RefreshCalls())
	assert.Equal(t, "Bearer "+cookie.Lookup(b.jar, b.cfg.TokenCookie), kit.Client.Headers().Authorization())
	assert.True(t, kit.Provider.IsAuthenticated())

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestKit_FailedRefreshSignsOutEveryTab(t *testing.T) {
	t.Parallel()

	b := newBrowser(t)
	tabA := b.openTab(t)
	signIn(t, tabA)
	tabB := b.openTab(t)
	require.True(t, tabB.Provider.IsAuthenticated())

	b.api.ExpireAll()
	b.api.FailRefresh(true)

	_, err := tabA.Client.Get(context.Background(), "/resources/1")
	assert.ErrorIs(t, err, tokenrefresh.ErrSessionTerminated)
	assert.False(t, tabA.Provider.IsAuthenticated())

	require.Eventually(t, func() bool { return !tabB.Provider.IsAuthenticated() }, 2*time.Second, 5*time.Millisecond)
	assert.Empty(t, cookie.Lookup(b.jar, b.cfg.TokenCookie))
	assert.Empty(t, cookie.Lookup(b.jar, b.cfg.RefreshCookie))
	assert.Equal(t, 1, b.api.RefreshCalls())
}

func TestKit_StartUsesTokenWrittenAfterNew(t *testing.T) {
	t.Parallel()

	b := newBrowser(t)
	kit, err := sessionkit.New(b.cfg, sessionkit.WithStore(b.jar), sessionkit.WithBroadcaster(b.bus))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kit.Close() })

	token, refreshToken := b.api.IssueSession(account.Email)
	require.NoError(t, b.jar.Set(b.cfg.TokenCookie, token))
	require.NoError(t, b.jar.Set(b.cfg.RefreshCookie, refreshToken))

	restored, err := kit.Start(context.Background())
	require.NoError(t, err)
	user, err := restored.AwaitWithTimeout(2 * time.Second)
	require.NoError(t, err)

	require.NotNil(t, user)
	assert.Equal(t, account.Email, user.Email)
	assert.True(t, kit.Provider.IsAuthenticated())
	assert.Equal(t, "Bearer "+token, kit.Client.Headers().Authorization())
	assert.Equal(t, token, cookie.Lookup(b.jar, b.cfg.TokenCookie))
}

func TestKit_NewErrors(t *testing.T) {
	t.Parallel()

	cfg := sessionkit.DefaultConfig()
	cfg.Cookie.Origin = "not-an-origin"
	_, err := sessionkit.New(cfg)
	assert.ErrorIs(t, err, cookie.ErrInvalidOrigin)

	cfg = sessionkit.DefaultConfig()
	cfg.APIURL = ""
	_, err = sessionkit.New(cfg)
	assert.Error(t, err)

	reg := prometheus.NewRegistry()
	kit, err := sessionkit.New(sessionkit.DefaultConfig(), sessionkit.WithMetrics(reg))
	require.NoError(t, err)
	defer kit.Close()
	_, err = sessionkit.New(sessionkit.DefaultConfig(), sessionkit.WithMetrics(reg))
	assert.Error(t, err, "metrics cannot be registered twice")
}
