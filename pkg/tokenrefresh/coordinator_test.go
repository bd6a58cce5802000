package tokenrefresh_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/internal/apitest"
	"github.com/dmitrymomot/sessionkit/pkg/apiclient"
	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/tokenrefresh"
)

type fixture struct {
	api        *apitest.Server
	jar        *cookie.Jar
	client     *apiclient.Client
	coord      *tokenrefresh.Coordinator
	metrics    *tokenrefresh.Metrics
	token      string
	terminated atomic.Int32
}

func setup(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{api: apitest.Start(t)}
	token, refreshToken := f.api.IssueSession("a@b.com")
	f.token = token

	jar, err := cookie.NewJar("http://localhost:3000")
	require.NoError(t, err)
	require.NoError(t, jar.Set(tokenrefresh.DefaultTokenCookie, token))
	require.NoError(t, jar.Set(tokenrefresh.DefaultRefreshCookie, refreshToken))
	f.jar = jar

	f.client, err = apiclient.New(f.api.URL, apiclient.WithTokenFrom(jar, tokenrefresh.DefaultTokenCookie))
	require.NoError(t, err)

	f.metrics, err = tokenrefresh.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	f.coord = tokenrefresh.New(f.client, jar,
		tokenrefresh.WithMetrics(f.metrics),
		tokenrefresh.WithOnTerminated(func(context.Context) {
			f.terminated.Add(1)
			_ = jar.Delete(tokenrefresh.DefaultTokenCookie)
			_ = jar.Delete(tokenrefresh.DefaultRefreshCookie)
			f.client.Headers().ClearBearer()
		}),
	)
	f.client.Use(f.coord)
	return f
}

// holdRefresh blocks refresh calls until the returned func is called.
func holdRefresh(t *testing.T, api *apitest.Server) func() {
	t.Helper()
	release := make(chan struct{})
	var once sync.Once
	unblock := func() { once.Do(func() { close(release) }) }
	t.Cleanup(unblock)
	api.BeforeRefresh(func() { <-release })
	return unblock
}

type result struct {
	resp *apiclient.Response
	err  error
}

func fireConcurrent(f *fixture, n int) ([]result, *sync.WaitGroup) {
	results := make([]result, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := f.client.Get(context.Background(), fmt.Sprintf("/resources/%d", i))
			results[i] = result{resp: resp, err: err}
		}()
	}
	return results, &wg
}

func TestCoordinator_ConcurrentExpiryRefreshesOnce(t *testing.T) {
	t.Parallel()

	const n = 10
	f := setup(t)
	release := holdRefresh(t, f.api)
	f.api.ExpireAll()

	results, wg := fireConcurrent(f, n)

	require.Eventually(t, func() bool {
		return f.coord.Waiting() == n && f.api.RefreshCalls() == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, tokenrefresh.StateRefreshing, f.coord.State())

	release()
	wg.Wait()

	assert.Equal(t, 1, f.api.RefreshCalls())
	assert.Equal(t, tokenrefresh.StateNormal, f.coord.State())
	assert.Equal(t, 0, f.coord.Waiting())
	assert.EqualValues(t, 0, f.terminated.Load())

	newToken := f.client.Headers().Bearer()
	require.NotEmpty(t, newToken)
	assert.NotEqual(t, f.token, newToken)
	assert.Equal(t, newToken, cookie.Lookup(f.jar, tokenrefresh.DefaultTokenCookie))
	assert.NotEmpty(t, cookie.Lookup(f.jar, tokenrefresh.DefaultRefreshCookie))

	for i, r := range results {
		require.NoError(t, r.err, "request %d", i)
		var body struct {
			ID    string `json:"id"`
			Token string `json:"token"`
		}
		require.NoError(t, r.resp.Decode(&body))
		assert.Equal(t, fmt.Sprint(i), body.ID)
		assert.Equal(t, newToken, body.Token, "replay must carry the new bearer")
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Refreshes.WithLabelValues("success")))
	assert.Equal(t, float64(n), testutil.ToFloat64(f.metrics.Replays))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Waiting))
}

func TestCoordinator_FailedRefreshTerminatesOnce(t *testing.T) {
	t.Parallel()

	const n = 8
	f := setup(t)
	release := holdRefresh(t, f.api)
	f.api.ExpireAll()
	f.api.FailRefresh(true)

	results, wg := fireConcurrent(f, n)
	require.Eventually(t, func() bool {
		return f.coord.Waiting() == n && f.api.RefreshCalls() == 1
	}, 2*time.Second, 5*time.Millisecond)

	release()
	wg.Wait()

	for i, r := range results {
		assert.ErrorIs(t, r.err, tokenrefresh.ErrSessionTerminated, "request %d", i)
	}
	assert.Equal(t, 1, f.api.RefreshCalls())
	assert.EqualValues(t, 1, f.terminated.Load())
	assert.Equal(t, tokenrefresh.StateNormal, f.coord.State())
	assert.Empty(t, cookie.Lookup(f.jar, tokenrefresh.DefaultTokenCookie))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Refreshes.WithLabelValues("failure")))

	// Later calls fail without another refresh or sign-out.
	_, err := f.client.Get(context.Background(), "/resources/late")
	assert.Error(t, err)
	assert.Equal(t, 1, f.api.RefreshCalls())
	assert.EqualValues(t, 1, f.terminated.Load())
}

func TestCoordinator_DeadTokenIsNotRefreshedTwice(t *testing.T) {
	t.Parallel()

	f := setup(t)
	// No sign-out side effects: the stale bearer stays installed.
	f.coord.OnTerminated(func(context.Context) { f.terminated.Add(1) })
	f.api.ExpireAll()
	f.api.FailRefresh(true)

	_, err := f.client.Get(context.Background(), "/resources/1")
	assert.ErrorIs(t, err, tokenrefresh.ErrSessionTerminated)

	_, err = f.client.Get(context.Background(), "/resources/2")
	assert.ErrorIs(t, err, tokenrefresh.ErrSessionTerminated)

	assert.Equal(t, 1, f.api.RefreshCalls())
	assert.EqualValues(t, 1, f.terminated.Load())
}

func TestCoordinator_LateExpiryReplaysWithoutRefresh(t *testing.T) {
	t.Parallel()

	f := setup(t)
	ctx := context.Background()
	f.api.ExpireAll()

	late := &apiclient.Request{Method: http.MethodGet, Path: "/resources/late"}
	lateResp, lateErr := f.client.Send(ctx, late)
	require.Error(t, lateErr)
	assert.Equal(t, f.token, late.SentWith())

	_, err := f.client.Get(ctx, "/resources/1")
	require.NoError(t, err)
	require.Equal(t, 1, f.api.RefreshCalls())

	resp, err := f.coord.Intercept(ctx, late, lateResp, lateErr)
	require.NoError(t, err)
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(t, resp.Decode(&body))
	assert.Equal(t, f.client.Headers().Bearer(), body.Token)
	assert.Equal(t, 1, f.api.RefreshCalls())
}

func TestCoordinator_TerminalUnauthorized(t *testing.T) {
	t.Parallel()

	f := setup(t)
	f.coord.OnTerminated(func(context.Context) { f.terminated.Add(1) })
	f.api.RevokeAll()

	_, err := f.client.Get(context.Background(), "/me")
	assert.ErrorIs(t, err, tokenrefresh.ErrSessionTerminated)
	apiErr, ok := apiclient.AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, apitest.CodeTokenInvalid, apiErr.Code)

	_, err = f.client.Get(context.Background(), "/me")
	assert.ErrorIs(t, err, tokenrefresh.ErrSessionTerminated)

	assert.Equal(t, 0, f.api.RefreshCalls())
	assert.EqualValues(t, 1, f.terminated.Load(), "one sign-out per rejected token")
}

func TestCoordinator_PassThrough(t *testing.T) {
	t.Parallel()

	f := setup(t)
	ctx := context.Background()

	t.Run("non auth failures", func(t *testing.T) {
		f.api.FailMe(http.StatusInternalServerError)
		defer f.api.FailMe(0)

		_, err := f.client.Get(ctx, "/me")
		assert.Equal(t, http.StatusInternalServerError, apiclient.StatusOf(err))
		assert.NotErrorIs(t, err, tokenrefresh.ErrSessionTerminated)
	})

	t.Run("refresh calls are never intercepted", func(t *testing.T) {
		_, err := f.client.Post(ctx, "/refresh", map[string]string{"refreshToken": "bogus"})
		assert.True(t, apiclient.IsUnauthorized(err))
		assert.NotErrorIs(t, err, tokenrefresh.ErrSessionTerminated)
	})

	t.Run("skipped requests are not intercepted", func(t *testing.T) {
		f.api.ExpireAll()
		_, err := f.client.Do(ctx, &apiclient.Request{Method: http.MethodGet, Path: "/me", SkipIntercept: true})
		assert.True(t, apiclient.IsUnauthorized(err))
	})

	assert.Equal(t, 1, f.api.RefreshCalls(), "only the explicit refresh call reached the API")
	assert.EqualValues(t, 0, f.terminated.Load())
}

func TestCoordinator_MissingRefreshToken(t *testing.T) {
	t.Parallel()

	f := setup(t)
	require.NoError(t, f.jar.Delete(tokenrefresh.DefaultRefreshCookie))
	f.api.ExpireAll()

	_, err := f.client.Get(context.Background(), "/resources/1")
	assert.ErrorIs(t, err, tokenrefresh.ErrSessionTerminated)
	assert.ErrorIs(t, err, tokenrefresh.ErrNoRefreshToken)
	assert.Equal(t, 0, f.api.RefreshCalls())
	assert.EqualValues(t, 1, f.terminated.Load())
}

func TestCoordinator_WaiterHonoursContext(t *testing.T) {
	t.Parallel()

	f := setup(t)
	release := holdRefresh(t, f.api)
	f.api.ExpireAll()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.client.Get(ctx, "/resources/1")
		done <- err
	}()

	require.Eventually(t, func() bool { return f.coord.Waiting() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not return after cancellation")
	}

	// The refresh itself is detached from the caller and still completes.
	release()
	require.Eventually(t, func() bool {
		return f.coord.State() == tokenrefresh.StateNormal && f.client.Headers().Bearer() != f.token
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, f.coord.Waiting())
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want tokenrefresh.State
	}{
		{name: "nil", err: nil, want: tokenrefresh.StateNormal},
		{name: "transport", err: apiclient.ErrTransport, want: tokenrefresh.StateNormal},
		{name: "server error", err: &apiclient.APIError{StatusCode: 500}, want: tokenrefresh.StateNormal},
		{name: "forbidden", err: &apiclient.APIError{StatusCode: 403, Code: "token.expired"}, want: tokenrefresh.StateNormal},
		{name: "expired", err: &apiclient.APIError{StatusCode: 401, Code: "token.expired"}, want: tokenrefresh.StateRecoverable},
		{name: "wrapped expired", err: fmt.Errorf("get: %w", &apiclient.APIError{StatusCode: 401, Code: "token.expired"}), want: tokenrefresh.StateRecoverable},
		{name: "invalid", err: &apiclient.APIError{StatusCode: 401, Code: "token.invalid"}, want: tokenrefresh.StateTerminal},
		{name: "no code", err: &apiclient.APIError{StatusCode: 401}, want: tokenrefresh.StateTerminal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tokenrefresh.Classify(tt.err, tokenrefresh.DefaultExpiredCode))
		})
	}
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := tokenrefresh.NewMetrics(reg)
	require.NoError(t, err)

	_, err = tokenrefresh.NewMetrics(reg)
	var already prometheus.AlreadyRegisteredError
	assert.True(t, errors.As(err, &already))

	m, err := tokenrefresh.NewMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, m)
}
