package cookie_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

const thirtyDays = 60 * 60 * 24 * 30

func TestNewJar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		origin  string
		wantErr error
	}{
		{name: "http origin", origin: "http://localhost:3000"},
		{name: "https origin with path", origin: "https://app.example.com/dashboard"},
		{name: "missing scheme", origin: "localhost:3000", wantErr: cookie.ErrInvalidOrigin},
		{name: "empty", origin: "", wantErr: cookie.ErrInvalidOrigin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			jar, err := cookie.NewJar(tt.origin)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, jar)
		})
	}
}

func TestJar_SetGetDelete(t *testing.T) {
	t.Parallel()

	jar, err := cookie.NewJar("http://localhost:3000")
	require.NoError(t, err)

	_, err = jar.Get("nextauth.token")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)

	require.NoError(t, jar.Set("nextauth.token", "tok-1", cookie.WithMaxAge(thirtyDays), cookie.WithPath("/")))
	require.NoError(t, jar.Set("nextauth.refreshToken", "ref-1", cookie.WithMaxAge(thirtyDays), cookie.WithPath("/")))

	v, err := jar.Get("nextauth.token")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", v)
	assert.Equal(t, "ref-1", cookie.Lookup(jar, "nextauth.refreshToken"))

	require.NoError(t, jar.Set("nextauth.token", "tok-2", cookie.WithMaxAge(thirtyDays)))
	assert.Equal(t, "tok-2", cookie.Lookup(jar, "nextauth.token"))

	require.NoError(t, jar.Delete("nextauth.token"))
	_, err = jar.Get("nextauth.token")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
	assert.Equal(t, "ref-1", cookie.Lookup(jar, "nextauth.refreshToken"))

	// Deleting twice is fine.
	require.NoError(t, jar.Delete("nextauth.token"))
}

func TestJar_NegativeMaxAgeDeletes(t *testing.T) {
	t.Parallel()

	jar, err := cookie.NewJar("http://localhost:3000")
	require.NoError(t, err)

	require.NoError(t, jar.Set("k", "v"))
	require.NoError(t, jar.Set("k", "", cookie.WithMaxAge(-1)))

	_, err = jar.Get("k")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound)
}

func TestJar_PathScoping(t *testing.T) {
	t.Parallel()

	jar, err := cookie.NewJar("http://localhost:3000")
	require.NoError(t, err)

	require.NoError(t, jar.Set("scoped", "v", cookie.WithPath("/admin")))

	_, err = jar.Get("scoped")
	assert.ErrorIs(t, err, cookie.ErrCookieNotFound, "cookie below root path is not visible at /")
}

func TestJar_EmptyName(t *testing.T) {
	t.Parallel()

	jar, err := cookie.NewJar("http://localhost:3000")
	require.NoError(t, err)

	_, err = jar.Get("")
	assert.ErrorIs(t, err, cookie.ErrEmptyName)
	assert.ErrorIs(t, jar.Set("", "v"), cookie.ErrEmptyName)
	assert.ErrorIs(t, jar.Delete(""), cookie.ErrEmptyName)
}

func TestJar_SharedByHTTPClient(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("nextauth.token"); err == nil {
			_, _ = io.WriteString(w, c.Value)
		}
	}))
	defer srv.Close()

	jar, err := cookie.NewJar(srv.URL)
	require.NoError(t, err)
	require.NoError(t, jar.Set("nextauth.token", "tok-1"))

	client := &http.Client{Jar: jar.HTTPJar()}
	resp, err := client.Get(srv.URL + "/me")
	require.NoError(t, err)
	defer resp.Body.Close()

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", string(got))
}

func TestJar_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	jar, err := cookie.NewJar("http://localhost:3000")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = jar.Set("nextauth.token", "tok")
			_, _ = jar.Get("nextauth.token")
			if i%5 == 0 {
				_ = jar.Delete("nextauth.token")
			}
		}(i)
	}
	wg.Wait()
}

func TestNewJarFromConfig(t *testing.T) {
	t.Parallel()

	cfg := cookie.DefaultConfig()
	cfg.Origin = "http://localhost:4000"

	jar, err := cookie.NewJarFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000", jar.Origin())

	require.NoError(t, jar.Set("k", "v"))
	assert.Equal(t, "v", cookie.Lookup(jar, "k"))
}
