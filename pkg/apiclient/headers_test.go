package apiclient_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/sessionkit/pkg/apiclient"
)

func TestHeaders(t *testing.T) {
	t.Parallel()

	h := apiclient.NewHeaders()
	assert.Empty(t, h.Authorization())

	h.SetToken(&oauth2.Token{AccessToken: "abc", RefreshToken: "ref"})
	assert.Equal(t, "abc", h.Bearer())
	assert.Equal(t, "Bearer abc", h.Authorization())

	h.SetToken(nil)
	assert.Empty(t, h.Bearer())

	h.Set("X-Tab", "1")
	assert.Equal(t, "1", h.Get("X-Tab"))
	h.Del("X-Tab")
	assert.Empty(t, h.Get("X-Tab"))
}
