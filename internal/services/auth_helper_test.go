package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func testAuthConfiguration() AuthConfiguration {
	return AuthConfiguration{
		AccessKey:    "access",
		SecretKey:    "secret",
		RedirectURI:  "urn:ietf:wg:oauth:2.0:oob",
		Scopes:       []string{"public", "read_user", "write_likes"},
		AuthorizeURL: "https://unsplash.com/oauth/authorize",
		TokenURL:     "https://unsplash.com/oauth/token",
	}
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestAuthHelper_AuthURL(t *testing.T) {
	h := NewAuthHelper(testAuthConfiguration())

	u, err := h.AuthURL()
	require.NoError(t, err)

	require.Equal(t, "unsplash.com", u.Host)
	require.Equal(t, "/oauth/authorize", u.Path)

	q := u.Query()
	require.Equal(t, "access", q.Get("client_id"))
	require.Equal(t, "urn:ietf:wg:oauth:2.0:oob", q.Get("redirect_uri"))
	require.Equal(t, "code", q.Get("response_type"))
	require.Equal(t, "public read_user write_likes", q.Get("scope"))
	require.False(t, q.Has("state"))
}

func TestAuthHelper_AuthURL_Invalid(t *testing.T) {
	cfg := testAuthConfiguration()
	cfg.AuthorizeURL = "not a url"

	_, err := NewAuthHelper(cfg).AuthURL()
	require.Error(t, err)
}

func TestAuthHelper_CodeFromURL(t *testing.T) {
	h := NewAuthHelper(testAuthConfiguration())

	code, ok := h.CodeFromURL(mustParse(t, "https://unsplash.com/oauth/authorize/native?code=abc123"))
	require.True(t, ok)
	require.Equal(t, "abc123", code)

	tests := []string{
		"https://unsplash.com/oauth/authorize?code=abc123",
		"https://unsplash.com/oauth/authorize/native",
		"https://unsplash.com/oauth/authorize/native?error=access_denied",
		"https://unsplash.com/oauth/authorize/native/extra?code=abc123",
		"https://unsplash.com/",
	}
	for _, raw := range tests {
		code, ok := h.CodeFromURL(mustParse(t, raw))
		require.False(t, ok, raw)
		require.Empty(t, code, raw)
	}

	_, ok = h.CodeFromURL(nil)
	require.False(t, ok)
}

func TestAuthHelper_DecidePolicy(t *testing.T) {
	h := NewAuthHelper(testAuthConfiguration())

	policy, code := h.DecidePolicy(mustParse(t, "http://127.0.0.1:8765/oauth/authorize/native?code=xyz"))
	require.Equal(t, PolicyCancel, policy)
	require.Equal(t, "xyz", code)

	policy, code = h.DecidePolicy(mustParse(t, "https://unsplash.com/login"))
	require.Equal(t, PolicyAllow, policy)
	require.Empty(t, code)
}
