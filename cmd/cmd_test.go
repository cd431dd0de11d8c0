package cmd

import (
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"image-feed/internal/config"
	"image-feed/internal/repository"
	"image-feed/internal/services"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	path, _ := writeConfigWithAPI(t, "")
	return path
}

// writeConfigWithAPI returns the config path and the token file path
func writeConfigWithAPI(t *testing.T, baseURL string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	tokenPath := filepath.Join(dir, "token.yaml")
	cfg := `
auth:
  access_key: key
storage:
  driver: file
  path: ` + tokenPath + `
cache:
  dir: ` + filepath.Join(dir, "images") + `
log:
  level: error
`
	if baseURL != "" {
		cfg += "api:\n  base_url: " + baseURL + "\n"
	}
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o600))
	return path, tokenPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(t.Context())
	return out.String(), err
}

func TestLogoutWithoutSession(t *testing.T) {
	out, err := execute(t, "--config", writeConfig(t), "logout")
	require.NoError(t, err)
	require.Contains(t, out, "Logged out")
}

func TestCommandsRequireLogin(t *testing.T) {
	path := writeConfig(t)
	for _, args := range [][]string{{"feed"}, {"profile"}, {"like", "a"}, {"view", "a"}} {
		_, err := execute(t, append([]string{"--config", path}, args...)...)
		require.ErrorContains(t, err, "not logged in")
	}
}

func TestMissingConfig(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "feed")
	require.Error(t, err)
}

func TestReadCode(t *testing.T) {
	a := &app{helper: services.NewAuthHelper(services.AuthConfiguration{})}
	var out bytes.Buffer

	code, err := a.readCode(strings.NewReader("https://unsplash.com/oauth/authorize/native?code=abc\n"), &out)
	require.NoError(t, err)
	require.Equal(t, "abc", code)

	code, err = a.readCode(strings.NewReader("  raw-code  \n"), &out)
	require.NoError(t, err)
	require.Equal(t, "raw-code", code)

	_, err = a.readCode(strings.NewReader("\n"), &out)
	require.Error(t, err)
}

func TestTerminalFeedView(t *testing.T) {
	var out bytes.Buffer
	v := &terminalFeedView{out: &out}

	v.UpdateTableView(0, 0)
	require.Empty(t, out.String())

	v.UpdateTableView(0, 10)
	v.ShowErrorAlert()
	require.True(t, v.failed)
	require.Contains(t, out.String(), "10 photos loaded")
	require.Contains(t, out.String(), "Something went wrong")
}

func TestLikeDoesNotLoadFeed(t *testing.T) {
	var likes, pages int
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Header.Get("Authorization") != "Bearer tok":
			w.WriteHeader(http.StatusUnauthorized)
		case r.URL.Path == "/photos/a/like":
			likes++
			w.Write([]byte(`{}`))
		case r.URL.Path == "/photos":
			pages++
			w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer api.Close()

	path, tokenPath := writeConfigWithAPI(t, api.URL)
	require.NoError(t, repository.NewFileTokenRepository(tokenPath).Save(t.Context(), "tok"))

	out, err := execute(t, "--config", path, "like", "a")
	require.NoError(t, err)
	require.Contains(t, out, "Photo a liked")

	out, err = execute(t, "--config", path, "unlike", "a")
	require.NoError(t, err)
	require.Contains(t, out, "Photo a unliked")

	require.Equal(t, 2, likes)
	require.Zero(t, pages)
}

func TestCaptureCodeReleasesListener(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	a := &app{
		cfg:    &config.Config{Server: config.ServerConfig{RedirectPort: port}},
		helper: services.NewAuthHelper(services.AuthConfiguration{}),
	}

	type result struct {
		code string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		code, err := a.captureCode(t.Context())
		done <- result{code, err}
	}()

	callback := "http://127.0.0.1:" + strconv.Itoa(port) + services.NativeCallbackPath + "?code=abc"
	require.Eventually(t, func() bool {
		resp, err := http.Get(callback)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, "abc", res.code)

	// captureCode shut the listener down before returning
	l, err = net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)))
	require.NoError(t, err)
	require.NoError(t, l.Close())
}
