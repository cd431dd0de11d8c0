package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  access_key: key\n  secret_key: secret\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://api.unsplash.com", cfg.API.BaseURL)
	require.Equal(t, 10, cfg.API.PerPage)
	require.Equal(t, 30*time.Second, cfg.API.Timeout)
	require.Equal(t, "urn:ietf:wg:oauth:2.0:oob", cfg.Auth.RedirectURI)
	require.Equal(t, []string{"public", "read_user", "write_likes"}, cfg.Auth.Scopes())
	require.Equal(t, "file", cfg.Storage.Driver)
	require.NotEmpty(t, cfg.Storage.Path)
	require.Equal(t, 15*time.Minute, cfg.AWS.ShareTTL)
	require.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
api:
  base_url: http://localhost:9000
  per_page: 30
  timeout: 5s
auth:
  access_key: key
  scope: public+read_user
storage:
  driver: postgres
database:
  host: db
  port: 5432
  user: feed
  password: pw
  dbname: feed
  sslmode: disable
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "http://localhost:9000", cfg.API.BaseURL)
	require.Equal(t, 30, cfg.API.PerPage)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, []string{"public", "read_user"}, cfg.Auth.Scopes())
	require.Equal(t, "postgres", cfg.Storage.Driver)
	require.Equal(t, "host=db port=5432 user=feed password=pw dbname=feed sslmode=disable", cfg.Database.DSN())
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingAccessKey(t *testing.T) {
	path := writeConfig(t, "api:\n  per_page: 5\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_UnknownDriver(t *testing.T) {
	path := writeConfig(t, "auth:\n  access_key: key\nstorage:\n  driver: sqlite\n")

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
