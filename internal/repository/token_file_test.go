package repository

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileTokenRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token.yaml")
	repo := NewFileTokenRepository(path)

	_, err := repo.Get(t.Context())
	require.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, repo.Save(t.Context(), "first"))
	require.NoError(t, repo.Save(t.Context(), "second"))

	token, err := repo.Get(t.Context())
	require.NoError(t, err)
	require.Equal(t, "second", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, repo.Delete(t.Context()))
	require.NoError(t, repo.Delete(t.Context()))

	_, err = repo.Get(t.Context())
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestFileTokenRepository_EmptyToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.yaml")
	require.NoError(t, os.WriteFile(path, []byte("access_token: \"\"\n"), 0o600))

	_, err := NewFileTokenRepository(path).Get(t.Context())
	require.ErrorIs(t, err, ErrTokenNotFound)
}

func TestFileTokenRepository_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.yaml")
	require.NoError(t, os.WriteFile(path, []byte("access_token: [unterminated\n"), 0o600))

	_, err := NewFileTokenRepository(path).Get(t.Context())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrTokenNotFound)
}
