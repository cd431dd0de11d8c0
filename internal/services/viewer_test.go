package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestViewerTokenService(t *testing.T) {
	s := NewViewerTokenService("secret", time.Hour)

	token, viewerID, err := s.Issue()
	require.NoError(t, err)
	require.NotEmpty(t, viewerID)

	got, err := s.Validate(token)
	require.NoError(t, err)
	require.Equal(t, viewerID, got)
}

func TestViewerTokenService_Rejects(t *testing.T) {
	s := NewViewerTokenService("secret", time.Hour)
	other := NewViewerTokenService("other", time.Hour)
	expired := NewViewerTokenService("secret", -time.Minute)

	foreign, _, err := other.Issue()
	require.NoError(t, err)
	_, err = s.Validate(foreign)
	require.Error(t, err)

	old, _, err := expired.Issue()
	require.NoError(t, err)
	_, err = s.Validate(old)
	require.Error(t, err)

	_, err = s.Validate("garbage")
	require.Error(t, err)
}
