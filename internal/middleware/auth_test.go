package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockValidator struct {
	validateFunc func(token string) (string, error)
}

func (m *mockValidator) Validate(token string) (string, error) {
	return m.validateFunc(token)
}

func newValidator() *mockValidator {
	return &mockValidator{validateFunc: func(token string) (string, error) {
		if token == "good" {
			return "viewer-1", nil
		}
		return "", errors.New("bad token")
	}}
}

func TestAuthMiddleware(t *testing.T) {
	var seen string
	h := AuthMiddleware(newValidator())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetViewerID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "invalid token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/photos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, tt.status, rec.Code)
		})
	}
	require.Equal(t, "viewer-1", seen)
}

func TestValidateWebSocketToken(t *testing.T) {
	_, err := ValidateWebSocketToken("", newValidator())
	require.Error(t, err)

	id, err := ValidateWebSocketToken("good", newValidator())
	require.NoError(t, err)
	require.Equal(t, "viewer-1", id)
}

func TestGetViewerID_Empty(t *testing.T) {
	require.Empty(t, GetViewerID(t.Context()))
}
