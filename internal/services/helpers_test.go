package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"image-feed/internal/repository"

	"github.com/stretchr/testify/require"
)

type memTokenRepository struct {
	mu         sync.Mutex
	token      string
	deleteFunc func() error
}

func (m *memTokenRepository) Get(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return "", repository.ErrTokenNotFound
	}
	return m.token, nil
}

func (m *memTokenRepository) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *memTokenRepository) Delete(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	if m.deleteFunc != nil {
		return m.deleteFunc()
	}
	return nil
}

func newTestStorage(token string) *TokenStorage {
	return NewTokenStorage(&memTokenRepository{token: token})
}

func newTestAPI(t *testing.T, baseURL string) *APIClient {
	t.Helper()
	api, err := NewAPIClient(baseURL, nil, 5*time.Second)
	require.NoError(t, err)
	return api
}

// receive waits for one event or fails the test
func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}
