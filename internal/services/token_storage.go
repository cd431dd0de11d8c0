package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"image-feed/internal/repository"
)

// TokenRepository persists the bearer token
type TokenRepository interface {
	Get(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Delete(ctx context.Context) error
}

// TokenStorage is the single process-wide holder of the bearer token
type TokenStorage struct {
	repo TokenRepository

	mu     sync.RWMutex
	token  string
	loaded bool
}

// NewTokenStorage creates a token storage backed by repo
func NewTokenStorage(repo TokenRepository) *TokenStorage {
	return &TokenStorage{repo: repo}
}

// Token returns the stored token, loading it from the repository on first use
func (s *TokenStorage) Token(ctx context.Context) (string, bool) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.token, s.token != ""
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		token, err := s.repo.Get(ctx)
		if err != nil && !errors.Is(err, repository.ErrTokenNotFound) {
			// not cached so a later call retries the repository
			return "", false
		}
		s.token = token
		s.loaded = true
	}
	return s.token, s.token != ""
}

// SetToken persists a new token
func (s *TokenStorage) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Save(ctx, token); err != nil {
		return fmt.Errorf("failed to persist token: %w", err)
	}
	s.token = token
	s.loaded = true
	return nil
}

// Clear removes the token from memory and from the repository
func (s *TokenStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.token = ""
	s.loaded = true
	if err := s.repo.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}
