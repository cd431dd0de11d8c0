package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

type tokenFile struct {
	AccessToken string    `yaml:"access_token"`
	SavedAt     time.Time `yaml:"saved_at"`
}

// FileTokenRepository persists the bearer token in a user-only YAML file
type FileTokenRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileTokenRepository creates a token repository backed by path
func NewFileTokenRepository(path string) *FileTokenRepository {
	return &FileTokenRepository{path: path}
}

// Get retrieves the stored token
func (r *FileTokenRepository) Get(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrTokenNotFound
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	var tf tokenFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return "", fmt.Errorf("failed to parse token file: %w", err)
	}
	if tf.AccessToken == "" {
		return "", ErrTokenNotFound
	}
	return tf.AccessToken, nil
}

// Save stores the token, replacing any previous one
func (r *FileTokenRepository) Save(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := yaml.Marshal(tokenFile{AccessToken: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("failed to replace token file: %w", err)
	}
	return nil
}

// Delete removes the stored token; deleting a missing token is not an error
func (r *FileTokenRepository) Delete(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
