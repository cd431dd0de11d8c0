package services

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"image-feed/internal/models"

	"github.com/rs/zerolog/log"
)

// ProfileImageService fetches and caches the avatar URL
type ProfileImageService struct {
	api     *APIClient
	storage *TokenStorage
	bus     *EventBus

	mu        sync.RWMutex
	avatarURL string
	cancel    context.CancelFunc
	seq       uint64
}

// NewProfileImageService creates a new profile image service
func NewProfileImageService(api *APIClient, storage *TokenStorage, bus *EventBus) *ProfileImageService {
	return &ProfileImageService{api: api, storage: storage, bus: bus}
}

// FetchProfileImageURL loads GET /users/{username} and keeps the large avatar;
// a fetch already in flight is cancelled
func (s *ProfileImageService) FetchProfileImageURL(ctx context.Context, username string) (string, error) {
	const op = "FetchProfileImageURL"

	token, ok := s.storage.Token(ctx)
	if !ok {
		return "", ErrNoToken
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	req, err := s.api.newRequest(reqCtx, op, http.MethodGet, nil, token, "users", url.PathEscape(username))
	if err != nil {
		return "", err
	}

	var result models.UserResult
	if err := s.api.object(req, op, &result); err != nil {
		log.Error().Err(err).Str("username", username).Msg("Failed to fetch profile image")
		return "", err
	}

	avatar := result.ProfileImage.Large
	s.mu.Lock()
	s.avatarURL = avatar
	s.mu.Unlock()

	e := NewEvent(ProfileImageDidChange)
	e.URL = avatar
	s.bus.Publish(e)

	return avatar, nil
}

// AvatarURL returns the cached avatar URL
func (s *ProfileImageService) AvatarURL() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.avatarURL, s.avatarURL != ""
}

// SetAvatarURL replaces the cached avatar URL
func (s *ProfileImageService) SetAvatarURL(u string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.avatarURL = u
}

// Reset drops the cached avatar URL
func (s *ProfileImageService) Reset() {
	s.SetAvatarURL("")
}
