package services

import (
	"context"
	"net/http"
	"sync"

	"image-feed/internal/models"

	"github.com/rs/zerolog/log"
)

// ProfileService fetches and caches the signed-in user's profile
type ProfileService struct {
	api *APIClient

	mu      sync.RWMutex
	profile *models.Profile
	cancel  context.CancelFunc
	seq     uint64
}

// NewProfileService creates a new profile service
func NewProfileService(api *APIClient) *ProfileService {
	return &ProfileService{api: api}
}

// FetchProfile loads GET /me; a fetch already in flight is cancelled
func (s *ProfileService) FetchProfile(ctx context.Context, token string) (models.Profile, error) {
	const op = "FetchProfile"

	reqCtx, done := s.begin(ctx)
	defer done()

	req, err := s.api.newRequest(reqCtx, op, http.MethodGet, nil, token, "me")
	if err != nil {
		return models.Profile{}, err
	}

	var result models.ProfileResult
	if err := s.api.object(req, op, &result); err != nil {
		log.Error().Err(err).Msg("Failed to fetch profile")
		return models.Profile{}, err
	}

	profile := result.Profile()
	s.mu.Lock()
	s.profile = &profile
	s.mu.Unlock()

	log.Info().Str("username", profile.Username).Msg("Profile loaded")
	return profile, nil
}

// Profile returns the cached profile
func (s *ProfileService) Profile() (models.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return models.Profile{}, false
	}
	return *s.profile, true
}

// SetProfile replaces the cached profile
func (s *ProfileService) SetProfile(p *models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = p
}

// Reset drops the cached profile
func (s *ProfileService) Reset() {
	s.SetProfile(nil)
}

// begin cancels the previous fetch and registers a new one
func (s *ProfileService) begin(ctx context.Context) (context.Context, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.seq++
	seq := s.seq
	s.cancel = cancel

	return reqCtx, func() {
		s.mu.Lock()
		if s.seq == seq {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
}
