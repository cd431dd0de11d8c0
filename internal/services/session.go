package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// State is a stage of the login flow
type State string

const (
	StateNoToken         State = "NoToken"
	StateAuthInProgress  State = "AuthInProgress"
	StateTokenObtained   State = "TokenObtained"
	StateProfileLoading  State = "ProfileLoading"
	StateFeedReady       State = "FeedReady"
	StateLogoutRequested State = "LogoutRequested"
)

// ErrInvalidTransition is returned when an operation is not allowed in the current state
var ErrInvalidTransition = errors.New("invalid session transition")

var transitions = map[State][]State{
	StateNoToken:         {StateAuthInProgress, StateTokenObtained},
	StateAuthInProgress:  {StateTokenObtained, StateNoToken},
	StateTokenObtained:   {StateProfileLoading, StateLogoutRequested},
	StateProfileLoading:  {StateFeedReady, StateTokenObtained, StateLogoutRequested},
	StateFeedReady:       {StateProfileLoading, StateLogoutRequested},
	StateLogoutRequested: {StateNoToken},
}

// Session drives the login flow across the services
type Session struct {
	storage      *TokenStorage
	oauth        *OAuth2Service
	profile      *ProfileService
	profileImage *ProfileImageService
	imagesList   *ImagesListService
	logout       *ProfileLogoutService
	bus          *EventBus

	mu    sync.Mutex
	state State
}

// NewSession creates a session in the NoToken state
func NewSession(
	storage *TokenStorage,
	oauth *OAuth2Service,
	profile *ProfileService,
	profileImage *ProfileImageService,
	imagesList *ImagesListService,
	logout *ProfileLogoutService,
	bus *EventBus,
) *Session {
	return &Session{
		storage:      storage,
		oauth:        oauth,
		profile:      profile,
		profileImage: profileImage,
		imagesList:   imagesList,
		logout:       logout,
		bus:          bus,
		state:        StateNoToken,
	}
}

// State returns the current state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start skips authorization when a token is already stored
func (s *Session) Start(ctx context.Context) State {
	if _, ok := s.storage.Token(ctx); ok {
		_ = s.transition(StateNoToken, StateTokenObtained)
	}
	return s.State()
}

// Authorize exchanges the authorization code for a token
func (s *Session) Authorize(ctx context.Context, code string) error {
	if err := s.transition(StateNoToken, StateAuthInProgress); err != nil && s.State() != StateAuthInProgress {
		return err
	}

	if _, err := s.oauth.FetchOAuthToken(ctx, code); err != nil {
		// the attempt that replaced this one owns the state
		if errors.Is(err, ErrDuplicateCode) || errors.Is(err, ErrCodeSuperseded) {
			return err
		}
		_ = s.transition(StateAuthInProgress, StateNoToken)
		return fmt.Errorf("authorization failed: %w", err)
	}

	if err := s.transition(StateAuthInProgress, StateTokenObtained); err != nil && s.State() != StateTokenObtained {
		return err
	}
	return nil
}

// LoadProfile fetches the profile, then the avatar and the first feed page.
// A profile failure returns to TokenObtained; avatar and feed failures do not block FeedReady.
func (s *Session) LoadProfile(ctx context.Context) error {
	s.mu.Lock()
	from := s.state
	s.mu.Unlock()
	if from != StateTokenObtained && from != StateFeedReady {
		return fmt.Errorf("%w: load profile from %s", ErrInvalidTransition, from)
	}
	if err := s.transition(from, StateProfileLoading); err != nil {
		return err
	}

	token, ok := s.storage.Token(ctx)
	if !ok {
		_ = s.transition(StateProfileLoading, StateTokenObtained)
		return ErrNoToken
	}

	profile, err := s.profile.FetchProfile(ctx, token)
	if err != nil {
		_ = s.transition(StateProfileLoading, StateTokenObtained)
		return fmt.Errorf("failed to load profile: %w", err)
	}

	if _, err := s.profileImage.FetchProfileImageURL(ctx, profile.Username); err != nil {
		log.Warn().Err(err).Str("username", profile.Username).Msg("Avatar not loaded")
	}

	if err := s.transition(StateProfileLoading, StateFeedReady); err != nil {
		return err
	}

	if _, loaded := s.imagesList.LastLoadedPage(); !loaded {
		if err := s.imagesList.FetchPhotosNextPage(ctx, token); err != nil && !IsSilent(err) {
			return fmt.Errorf("failed to load feed: %w", err)
		}
	}
	return nil
}

// Logout clears every piece of session state and returns to NoToken
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	from := s.state
	s.mu.Unlock()
	if err := s.transition(from, StateLogoutRequested); err != nil {
		return err
	}

	err := s.logout.Logout(ctx)
	_ = s.transition(StateLogoutRequested, StateNoToken)
	return err
}

// transition moves from -> to if the current state is from and the edge exists
func (s *Session) transition(from, to State) error {
	s.mu.Lock()
	if s.state != from || !allowed(from, to) {
		current := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s (current %s)", ErrInvalidTransition, from, to, current)
	}
	s.state = to
	s.mu.Unlock()

	log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("Session state changed")

	e := NewEvent(SessionStateDidChange)
	e.State = to
	s.bus.Publish(e)
	return nil
}

func allowed(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
