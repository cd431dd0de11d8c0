package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// ProfileLogoutService wipes every piece of session state
type ProfileLogoutService struct {
	storage      *TokenStorage
	profile      *ProfileService
	profileImage *ProfileImageService
	imagesList   *ImagesListService
	images       *ImageCache
}

// NewProfileLogoutService creates a new logout service
func NewProfileLogoutService(
	storage *TokenStorage,
	profile *ProfileService,
	profileImage *ProfileImageService,
	imagesList *ImagesListService,
	images *ImageCache,
) *ProfileLogoutService {
	return &ProfileLogoutService{
		storage:      storage,
		profile:      profile,
		profileImage: profileImage,
		imagesList:   imagesList,
		images:       images,
	}
}

// Logout clears the token, profile, avatar, photo list and image caches.
// Every step runs even if an earlier one fails; the first error is returned.
func (s *ProfileLogoutService) Logout(ctx context.Context) error {
	var firstErr error

	if err := s.storage.Clear(ctx); err != nil {
		firstErr = fmt.Errorf("failed to clear token: %w", err)
	}

	s.profile.Reset()
	s.profileImage.Reset()
	s.imagesList.ClearData()

	if s.images != nil {
		s.images.ClearMemoryCache()
		if err := s.images.ClearDiskCache(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		log.Error().Err(firstErr).Msg("Logout finished with errors")
		return firstErr
	}

	log.Info().Msg("Logged out")
	return nil
}
