package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"image-feed/internal/models"

	"github.com/rs/zerolog/log"
)

// ImagesListService holds the paginated photo feed
type ImagesListService struct {
	api     *APIClient
	bus     *EventBus
	perPage int

	mu             sync.RWMutex
	photos         []models.Photo
	lastLoadedPage int
	fetching       bool
	// generation changes on ClearData; a fetch started in an older generation is discarded
	generation  uint64
	cancelFetch context.CancelFunc
}

// NewImagesListService creates a new images list service
func NewImagesListService(api *APIClient, bus *EventBus, perPage int) *ImagesListService {
	if perPage <= 0 {
		perPage = 10
	}
	return &ImagesListService{api: api, bus: bus, perPage: perPage}
}

// FetchPhotosNextPage loads the page after the last loaded one. Only one fetch runs at a
// time; a call made while another is in flight returns ErrFetchInProgress without a request.
func (s *ImagesListService) FetchPhotosNextPage(ctx context.Context, token string) error {
	const op = "FetchPhotosNextPage"

	s.mu.Lock()
	if s.fetching {
		s.mu.Unlock()
		return ErrFetchInProgress
	}
	s.fetching = true
	nextPage := s.lastLoadedPage + 1
	generation := s.generation
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFetch = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.generation == generation {
			s.fetching = false
			s.cancelFetch = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	query := url.Values{}
	query.Set("page", strconv.Itoa(nextPage))
	query.Set("per_page", strconv.Itoa(s.perPage))

	req, err := s.api.newRequest(ctx, op, http.MethodGet, query, token, "photos")
	if err != nil {
		return err
	}

	var results []models.PhotoResult
	if err := s.api.object(req, op, &results); err != nil {
		if s.stale(generation) {
			return ErrFeedReset
		}
		log.Error().Err(err).Int("page", nextPage).Msg("Failed to fetch photos")
		return err
	}

	s.mu.Lock()
	if s.generation != generation {
		s.mu.Unlock()
		log.Debug().Int("page", nextPage).Msg("Dropping page fetched before the feed was cleared")
		return ErrFeedReset
	}
	known := make(map[string]struct{}, len(s.photos))
	for _, p := range s.photos {
		known[p.ID] = struct{}{}
	}
	added := 0
	for _, r := range results {
		if _, dup := known[r.ID]; dup {
			continue
		}
		known[r.ID] = struct{}{}
		s.photos = append(s.photos, r.Photo())
		added++
	}
	s.lastLoadedPage = nextPage
	count := len(s.photos)
	s.mu.Unlock()

	log.Info().
		Int("page", nextPage).
		Int("received", len(results)).
		Int("added", added).
		Msg("Photos page loaded")

	s.publish(count)
	return nil
}

// FetchPhoto loads a single photo; the cached copy is used when the feed already has it
func (s *ImagesListService) FetchPhoto(ctx context.Context, token, photoID string) (models.Photo, error) {
	const op = "FetchPhoto"

	if photo, ok := s.Photo(photoID); ok {
		return photo, nil
	}

	req, err := s.api.newRequest(ctx, op, http.MethodGet, nil, token, "photos", url.PathEscape(photoID))
	if err != nil {
		return models.Photo{}, err
	}

	var result models.PhotoResult
	if err := s.api.object(req, op, &result); err != nil {
		log.Error().Err(err).Str("photo_id", photoID).Msg("Failed to fetch photo")
		return models.Photo{}, err
	}
	return result.Photo(), nil
}

// ChangeLike likes (POST) or unlikes (DELETE) a photo and flips its local flag on success
func (s *ImagesListService) ChangeLike(ctx context.Context, token, photoID string, isLike bool) error {
	const op = "ChangeLike"

	method := http.MethodDelete
	if isLike {
		method = http.MethodPost
	}

	req, err := s.api.newRequest(ctx, op, method, nil, token, "photos", url.PathEscape(photoID), "like")
	if err != nil {
		return err
	}
	if _, err := s.api.data(req, op); err != nil {
		log.Error().Err(err).Str("photo_id", photoID).Bool("like", isLike).Msg("Failed to change like")
		return err
	}

	s.mu.Lock()
	idx := -1
	for i := range s.photos {
		if s.photos[i].ID == photoID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrPhotoNotFound
	}
	s.photos[idx].IsLiked = isLike
	count := len(s.photos)
	s.mu.Unlock()

	log.Info().Str("photo_id", photoID).Bool("like", isLike).Msg("Like changed")
	s.publish(count)
	return nil
}

// Photos returns a copy of the loaded photos
func (s *ImagesListService) Photos() []models.Photo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Photo, len(s.photos))
	copy(out, s.photos)
	return out
}

// Photo returns the loaded photo with the given id
func (s *ImagesListService) Photo(id string) (models.Photo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.photos {
		if p.ID == id {
			return p, true
		}
	}
	return models.Photo{}, false
}

// LastLoadedPage returns the page cursor; false before the first successful fetch
func (s *ImagesListService) LastLoadedPage() (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastLoadedPage, s.lastLoadedPage > 0
}

// ClearData drops every photo, resets the cursor and cancels a fetch in flight
func (s *ImagesListService) ClearData() {
	s.mu.Lock()
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.fetching = false
	s.generation++
	s.photos = nil
	s.lastLoadedPage = 0
	s.mu.Unlock()

	s.publish(0)
}

func (s *ImagesListService) stale(generation uint64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation != generation
}

func (s *ImagesListService) publish(count int) {
	e := NewEvent(ImagesListDidChange)
	e.Count = count
	s.bus.Publish(e)
}
