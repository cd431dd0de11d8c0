package handlers

import (
	"net/http"

	"image-feed/internal/middleware"
	"image-feed/internal/models"
	"image-feed/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PhotoHandler handles feed-related HTTP requests
type PhotoHandler struct {
	storage    *services.TokenStorage
	imagesList *services.ImagesListService
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(storage *services.TokenStorage, imagesList *services.ImagesListService) *PhotoHandler {
	return &PhotoHandler{
		storage:    storage,
		imagesList: imagesList,
	}
}

// PhotosResponse is the current state of the feed
type PhotosResponse struct {
	Photos         []models.Photo `json:"photos"`
	Total          int            `json:"total"`
	LastLoadedPage int            `json:"last_loaded_page"`
}

// GetPhotos handles GET /api/v1/photos
func (h *PhotoHandler) GetPhotos(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.feed())
}

// FetchNextPage handles POST /api/v1/photos/next
func (h *PhotoHandler) FetchNextPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetViewerID(ctx)

	token, ok := h.storage.Token(ctx)
	if !ok {
		respondError(w, services.ErrNoToken.Error(), http.StatusUnauthorized)
		return
	}

	if err := h.imagesList.FetchPhotosNextPage(ctx, token); err != nil {
		if services.IsSilent(err) {
			respondJSON(w, http.StatusAccepted, h.feed())
			return
		}
		log.Error().
			Err(err).
			Str("viewer_id", viewerID).
			Msg("Failed to fetch next page")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	respondJSON(w, http.StatusOK, h.feed())
}

// LikePhoto handles POST /api/v1/photos/{photo_id}/like
func (h *PhotoHandler) LikePhoto(w http.ResponseWriter, r *http.Request) {
	h.changeLike(w, r, true)
}

// UnlikePhoto handles DELETE /api/v1/photos/{photo_id}/like
func (h *PhotoHandler) UnlikePhoto(w http.ResponseWriter, r *http.Request) {
	h.changeLike(w, r, false)
}

func (h *PhotoHandler) changeLike(w http.ResponseWriter, r *http.Request, isLike bool) {
	ctx := r.Context()
	viewerID := middleware.GetViewerID(ctx)
	photoID := chi.URLParam(r, "photo_id")

	token, ok := h.storage.Token(ctx)
	if !ok {
		respondError(w, services.ErrNoToken.Error(), http.StatusUnauthorized)
		return
	}

	if err := h.imagesList.ChangeLike(ctx, token, photoID, isLike); err != nil {
		log.Error().
			Err(err).
			Str("viewer_id", viewerID).
			Str("photo_id", photoID).
			Msg("Failed to change like")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	photo, _ := h.imagesList.Photo(photoID)
	respondJSON(w, http.StatusOK, photo)
}

func (h *PhotoHandler) feed() PhotosResponse {
	photos := h.imagesList.Photos()
	page, _ := h.imagesList.LastLoadedPage()
	return PhotosResponse{Photos: photos, Total: len(photos), LastLoadedPage: page}
}
