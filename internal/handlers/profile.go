package handlers

import (
	"net/http"

	"image-feed/internal/middleware"
	"image-feed/internal/models"
	"image-feed/internal/services"

	"github.com/rs/zerolog/log"
)

// ProfileHandler serves the cached profile and the logout action
type ProfileHandler struct {
	session      *services.Session
	profile      *services.ProfileService
	profileImage *services.ProfileImageService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(
	session *services.Session,
	profile *services.ProfileService,
	profileImage *services.ProfileImageService,
) *ProfileHandler {
	return &ProfileHandler{
		session:      session,
		profile:      profile,
		profileImage: profileImage,
	}
}

// ProfileResponse is the signed-in user's profile
type ProfileResponse struct {
	Profile   models.Profile `json:"profile"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	State     services.State `json:"state"`
}

// GetProfile handles GET /api/v1/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, ok := h.profile.Profile()
	if !ok {
		respondError(w, "profile not loaded", http.StatusNotFound)
		return
	}
	avatar, _ := h.profileImage.AvatarURL()

	respondJSON(w, http.StatusOK, ProfileResponse{
		Profile:   profile,
		AvatarURL: avatar,
		State:     h.session.State(),
	})
}

// Logout handles POST /api/v1/logout
func (h *ProfileHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetViewerID(ctx)

	if err := h.session.Logout(ctx); err != nil {
		log.Error().
			Err(err).
			Str("viewer_id", viewerID).
			Msg("Logout finished with errors")
		respondError(w, err.Error(), statusFor(err))
		return
	}

	log.Info().Str("viewer_id", viewerID).Msg("Logged out")
	w.WriteHeader(http.StatusNoContent)
}
