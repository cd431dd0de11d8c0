package handlers

import (
	"net/http"

	"image-feed/internal/services"

	"github.com/rs/zerolog/log"
)

// ViewerHandler issues tokens for companion-server viewers
type ViewerHandler struct {
	tokens *services.ViewerTokenService
}

// NewViewerHandler creates a new viewer handler
func NewViewerHandler(tokens *services.ViewerTokenService) *ViewerHandler {
	return &ViewerHandler{
		tokens: tokens,
	}
}

// ViewerResponse is returned when a viewer is created
type ViewerResponse struct {
	ViewerID string `json:"viewer_id"`
	Token    string `json:"token"`
}

// CreateViewer handles POST /api/v1/viewers
func (h *ViewerHandler) CreateViewer(w http.ResponseWriter, r *http.Request) {
	token, viewerID, err := h.tokens.Issue()
	if err != nil {
		log.Error().Err(err).Msg("Failed to issue viewer token")
		respondError(w, "Failed to create viewer", http.StatusInternalServerError)
		return
	}

	log.Info().Str("viewer_id", viewerID).Msg("Viewer created")

	respondJSON(w, http.StatusOK, ViewerResponse{ViewerID: viewerID, Token: token})
}
