package handlers

import (
	"net/http"

	"image-feed/internal/services"

	"github.com/rs/zerolog/log"
)

// RedirectHandler captures the OAuth redirect on the loopback interface
type RedirectHandler struct {
	helper *services.AuthHelper
	codes  chan string
}

// NewRedirectHandler creates a new redirect handler
func NewRedirectHandler(helper *services.AuthHelper) *RedirectHandler {
	return &RedirectHandler{
		helper: helper,
		codes:  make(chan string, 1),
	}
}

// Codes delivers the captured authorization codes
func (h *RedirectHandler) Codes() <-chan string {
	return h.codes
}

// HandleNativeCallback handles GET /oauth/authorize/native
func (h *RedirectHandler) HandleNativeCallback(w http.ResponseWriter, r *http.Request) {
	policy, code := h.helper.DecidePolicy(r.URL)
	if policy != services.PolicyCancel {
		respondError(w, "authorization code missing", http.StatusBadRequest)
		return
	}

	select {
	case h.codes <- code:
		log.Info().Msg("Authorization code captured")
	default:
		log.Warn().Msg("Authorization code dropped, a previous code is still pending")
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Authorization complete. You can close this window.\n"))
}
