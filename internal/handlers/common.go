package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"image-feed/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// statusFor maps a service error to an HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNoToken):
		return http.StatusUnauthorized
	case errors.Is(err, services.ErrPhotoNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrFetchInProgress), errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict
	case services.IsKind(err, services.KindHTTPStatus), services.IsKind(err, services.KindTransport),
		services.IsKind(err, services.KindDecode):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
