package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"image-feed/internal/middleware"
	"image-feed/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // viewers connect from localhost pages with arbitrary origins
	},
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub        *services.WSHub
	tokens     *services.ViewerTokenService
	storage    *services.TokenStorage
	imagesList *services.ImagesListService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	tokens *services.ViewerTokenService,
	storage *services.TokenStorage,
	imagesList *services.ImagesListService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:        hub,
		tokens:     tokens,
		storage:    storage,
		imagesList: imagesList,
	}
}

// HandleWebSocket handles WebSocket connections
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	viewerID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.tokens)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	h.hub.Register(viewerID, conn)
	defer h.hub.Unregister(viewerID, conn)

	ctx := r.Context()

	count := len(h.imagesList.Photos())
	status := services.NewEvent(services.ImagesListDidChange)
	status.Count = count
	if err := h.hub.SendToViewer(viewerID, services.WSMessage{Type: "feed_status", Event: &status}); err != nil {
		log.Error().Err(err).Str("viewer_id", viewerID).Msg("Failed to send feed_status message")
	}

	log.Info().Str("viewer_id", viewerID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("viewer_id", viewerID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("viewer_id", viewerID).Msg("Failed to parse WebSocket message")
			h.sendErrorToViewer(viewerID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, viewerID, msg); err != nil {
			log.Error().Err(err).Str("viewer_id", viewerID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendErrorToViewer(viewerID, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, viewerID string, msg services.WSMessage) error {
	switch msg.Type {
	case "fetch_next_page":
		return h.handleFetchNextPage(ctx)
	case "change_like":
		return h.handleChangeLike(ctx, viewerID, msg)
	default:
		return errors.New("unknown message type")
	}
}

// handleFetchNextPage handles fetch_next_page; the result arrives as a bus event
func (h *WebSocketHandler) handleFetchNextPage(ctx context.Context) error {
	token, ok := h.storage.Token(ctx)
	if !ok {
		return services.ErrNoToken
	}
	if err := h.imagesList.FetchPhotosNextPage(ctx, token); err != nil && !services.IsSilent(err) {
		return err
	}
	return nil
}

// handleChangeLike handles change_like
func (h *WebSocketHandler) handleChangeLike(ctx context.Context, viewerID string, msg services.WSMessage) error {
	if msg.PhotoID == "" || msg.Liked == nil {
		return errors.New("photo_id and liked are required")
	}

	token, ok := h.storage.Token(ctx)
	if !ok {
		return services.ErrNoToken
	}
	if err := h.imagesList.ChangeLike(ctx, token, msg.PhotoID, *msg.Liked); err != nil {
		return err
	}

	log.Info().
		Str("viewer_id", viewerID).
		Str("photo_id", msg.PhotoID).
		Bool("liked", *msg.Liked).
		Msg("Like changed over WebSocket")

	return h.hub.SendToViewer(viewerID, services.WSMessage{Type: "like_changed", PhotoID: msg.PhotoID, Liked: msg.Liked})
}

// sendErrorToViewer sends an error message to a viewer
func (h *WebSocketHandler) sendErrorToViewer(viewerID, message string) {
	msg := services.WSMessage{
		Type:    "error",
		Message: message,
	}
	if err := h.hub.SendToViewer(viewerID, msg); err != nil {
		log.Error().Err(err).Str("viewer_id", viewerID).Msg("Failed to send error message")
	}
}
