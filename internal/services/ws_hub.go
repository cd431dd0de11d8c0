package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string `json:"type"`
	PhotoID string `json:"photo_id,omitempty"`
	Liked   *bool  `json:"liked,omitempty"`
	Message string `json:"message,omitempty"`
	Event   *Event `json:"event,omitempty"`
}

// WSHub manages viewer WebSocket connections and pushes bus events to them
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*websocket.Conn
	writeMu     map[string]*sync.Mutex
	bus         *EventBus
}

// NewWSHub creates a new WebSocket hub
func NewWSHub(bus *EventBus) *WSHub {
	return &WSHub{
		connections: make(map[string]*websocket.Conn),
		writeMu:     make(map[string]*sync.Mutex),
		bus:         bus,
	}
}

// Run forwards bus events to every connected viewer until ctx is done
func (h *WSHub) Run(ctx context.Context) {
	events, unsubscribe := h.bus.Subscribe(ImagesListDidChange, ProfileImageDidChange, SessionStateDidChange)
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			h.Broadcast(WSMessage{Type: "event", Event: &e})
		}
	}
}

// Register registers a new WebSocket connection for a viewer
func (h *WSHub) Register(viewerID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existingConn, exists := h.connections[viewerID]; exists {
		existingConn.Close()
	}

	h.connections[viewerID] = conn
	h.writeMu[viewerID] = &sync.Mutex{}

	log.Info().Str("viewer_id", viewerID).Msg("WebSocket connection registered")
}

// Unregister removes a viewer's WebSocket connection if conn is still the registered one
func (h *WSHub) Unregister(viewerID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, exists := h.connections[viewerID]; exists && current == conn {
		conn.Close()
		delete(h.connections, viewerID)
		delete(h.writeMu, viewerID)
		log.Info().Str("viewer_id", viewerID).Msg("WebSocket connection unregistered")
	}
}

// SendToViewer sends a message to a specific viewer
func (h *WSHub) SendToViewer(viewerID string, message WSMessage) error {
	h.mu.RLock()
	conn, exists := h.connections[viewerID]
	wmu := h.writeMu[viewerID]
	h.mu.RUnlock()

	if !exists {
		return fmt.Errorf("viewer %s is not connected", viewerID)
	}

	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	wmu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	wmu.Unlock()
	if err != nil {
		h.Unregister(viewerID, conn)
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// Broadcast sends a message to every connected viewer
func (h *WSHub) Broadcast(message WSMessage) {
	h.mu.RLock()
	ids := make([]string, 0, len(h.connections))
	for id := range h.connections {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		if err := h.SendToViewer(id, message); err != nil {
			log.Error().Err(err).Str("viewer_id", id).Msg("Failed to broadcast message")
		}
	}
}

// IsOnline checks if a viewer is connected
func (h *WSHub) IsOnline(viewerID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, exists := h.connections[viewerID]
	return exists
}

func (h *WSHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.connections {
		conn.Close()
		delete(h.connections, id)
		delete(h.writeMu, id)
	}
}
