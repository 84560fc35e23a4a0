package handlers

import (
	"net"
	"net/http"
	"net/url"
	"time"

	"imagefeed/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: LocalOrigin,
}

// LocalOrigin accepts clients without an Origin header and pages served from loopback
func LocalOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// WebSocketHandler streams change events to the external UI
type WebSocketHandler struct {
	notifier *services.Notifier
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(notifier *services.Notifier) *WebSocketHandler {
	return &WebSocketHandler{notifier: notifier}
}

// HandleWebSocket handles GET /ws
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()

	id, events := h.notifier.Subscribe()
	defer h.notifier.Unsubscribe(id)

	log.Info().Str("subscriber_id", id).Msg("WebSocket connection established")

	// the stream is one-way; reading only detects the client going away
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Error().Err(err).Str("subscriber_id", id).Msg("WebSocket error")
				}
				return
			}
		}
	}()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Error().Err(err).Str("subscriber_id", id).Msg("Failed to write event")
				return
			}
		case <-closed:
			log.Info().Str("subscriber_id", id).Msg("WebSocket connection closed")
			return
		case <-r.Context().Done():
			return
		}
	}
}
