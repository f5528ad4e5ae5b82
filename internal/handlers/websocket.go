package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"party-radar-backend/internal/models"
	"party-radar-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for MVP
	},
}

// WebSocketHandler serves the change-notification stream: beacon insert
// events and per-conversation chat messages, each reconciled against an
// authoritative snapshot.
type WebSocketHandler struct {
	hub           *services.WSHub
	identity      *services.IdentityService
	beaconService *services.BeaconService
	chatService   *services.ChatService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	identity *services.IdentityService,
	beaconService *services.BeaconService,
	chatService *services.ChatService,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		identity:      identity,
		beaconService: beaconService,
		chatService:   chatService,
	}
}

// wsSession remembers the observer position of the beacon subscription so a
// refresh can re-issue the same snapshot
type wsSession struct {
	user         *models.AuthUser
	client       *services.WSClient
	beaconParams *beaconFeedParams
}

type beaconFeedParams struct {
	lat, lng, radius float64
}

// HandleWebSocket handles GET /ws?token=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token required", http.StatusUnauthorized)
		return
	}

	user, err := h.identity.ValidateToken(token)
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

	client := h.hub.Register(user.ID, conn)
	defer h.hub.Unregister(client)

	session := &wsSession{user: user, client: client}
	ctx := r.Context()

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", user.ID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to parse WebSocket message")
			h.sendError(client, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, session, msg); err != nil {
			log.Error().Err(err).Str("user_id", user.ID).Str("type", msg.Type).Msg("Failed to handle message")
			h.sendError(client, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, session *wsSession, msg services.WSMessage) error {
	switch msg.Type {
	case "subscribe_beacons":
		return h.handleSubscribeBeacons(ctx, session, msg)
	case "refresh":
		return h.handleRefreshBeacons(ctx, session)
	case "subscribe_chat":
		return h.handleSubscribeChat(ctx, session, msg)
	case "refresh_chat":
		return h.handleRefreshChat(ctx, session, msg)
	case "unsubscribe_chat":
		h.hub.Unsubscribe(session.client, services.ChatTopic(msg.BeaconID))
		return nil
	default:
		h.sendError(session.client, "Unknown message type")
		return nil
	}
}

// handleSubscribeBeacons opens the insert-event stream and then takes the
// proximity snapshot. Subscribing first closes the race window where an
// insert lands in neither the stream nor the snapshot.
func (h *WebSocketHandler) handleSubscribeBeacons(ctx context.Context, session *wsSession, msg services.WSMessage) error {
	radius := msg.RadiusM
	if radius == 0 {
		radius = defaultRadiusMeters
	}

	session.client.ClearBeaconView()
	h.hub.Subscribe(session.client, services.TopicBeacons)

	beacons, err := h.beaconService.FindNearby(ctx, msg.Lat, msg.Lng, radius)
	if err != nil {
		h.hub.Unsubscribe(session.client, services.TopicBeacons)
		return err
	}

	session.beaconParams = &beaconFeedParams{lat: msg.Lat, lng: msg.Lng, radius: radius}
	return session.client.SetBeaconSnapshot(beacons)
}

// handleRefreshBeacons re-issues the snapshot and replaces the visible set
// atomically, healing any events missed on the stream
func (h *WebSocketHandler) handleRefreshBeacons(ctx context.Context, session *wsSession) error {
	params := session.beaconParams
	if params == nil {
		h.sendError(session.client, "Not subscribed to beacons")
		return nil
	}

	beacons, err := h.beaconService.FindNearby(ctx, params.lat, params.lng, params.radius)
	if err != nil {
		return err
	}
	return session.client.ResetBeaconSnapshot(beacons)
}

func (h *WebSocketHandler) handleSubscribeChat(ctx context.Context, session *wsSession, msg services.WSMessage) error {
	if msg.BeaconID == "" {
		h.sendError(session.client, "beacon_id is required")
		return nil
	}

	topic := services.ChatTopic(msg.BeaconID)
	session.client.ClearChatView(msg.BeaconID)
	h.hub.Subscribe(session.client, topic)

	history, err := h.chatService.History(ctx, session.user, msg.BeaconID)
	if err != nil {
		h.hub.Unsubscribe(session.client, topic)
		return err
	}
	return session.client.SetChatSnapshot(msg.BeaconID, history)
}

// handleRefreshChat replaces the conversation view with the authoritative
// history, resolving any gap the stream may have left
func (h *WebSocketHandler) handleRefreshChat(ctx context.Context, session *wsSession, msg services.WSMessage) error {
	if msg.BeaconID == "" {
		h.sendError(session.client, "beacon_id is required")
		return nil
	}

	history, err := h.chatService.History(ctx, session.user, msg.BeaconID)
	if err != nil {
		return err
	}
	return session.client.ResetChatSnapshot(msg.BeaconID, history)
}

// sendError sends an error frame to the client
func (h *WebSocketHandler) sendError(client *services.WSClient, message string) {
	if err := client.Send(services.WSMessage{Type: "error", Message: message}); err != nil {
		log.Error().Err(err).Str("user_id", client.UserID).Msg("Failed to send error frame")
	}
}
