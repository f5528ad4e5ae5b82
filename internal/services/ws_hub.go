package services

import (
	"sync"

	"party-radar-backend/internal/models"
	"party-radar-backend/internal/reconcile"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// TopicBeacons is the beacon insert-event feed shared by all map viewers
const TopicBeacons = "beacons"

// ChatTopic names the per-conversation message feed
func ChatTopic(beaconID string) string {
	return "chat:" + beaconID
}

// WSMessage represents a WebSocket frame, both directions
type WSMessage struct {
	Type     string                 `json:"type"`
	BeaconID string                 `json:"beacon_id,omitempty"`
	Lat      float64                `json:"lat,omitempty"`
	Lng      float64                `json:"lng,omitempty"`
	RadiusM  float64                `json:"radius_m,omitempty"`
	Beacon   *models.NearbyBeacon   `json:"beacon,omitempty"`
	Beacons  []*models.NearbyBeacon `json:"beacons,omitempty"`
	Chat     *models.Message        `json:"chat_message,omitempty"`
	Chats    []*models.Message      `json:"chat_messages,omitempty"`
	Message  string                 `json:"message,omitempty"`
}

// WSClient is one connected subscriber. The write mutex also guards the
// reconciliation views, so event filtering and frame writes stay atomic.
type WSClient struct {
	UserID string

	mu         sync.Mutex
	conn       *websocket.Conn
	topics     map[string]struct{}
	beaconView *reconcile.BeaconView
	chatViews  map[string]*reconcile.ChatView
}

// Send writes a frame to the client
func (c *WSClient) Send(msg WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// ClearBeaconView drops the visible beacon set ahead of a fresh subscription
func (c *WSClient) ClearBeaconView() {
	c.mu.Lock()
	c.beaconView = nil
	c.mu.Unlock()
}

// SetBeaconSnapshot installs the initial snapshot. Insert events that raced
// ahead of the snapshot query are kept: the frame the client receives is
// snapshot rows first, early stream arrivals after, deduplicated by id.
func (c *WSClient) SetBeaconSnapshot(beacons []*models.NearbyBeacon) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := reconcile.NewBeaconView()
	view.Replace(beacons)
	if c.beaconView != nil {
		for _, b := range c.beaconView.Beacons() {
			view.ApplyInsert(b)
		}
	}
	c.beaconView = view
	return c.conn.WriteJSON(WSMessage{
		Type:    "beacons_snapshot",
		Beacons: view.Beacons(),
	})
}

// ResetBeaconSnapshot replaces the visible set atomically on an explicit
// refresh. No merging: the fresh snapshot self-heals from any missed or
// stale state.
func (c *WSClient) ResetBeaconSnapshot(beacons []*models.NearbyBeacon) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.beaconView == nil {
		c.beaconView = reconcile.NewBeaconView()
	}
	c.beaconView.Replace(beacons)
	return c.conn.WriteJSON(WSMessage{
		Type:    "beacons_snapshot",
		Beacons: c.beaconView.Beacons(),
	})
}

// ClearChatView drops one conversation's visible list ahead of a fresh
// subscription
func (c *WSClient) ClearChatView(beaconID string) {
	c.mu.Lock()
	delete(c.chatViews, beaconID)
	c.mu.Unlock()
}

// SetChatSnapshot installs the authoritative history for a conversation,
// keeping messages that streamed in ahead of the history read.
func (c *WSClient) SetChatSnapshot(beaconID string, messages []*models.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := reconcile.NewChatView()
	view.Replace(messages)
	if prev, ok := c.chatViews[beaconID]; ok {
		for _, m := range prev.Messages() {
			view.ApplyInsert(m)
		}
	}
	c.chatViews[beaconID] = view
	return c.conn.WriteJSON(WSMessage{
		Type:     "chat_snapshot",
		BeaconID: beaconID,
		Chats:    view.Messages(),
	})
}

// ResetChatSnapshot replaces a conversation's visible list with the
// authoritative history, resolving any gap the stream left
func (c *WSClient) ResetChatSnapshot(beaconID string, messages []*models.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, ok := c.chatViews[beaconID]
	if !ok {
		view = reconcile.NewChatView()
		c.chatViews[beaconID] = view
	}
	if view.NeedsResync(len(messages)) {
		log.Debug().Str("beacon_id", beaconID).Msg("Chat view diverged from history, resyncing")
	}
	view.Replace(messages)
	return c.conn.WriteJSON(WSMessage{
		Type:     "chat_snapshot",
		BeaconID: beaconID,
		Chats:    view.Messages(),
	})
}

// deliverBeacon forwards a beacon insert event if the client's view accepts
// it. Duplicates and malformed rows are dropped without a frame. The view is
// created lazily so events arriving before the snapshot are not lost.
func (c *WSClient) deliverBeacon(beacon *models.NearbyBeacon) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.beaconView == nil {
		c.beaconView = reconcile.NewBeaconView()
	}
	if !c.beaconView.ApplyInsert(beacon) {
		return nil
	}
	return c.conn.WriteJSON(WSMessage{Type: "beacon_created", Beacon: beacon})
}

// deliverChat forwards a committed chat message if the conversation view
// accepts it
func (c *WSClient) deliverChat(message *models.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	view, ok := c.chatViews[message.BeaconID]
	if !ok {
		view = reconcile.NewChatView()
		c.chatViews[message.BeaconID] = view
	}
	if !view.ApplyInsert(message) {
		return nil
	}
	return c.conn.WriteJSON(WSMessage{Type: "chat_message", BeaconID: message.BeaconID, Chat: message})
}

func (c *WSClient) subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.topics[topic]
	return ok
}

// WSHub manages WebSocket subscribers and fans committed insert events out
// to the topics they watch. Delivery is best effort and at-least-once from
// the subscriber's point of view; snapshots are the source of truth.
type WSHub struct {
	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{clients: make(map[*WSClient]struct{})}
}

// Register registers a new WebSocket connection for a user
func (h *WSHub) Register(userID string, conn *websocket.Conn) *WSClient {
	client := &WSClient{
		UserID:    userID,
		conn:      conn,
		topics:    make(map[string]struct{}),
		chatViews: make(map[string]*reconcile.ChatView),
	}

	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
	return client
}

// Unregister removes a WebSocket connection
func (h *WSHub) Unregister(client *WSClient) {
	h.mu.Lock()
	delete(h.clients, client)
	h.mu.Unlock()

	log.Info().Str("user_id", client.UserID).Msg("WebSocket connection unregistered")
}

// Subscribe adds the client to a topic. Callers must subscribe before taking
// the matching snapshot so no insert lands in neither.
func (h *WSHub) Subscribe(client *WSClient, topic string) {
	client.mu.Lock()
	client.topics[topic] = struct{}{}
	client.mu.Unlock()
}

// Unsubscribe removes the client from a topic
func (h *WSHub) Unsubscribe(client *WSClient, topic string) {
	client.mu.Lock()
	delete(client.topics, topic)
	client.mu.Unlock()
}

// BroadcastBeacon fans a committed beacon out to every beacon-feed subscriber
func (h *WSHub) BroadcastBeacon(beacon *models.NearbyBeacon) {
	for _, client := range h.snapshotClients() {
		if !client.subscribed(TopicBeacons) {
			continue
		}
		if err := client.deliverBeacon(beacon); err != nil {
			log.Error().Err(err).Str("user_id", client.UserID).Msg("Failed to deliver beacon event")
		}
	}
}

// BroadcastMessage fans a committed chat message out to the conversation's
// subscribers
func (h *WSHub) BroadcastMessage(message *models.Message) {
	topic := ChatTopic(message.BeaconID)
	for _, client := range h.snapshotClients() {
		if !client.subscribed(topic) {
			continue
		}
		if err := client.deliverChat(message); err != nil {
			log.Error().Err(err).Str("user_id", client.UserID).Msg("Failed to deliver chat event")
		}
	}
}

// IsOnline checks if a user has at least one live connection
func (h *WSHub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if client.UserID == userID {
			return true
		}
	}
	return false
}

func (h *WSHub) snapshotClients() []*WSClient {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients := make([]*WSClient, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	return clients
}
