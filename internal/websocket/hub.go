package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/frostdev-ops/pma-goveelife/internal/adapters/goveelife"
	"github.com/frostdev-ops/pma-goveelife/internal/config"
	"github.com/sirupsen/logrus"
)

// ConnectionRecorder receives hub measurements
type ConnectionRecorder interface {
	RecordWebSocketConnection(delta int)
	RecordWebSocketMessage(messageType string)
}

type nopRecorder struct{}

func (nopRecorder) RecordWebSocketConnection(int)  {}
func (nopRecorder) RecordWebSocketMessage(string) {}

// outbound is a broadcast addressed to the subscribers of entityID, or to
// every client when entityID is empty
type outbound struct {
	entityID    string
	messageType string
	data        []byte
}

// Hub maintains the set of active clients and broadcasts messages to the clients
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	logger   *logrus.Logger
	recorder ConnectionRecorder
	timeouts timeouts

	mu    sync.RWMutex
	stats HubStats
}

type timeouts struct {
	ping  time.Duration
	pong  time.Duration
	write time.Duration
}

// HubStats contains hub statistics
type HubStats struct {
	ConnectedClients int       `json:"connected_clients"`
	TotalConnections int64     `json:"total_connections"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	MessagesDropped  int64     `json:"messages_dropped"`
	LastActivity     time.Time `json:"last_activity"`
}

// NewHub creates a new WebSocket hub. A nil recorder disables measurements.
func NewHub(cfg config.WebSocketConfig, recorder ConnectionRecorder, logger *logrus.Logger) *Hub {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
		recorder:   recorder,
		timeouts: timeouts{
			ping:  secondsOr(cfg.PingInterval, 30),
			pong:  secondsOr(cfg.PongTimeout, 60),
			write: secondsOr(cfg.WriteTimeout, 10),
		},
		stats: HubStats{LastActivity: time.Now()},
	}
}

func secondsOr(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}

// Run handles client registration and broadcasting until ctx is done
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")

	ticker := time.NewTicker(h.timeouts.ping)
	defer ticker.Stop()
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case <-ticker.C:
			h.sendHeartbeat()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.stats.TotalConnections++
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()
	connected := len(h.clients)
	h.mu.Unlock()

	h.recorder.RecordWebSocketConnection(1)
	h.logger.WithFields(logrus.Fields{
		"client_id":         client.ID,
		"remote_addr":       client.RemoteAddr,
		"connected_clients": connected,
	}).Info("WebSocket client connected")

	welcome := Message{
		Type: MessageTypeConnection,
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.ID,
		},
	}
	client.send <- welcome.ToJSON()
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		h.removeLocked(client)
	}
	connected := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.logger.WithFields(logrus.Fields{
			"client_id":         client.ID,
			"connected_clients": connected,
		}).Info("WebSocket client disconnected")
	}
}

// removeLocked drops client and closes its send channel. h.mu must be held.
func (h *Hub) removeLocked(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.stats.ConnectedClients = len(h.clients)
	h.stats.LastActivity = time.Now()
	h.recorder.RecordWebSocketConnection(-1)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		h.removeLocked(client)
	}
}

func (h *Hub) broadcastMessage(message outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sent := 0
	for client := range h.clients {
		if message.entityID != "" && !client.IsSubscribed(message.entityID) {
			continue
		}
		select {
		case client.send <- message.data:
			sent++
		default:
			// send buffer is full, drop the client
			h.logger.WithField("client_id", client.ID).Warn("WebSocket client too slow, disconnecting")
			h.removeLocked(client)
		}
	}

	h.stats.MessagesSent++
	h.stats.LastActivity = time.Now()
	h.recorder.RecordWebSocketMessage(message.messageType)

	h.logger.WithFields(logrus.Fields{
		"message_type": message.messageType,
		"message_size": len(message.data),
		"clients_sent": sent,
	}).Debug("Message broadcasted to WebSocket clients")
}

func (h *Hub) sendHeartbeat() {
	heartbeat := Message{
		Type: MessageTypeHeartbeat,
		Data: map[string]interface{}{
			"clients": h.GetClientCount(),
		},
	}
	h.BroadcastToAll(heartbeat)
}

// BroadcastToAll broadcasts a message to all connected clients
func (h *Hub) BroadcastToAll(message Message) {
	h.enqueue(outbound{messageType: message.Type, data: message.ToJSON()})
}

// BroadcastToEntity broadcasts a message to the clients following entityID.
// Clients without subscriptions follow every entity.
func (h *Hub) BroadcastToEntity(entityID string, message Message) {
	h.enqueue(outbound{entityID: entityID, messageType: message.Type, data: message.ToJSON()})
}

func (h *Hub) enqueue(message outbound) {
	select {
	case h.broadcast <- message:
	default:
		h.mu.Lock()
		h.stats.MessagesDropped++
		h.mu.Unlock()
		h.logger.WithField("message_type", message.messageType).Warn("Broadcast channel is full, message dropped")
	}
}

// NotifyStateChanged implements goveelife.StateNotifier
func (h *Hub) NotifyStateChanged(state goveelife.ClimateState) {
	h.BroadcastToEntity(state.EntityID, ClimateStateChangedMessage(state))
}

// GetStats returns a snapshot of the hub statistics
func (h *Hub) GetStats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.stats
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// attach registers client unless the hub has stopped
func (h *Hub) attach(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// detach unregisters client unless the hub has stopped
func (h *Hub) detach(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// reply queues data for one client if it is still registered
func (h *Hub) reply(client *Client, message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- message.ToJSON():
	default:
		h.logger.WithField("client_id", client.ID).Warn("WebSocket reply dropped")
	}
}

func (h *Hub) messageReceived() {
	h.mu.Lock()
	h.stats.MessagesReceived++
	h.stats.LastActivity = time.Now()
	h.mu.Unlock()
}
