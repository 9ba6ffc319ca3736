package sse

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mkarlin/mafiagame-go/internal/model"
)

// directMessage targets a single player's connections
type directMessage struct {
	playerID model.PlayerID
	message  []byte
}

// groupMessage targets a set of players' connections
type groupMessage struct {
	playerIDs map[model.PlayerID]bool
	message   []byte
}

// Hub manages the SSE clients subscribed to one topic (a room, or the
// matchmaking queue). A player may hold several connections at once; sends
// addressed to a player reach all of them.
type Hub struct {
	topic   string
	clients map[*Client]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	direct     chan directMessage
	group      chan groupMessage
	done       chan struct{}
}

// NewHub creates a new Hub for a topic
func NewHub(topic string, logger *slog.Logger) *Hub {
	return &Hub{
		topic:      topic,
		clients:    make(map[*Client]bool),
		logger:     logger.With(slog.String("topic", topic)),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		direct:     make(chan directMessage, 256),
		group:      make(chan groupMessage, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	h.logger.Info("sse hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			clientCount := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("sse client registered",
				slog.String("player_id", string(client.playerID)),
				slog.Int("total_clients", clientCount))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				clientCount := len(h.clients)
				h.mu.Unlock()
				duration := time.Since(client.connectedAt)
				h.logger.Info("sse client unregistered",
					slog.String("player_id", string(client.playerID)),
					slog.Duration("connection_duration", duration),
					slog.Int("total_clients", clientCount))
			} else {
				h.mu.Unlock()
			}

		case message := <-h.broadcast:
			h.deliver(message, nil)

		case msg := <-h.direct:
			h.deliver(msg.message, map[model.PlayerID]bool{msg.playerID: true})

		case msg := <-h.group:
			h.deliver(msg.message, msg.playerIDs)

		case <-h.done:
			h.mu.Lock()
			clientCount := len(h.clients)
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			h.logger.Info("sse hub stopped", slog.Int("disconnected_clients", clientCount))
			return
		}
	}
}

// deliver pushes a message to clients, restricted to the given player set
// when non-nil. Clients with a full buffer drop the message rather than
// stalling the loop.
func (h *Hub) deliver(message []byte, audience map[model.PlayerID]bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	droppedCount := 0
	for client := range h.clients {
		if audience != nil && !audience[client.playerID] {
			continue
		}
		select {
		case client.send <- message:
		default:
			droppedCount++
			h.logger.Warn("sse message dropped - client buffer full",
				slog.String("player_id", string(client.playerID)))
		}
	}
	if droppedCount > 0 {
		h.logger.Warn("sse delivery partial failure", slog.Int("dropped", droppedCount))
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Broadcast sends a message to all clients
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("sse broadcast dropped - hub buffer full")
	}
}

// SendTo sends a message to all of one player's connections
func (h *Hub) SendTo(playerID model.PlayerID, message []byte) {
	select {
	case h.direct <- directMessage{playerID: playerID, message: message}:
	default:
		h.logger.Warn("sse direct send dropped - hub buffer full",
			slog.String("player_id", string(playerID)))
	}
}

// SendToSet sends a message to every player in the set
func (h *Hub) SendToSet(playerIDs map[model.PlayerID]bool, message []byte) {
	select {
	case h.group <- groupMessage{playerIDs: playerIDs, message: message}:
	default:
		h.logger.Warn("sse group send dropped - hub buffer full")
	}
}

// BroadcastEvent sends an SSE event with a name and data to all clients
func (h *Hub) BroadcastEvent(eventName, data string) {
	h.Broadcast(formatSSEMessage(eventName, data))
}

// SendEventTo sends an SSE event to one player
func (h *Hub) SendEventTo(playerID model.PlayerID, eventName, data string) {
	h.SendTo(playerID, formatSSEMessage(eventName, data))
}

// Close shuts down the hub
func (h *Hub) Close() {
	close(h.done)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// formatSSEMessage formats an SSE frame with event name and data.
// Multi-line data gets a "data: " prefix per line as the protocol requires.
func formatSSEMessage(eventName, data string) []byte {
	msg := "event: " + eventName + "\n"
	for _, line := range splitLines(data) {
		msg += "data: " + line + "\n"
	}
	msg += "\n"
	return []byte(msg)
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	var lines []string
	var current string
	for _, r := range s {
		if r == '\n' {
			lines = append(lines, current)
			current = ""
		} else if r != '\r' {
			current += string(r)
		}
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

// QueueTopic is the hub topic for matchmaking queue clients
const QueueTopic = "queue"

// RoomTopic returns the hub topic for a room's clients
func RoomTopic(id model.RoomID) string {
	return "room:" + string(id)
}

// HubManager manages hubs across all topics
type HubManager struct {
	hubs   map[string]*Hub
	mu     sync.RWMutex
	logger *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:   make(map[string]*Hub),
		logger: logger.With(slog.String("component", "sse")),
	}
}

// GetOrCreateHub returns the hub for a topic, creating one if it doesn't exist
func (m *HubManager) GetOrCreateHub(topic string) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[topic]; ok {
		return hub
	}

	hub := NewHub(topic, m.logger)
	m.hubs[topic] = hub
	go hub.Run()
	return hub
}

// GetHub returns the hub for a topic, or nil if it doesn't exist
func (m *HubManager) GetHub(topic string) *Hub {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.hubs[topic]
}

// RemoveHub removes and closes a hub
func (m *HubManager) RemoveHub(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[topic]; ok {
		hub.Close()
		delete(m.hubs, topic)
		m.logger.Info("sse hub removed", slog.String("topic", topic))
	}
}
