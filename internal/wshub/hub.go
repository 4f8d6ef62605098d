package wshub

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/coder/websocket"
	"github.com/rs/zerolog/log"
)

// ClientMessage is the JSON structure received from clients.
type ClientMessage struct {
	Type         string  `json:"t"`
	PlayerID     int     `json:"player_id,omitempty"`
	ReactionTime float64 `json:"reaction_time,omitempty"`
}

// ServerMessage is the JSON structure sent to clients.
type ServerMessage struct {
	Type     string          `json:"t"`
	RoomID   string          `json:"room,omitempty"`
	ClientID string          `json:"id,omitempty"`
	Data     json.RawMessage `json:"d,omitempty"`
	Error    string          `json:"e,omitempty"`
}

// Client represents a single WebSocket connection in the hub.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
func (c *Client) WritePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				return
			}
			if err := c.Conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		}
	}
}

// ReadPump decodes client messages until the connection fails or ctx ends.
// Malformed frames are skipped.
func (c *Client) ReadPump(ctx context.Context, handle func(ClientMessage)) error {
	for {
		_, data, err := c.Conn.Read(ctx)
		if err != nil {
			return err
		}
		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Str("component", "wshub").Str("client", c.ID).Err(err).Msg("dropping malformed frame")
			continue
		}
		handle(msg)
	}
}

// SendJSON queues a message for this client only. Non-blocking: drops if channel full.
func (c *Client) SendJSON(msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Str("component", "wshub").Err(err).Msg("marshal error")
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// Hub manages the WebSocket connections of one room.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	closed  bool
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub. It reports false once the hub is closed.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.ID] = c
	return true
}

// Unregister removes a client and closes its Send channel, then broadcasts a leave message.
func (h *Hub) Unregister(clientID string) {
	h.mu.Lock()
	c, ok := h.clients[clientID]
	if ok {
		close(c.Send)
		delete(h.clients, clientID)
	}
	h.mu.Unlock()

	if ok {
		h.BroadcastExcept(clientID, ServerMessage{
			Type:     "leave",
			ClientID: clientID,
		})
	}
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendTo queues a message for one registered client. It reports false when
// the client is gone or its channel is full.
func (h *Hub) SendTo(clientID string, msg ServerMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Str("component", "wshub").Err(err).Msg("marshal error")
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[clientID]
	if !ok {
		return false
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Broadcast sends a message to every client.
func (h *Hub) Broadcast(msg ServerMessage) {
	h.BroadcastExcept("", msg)
}

// BroadcastExcept sends a message to all clients except the sender. Non-blocking: drops if channel full.
func (h *Hub) BroadcastExcept(senderID string, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Str("component", "wshub").Err(err).Msg("marshal error")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, c := range h.clients {
		if id == senderID {
			continue
		}
		select {
		case c.Send <- data:
		default:
			// Drop message if channel full
		}
	}
}

// Close disconnects every client by closing its Send channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
}
