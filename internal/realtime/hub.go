package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub tracks live websocket clients and their room memberships. Rooms
// are named "user_<id>" for personal delivery and "chat_<id>" for chat
// fan-out.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // socket id -> client
	rooms   map[string]map[string]*Client // room -> socket id -> client
	log     *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		log:     log,
	}
}

// Register adds a freshly upgraded client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
}

// Unregister removes the client from the hub and every room it joined,
// then closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	for room := range c.rooms {
		h.leaveRoomLocked(room, c)
	}
	close(c.send)
}

// Join adds the client to a room.
func (h *Hub) Join(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[room] = members
	}
	members[c.ID] = c
	c.rooms[room] = struct{}{}
}

// Leave removes the client from a room.
func (h *Hub) Leave(room string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveRoomLocked(room, c)
}

func (h *Hub) leaveRoomLocked(room string, c *Client) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c.ID)
	delete(c.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// Broadcast sends an event to every client in a room.
func (h *Hub) Broadcast(room, event string, payload any) {
	h.broadcast(room, event, payload, "")
}

// BroadcastExcept sends an event to every client in a room except the
// named socket, used for typing and read-receipt echoes.
func (h *Hub) BroadcastExcept(room, socketID, event string, payload any) {
	h.broadcast(room, event, payload, socketID)
}

// BroadcastToChat fans an event out to the chat's room.
func (h *Hub) BroadcastToChat(chatID, event string, payload any) {
	h.Broadcast("chat_"+chatID, event, payload)
}

// SendToUser delivers an event to the user's personal room.
func (h *Hub) SendToUser(userID, event string, payload any) {
	h.Broadcast("user_"+userID, event, payload)
}

func (h *Hub) broadcast(room, event string, payload any, exceptID string) {
	msg, err := json.Marshal(Envelope{Event: event, Data: payload})
	if err != nil {
		h.log.Errorf("[WS] failed to marshal %s event: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, member := range h.rooms[room] {
		if id == exceptID {
			continue
		}
		select {
		case member.send <- msg:
		default:
			// Slow consumer; drop rather than block the hub.
			h.log.Warnw("[WS] dropping message for slow client", "socketId", id, "event", event)
		}
	}
}
