package ws

import (
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"sync"

	"jobmarket/internal/domain"
)

// Client represents a single WebSocket connection with user context.
type Client struct {
	UserID uint
	Role   string
	Send   chan []byte
	Hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
}

// Message is the frame written to subscribers.
type Message struct {
	Channel string      `json:"channel"`
	Payload interface{} `json:"payload"`
}

// Hub maintains the set of active clients and fans live updates out to them.
// Delivery is at-most-once: a client whose buffer is full misses the frame.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	// userID -> clients (one user can have multiple connections)
	byUser map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		byUser:  make(map[uint]map[*Client]struct{}),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	h.clients[c] = struct{}{}
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c)
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

// Topics delivered to every connection.
var broadcastTopics = map[string]bool{
	domain.ChannelAnnouncement: true,
}

// Publish emits payload on key. A broadcast topic reaches every connection
// and "socket:<userID>" reaches that user's connections. Frames for any other
// key are dropped.
func (h *Hub) Publish(key string, payload interface{}) {
	data, err := json.Marshal(Message{Channel: key, Payload: payload})
	if err != nil {
		return
	}
	if broadcastTopics[key] {
		h.sendToAll(data)
		return
	}
	userID, ok := userChannel(key)
	if !ok {
		log.Printf("[ws] dropped frame for unknown channel %q", key)
		return
	}
	h.sendToUser(userID, data)
}

func (h *Hub) sendToUser(userID uint, data []byte) {
	h.mu.RLock()
	m := h.byUser[userID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	deliver(clients, data)
}

func (h *Hub) sendToAll(data []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	deliver(clients, data)
}

func deliver(clients []*Client, data []byte) {
	for _, c := range clients {
		c.mu.Lock()
		if !c.closed {
			select {
			case c.Send <- data:
			default:
			}
		}
		c.mu.Unlock()
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func userChannel(key string) (uint, bool) {
	rest, ok := strings.CutPrefix(key, domain.ChannelUserPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
