package http

import "sync"

// Message is the tagged envelope every websocket frame uses, in both
// directions: {"type": ..., "payload": ...}.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans messages out to every live connection in a room. Connections are
// keyed by room code; a connection belongs to at most one room at a time.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

func (h *Hub) join(code string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[code] == nil {
		h.rooms[code] = make(map[*client]struct{})
	}
	h.rooms[code][c] = struct{}{}
}

func (h *Hub) leave(code string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, code)
	}
}

// Broadcast delivers msg to every connection in the room. Slow consumers with
// a full send buffer are skipped rather than blocking the room.
func (h *Hub) Broadcast(code string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[code] {
		select {
		case c.send <- msg:
		default:
		}
	}
}
