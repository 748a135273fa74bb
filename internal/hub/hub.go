package hub

import (
	"encoding/json"
	"sync"
)

// Message is a change notification sent to subscribers.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Client is a single subscriber. It yields encoded messages until it is
// closed by Unsubscribe.
type Client <-chan []byte

// Hub fans change notifications out to every subscribed client.
type Hub struct {
	mu      sync.RWMutex
	clients map[Client]chan []byte
	dropped uint64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[Client]chan []byte)}
}

// Subscribe registers a client that buffers up to buffer pending messages.
func (h *Hub) Subscribe(buffer int) Client {
	ch := make(chan []byte, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[ch] = ch
	return ch
}

// Unsubscribe removes the client and closes it. Unknown clients are ignored.
func (h *Hub) Unsubscribe(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(ch)
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns how many deliveries were skipped because a client's
// buffer was full.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Broadcast delivers msg to every client without blocking. Slow clients
// miss the message.
func (h *Hub) Broadcast(msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.clients {
		select {
		case ch <- data:
		default:
			h.dropped++
		}
	}
	return nil
}
