// Package websocket delivers live timeline and notification updates to
// browser clients. Each connection owns one timeline engine (for its
// active chat channel) and one notification watcher; the hub tracks
// connections and enforces a single connection per principal.
package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

type Hub struct {
	clients     map[*Client]bool
	userClients map[string]*Client
	register    chan *Client
	unregister  chan *Client
	mu          sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		userClients: make(map[string]*Client),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if existing, ok := h.userClients[client.principal.ID]; ok {
				log.Printf("ws: %s already connected, closing old connection", client.principal.ID)
				if _, live := h.clients[existing]; live {
					delete(h.clients, existing)
					delete(h.userClients, client.principal.ID)
					go existing.shutdown()
				}
			}
			h.clients[client] = true
			h.userClients[client.principal.ID] = client
			h.mu.Unlock()
			log.Printf("ws: %s connected", client.principal.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				delete(h.userClients, client.principal.ID)
				h.mu.Unlock()
				client.shutdown()
			} else {
				h.mu.Unlock()
			}
			log.Printf("ws: %s disconnected", client.principal.ID)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) IsUserOnline(principalID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.userClients[principalID]
	return ok
}

func (h *Hub) OnlineUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.userClients))
	for id := range h.userClients {
		out = append(out, id)
	}
	return out
}

func (h *Hub) isCurrent(c *Client) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.userClients[c.principal.ID] == c
}

func marshalFrame(frameType string, data interface{}) ([]byte, error) {
	return json.Marshal(struct {
		Type string      `json:"type"`
		Data interface{} `json:"data"`
	}{Type: frameType, Data: data})
}
