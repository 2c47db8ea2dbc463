package ws

import (
	"log"
	"sync"
)

// Hub рассылает всем подключённым клиентам обновления таблицы лидеров
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	// last payload, sent to every newly connected client
	last []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	last := h.last
	h.mu.Unlock()

	log.Printf("Hub.Register: player=%d (clients=%d)", c.PlayerID, h.Count())

	if last != nil {
		c.enqueue(last)
	}
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	log.Printf("Hub.Unregister: player=%d (clients=%d)", c.PlayerID, h.Count())
}

// Broadcast queues msg for every client. Slow clients are dropped instead of
// blocking the rest.
func (h *Hub) Broadcast(msg []byte) {
	h.mu.Lock()
	h.last = msg
	var stale []*Client
	for c := range h.clients {
		if !c.enqueue(msg) {
			stale = append(stale, c)
		}
	}
	for _, c := range stale {
		delete(h.clients, c)
	}
	h.mu.Unlock()

	for _, c := range stale {
		log.Printf("Hub.Broadcast: dropping slow client player=%d", c.PlayerID)
		c.close()
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
