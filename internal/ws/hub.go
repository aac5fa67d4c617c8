package ws

import (
	"encoding/json"
	"sync"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
)

var connectedClients = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "todo_ws_clients",
	Help: "Currently connected websocket clients",
})

func init() {
	prometheus.MustRegister(connectedClients)
}

// Hub tracks open sockets per owner and fans task events out to them.
// A user may have several sockets open (tabs, devices).
type Hub struct {
	mu      sync.RWMutex
	byOwner map[int64]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byOwner: make(map[int64]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	set, ok := h.byOwner[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.byOwner[c.UserID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	connectedClients.Inc()
	logger.Debug("ws client registered", "user_id", c.UserID)
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	set, ok := h.byOwner[c.UserID]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.byOwner, c.UserID)
	}
	h.mu.Unlock()

	c.close()
	connectedClients.Dec()
	logger.Debug("ws client unregistered", "user_id", c.UserID)
}

// Notify sends ev to every socket of ownerID. Clients whose send buffer is
// full are dropped rather than blocking the caller.
func (h *Hub) Notify(ownerID int64, ev domain.TaskEvent) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.Error("ws event marshal failed", "error", err)
		return
	}

	h.mu.RLock()
	var slow []*Client
	for c := range h.byOwner[ownerID] {
		if !c.enqueue(msg) {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logger.Warn("ws client too slow, dropping", "user_id", c.UserID)
		h.Unregister(c)
	}
}

// Count returns the number of open sockets for ownerID.
func (h *Hub) Count(ownerID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byOwner[ownerID])
}
