package socket

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"book-warehouse-api-server/internal/models"

	"github.com/gorilla/websocket"
)

// client wraps one connection with a write mutex; gorilla/websocket allows at
// most one concurrent writer per connection.
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Hub keeps the WebSocket connections of logged-in users, keyed by user id.
type Hub struct {
	clients map[string]*client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
	}
}

func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[userID] = &client{conn: conn}
	log.Printf("WebSocket client registered: %s", userID)
}

func (h *Hub) Unregister(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[userID]; ok {
		delete(h.clients, userID)
		log.Printf("WebSocket client unregistered: %s", userID)
	}
}

// Send delivers a message to one client. A missing client is not an error;
// they may simply be offline.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	cl, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()
	return cl.conn.WriteMessage(websocket.TextMessage, message)
}

// StatusEvent is pushed to an order's creator after a successful transition.
type StatusEvent struct {
	OrderID   string           `json:"orderID"`
	OrderType models.OrderType `json:"orderType"`
	Status    models.Status    `json:"status"`
	ChangedBy string           `json:"changedBy"`
	ChangedAt time.Time        `json:"changedAt"`
}

// NotifyStatusChange marshals and sends a status event, logging on failure
// rather than propagating: a push miss must never fail the transition.
func (h *Hub) NotifyStatusChange(userID string, ev StatusEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to marshal status event: %v", err)
		return
	}
	if err := h.Send(userID, payload); err != nil {
		log.Printf("Failed to push status event to %s: %v", userID, err)
	}
}
