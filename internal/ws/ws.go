// Package ws pushes catalog events to connected operator UIs: sync lifecycle
// and detected drift, plus the database list for clients that just connected.
package ws

import (
	"log/slog"
	"sync"

	"nhooyr.io/websocket"

	"github.com/catalogd/catalogd/internal/diff"
)

// CatalogProviderFunc returns the current database list as JSON bytes,
// sent to new and re-syncing clients.
type CatalogProviderFunc func() ([]byte, error)

// Hub manages WebSocket connections and broadcasts messages to all clients.
type Hub struct {
	clients         map[*Client]bool
	broadcast       chan []byte
	register        chan *Client
	unregister      chan *Client
	logger          *slog.Logger
	mu              sync.RWMutex
	catalogProvider CatalogProviderFunc
}

// Client represents a single WebSocket connection.
type Client struct {
	hub  *Hub
	send chan []byte
	conn *websocket.Conn
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// SetCatalogProvider sets the function called to get the database list for
// new and re-syncing clients.
func (h *Hub) SetCatalogProvider(fn CatalogProviderFunc) {
	h.catalogProvider = fn
}

// Run starts the hub's event loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Debug("websocket client connected")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected")

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected clients.
func (h *Hub) Broadcast(message []byte) {
	h.broadcast <- message
}

// SyncStarted broadcasts the start of a catalog sync for a tenant.
func (h *Hub) SyncStarted(tenant string) {
	h.broadcastEvent(MsgSyncStarted, map[string]string{"tenant": tenant})
}

// SyncCompleted broadcasts a finished sync with its write counts.
func (h *Hub) SyncCompleted(tenant string, tables, columns int) {
	h.broadcastEvent(MsgSyncCompleted, map[string]any{
		"tenant":  tenant,
		"tables":  tables,
		"columns": columns,
	})
}

// DriftDetected broadcasts a drift report.
func (h *Hub) DriftDetected(tenant string, report *diff.Report) {
	h.broadcastEvent(MsgDriftDetected, map[string]any{
		"tenant": tenant,
		"report": report,
	})
}

// BroadcastError broadcasts an error to all clients.
func (h *Hub) BroadcastError(errMsg string) {
	h.broadcastEvent(MsgError, map[string]string{"message": errMsg})
}

func (h *Hub) broadcastEvent(typ MessageType, payload any) {
	msg, err := NewMessage(typ, payload)
	if err != nil {
		h.logger.Error("building websocket message", "type", typ, "error", err)
		return
	}
	h.Broadcast(msg)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
