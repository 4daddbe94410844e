package ws

import (
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/kisansahay/kisan-sahay/backend/internal/model/chat"
	"github.com/kisansahay/kisan-sahay/backend/internal/service/conversation"
)

// Hub fans conversation snapshots out to connected websocket clients. The
// page listens here so the model turn and the loading flag render live.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// Broadcast pushes a snapshot to every connected client. Connections that
// fail to take the write are dropped.
func (h *Hub) Broadcast(snap chat.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(snap); err != nil {
			log.Printf("[ws] dropping client: %v", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) add(conn *websocket.Conn, snap chat.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Send the current state first so a reconnecting page catches up.
	if err := conn.WriteJSON(snap); err != nil {
		return err
	}
	h.conns[conn] = struct{}{}
	return nil
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[conn]; ok {
		conn.Close()
		delete(h.conns, conn)
	}
}

// Handler upgrades clients onto the conversation feed.
type Handler struct {
	hub      *Hub
	conv     *conversation.Service
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(hub *Hub, conv *conversation.Service) *Handler {
	return &Handler{
		hub:  hub,
		conv: conv,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes registers the feed route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/conversation/ws", h.handleFeed)
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	if err := h.hub.add(conn, h.conv.Snapshot()); err != nil {
		log.Printf("[ws] initial snapshot write failed: %v", err)
		conn.Close()
		return
	}

	// The feed is one-way; drain the connection until the client goes away.
	go func() {
		defer h.hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
