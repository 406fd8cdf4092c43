package ws

import (
	"context"
	"fmt"
	"sync"

	"github.com/avolkov/paperstand/internal/common"
	"github.com/gorilla/websocket"
)

// Pusher delivers a frame to a single named connection. Implementations
// return common.ErrConnectionGone when the connection no longer exists or
// the write fails, so the caller can prune its registration.
type Pusher interface {
	Push(ctx context.Context, connID string, frame *Frame) error
}

type session struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes from relay and read-loop replies
}

// Hub holds the websocket sessions open against this process, keyed by
// connection ID. It is the in-process half of the connection registry; the
// database rows are the durable half.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*session)}
}

// Add registers an open socket under connID.
func (h *Hub) Add(connID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[connID] = &session{conn: conn}
}

// Remove forgets the socket and closes it if still open.
func (h *Hub) Remove(connID string) {
	h.mu.Lock()
	s, ok := h.sessions[connID]
	delete(h.sessions, connID)
	h.mu.Unlock()
	if ok {
		_ = s.conn.Close()
	}
}

// Push writes a frame to the named connection. A missing session or a
// failed write both surface as common.ErrConnectionGone; a session whose
// write failed is removed so subsequent pushes fail fast.
func (h *Hub) Push(ctx context.Context, connID string, frame *Frame) error {
	h.mu.RLock()
	s, ok := h.sessions[connID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrConnectionGone, connID)
	}

	s.mu.Lock()
	err := s.conn.WriteJSON(frame)
	s.mu.Unlock()
	if err != nil {
		h.Remove(connID)
		return fmt.Errorf("%w: %s: %v", common.ErrConnectionGone, connID, err)
	}
	return nil
}

// Len reports the number of open sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// CloseAll closes every session. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		_ = s.conn.Close()
		delete(h.sessions, id)
	}
}
