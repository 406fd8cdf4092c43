package ws

import (
	"context"
	"net/http"

	"github.com/avolkov/paperstand/internal/logging"
	"github.com/avolkov/paperstand/internal/server/auth"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Handler upgrades HTTP requests to websocket sessions and runs the read
// loop. Authentication uses the access token passed as a query parameter
// because browser websocket clients cannot set headers.
type Handler struct {
	relay    *Relay
	hub      *Hub
	secret   []byte
	endpoint string
	stats    Stats
	log      logging.Logger
	upgrader websocket.Upgrader
}

func NewHandler(relay *Relay, hub *Hub, secret []byte, endpoint string, stats Stats, log logging.Logger) *Handler {
	if stats == nil {
		stats = NopStats{}
	}
	return &Handler{
		relay:    relay,
		hub:      hub,
		secret:   secret,
		endpoint: endpoint,
		stats:    stats,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin browser clients are expected; tokens, not
			// origins, are the access control here.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	userID, err := auth.GetUserIDFromToken(token, h.secret)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.log.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	connID := uuid.NewString()
	h.hub.Add(connID, conn)
	h.stats.SessionOpened()
	defer h.stats.SessionClosed()
	defer func() {
		// The request context may already be canceled once the socket is
		// gone; the registry delete still has to happen.
		ctx := context.WithoutCancel(r.Context())
		h.hub.Remove(connID)
		if err := h.relay.DropConnection(ctx, connID); err != nil {
			h.log.Warn(ctx, "failed to drop connection", "connID", connID, "error", err)
		}
	}()

	if err := h.relay.RegisterConnection(r.Context(), userID, connID, h.endpoint); err != nil {
		h.log.Error(r.Context(), "failed to register connection", "connID", connID, "error", err)
		return
	}

	h.log.Debug(r.Context(), "websocket connected", "userID", userID, "connID", connID)
	h.readLoop(r, userID, connID, conn)
	h.log.Debug(r.Context(), "websocket disconnected", "userID", userID, "connID", connID)
}

func (h *Handler) readLoop(r *http.Request, userID, connID string, conn *websocket.Conn) {
	ctx := r.Context()
	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug(ctx, "websocket read error", "connID", connID, "error", err)
			}
			return
		}

		switch msg.Action {
		case ActionPaperStatus:
			if err := h.relay.HandleStatusQuery(ctx, userID, connID, msg.PaperID); err != nil {
				return
			}
		default:
			if err := h.hub.Push(ctx, connID, ErrorFrame("unknown action")); err != nil {
				return
			}
		}
	}
}
