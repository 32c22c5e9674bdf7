package websocket

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"rollcall/internal/config"
	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// MessageHandler consumes one inbound frame from an authenticated
// connection. A true return tells the read loop to drop the connection.
type MessageHandler interface {
	HandleMessage(ctx context.Context, conn interfaces.Connection, raw []byte) (closeConn bool)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Classroom clients connect from arbitrary origins.
		return true
	},
	HandshakeTimeout: 10 * time.Second,
}

// Handler upgrades HTTP requests, authenticates the credential supplied as
// the token query parameter, and pumps inbound frames into the dispatcher.
type Handler struct {
	registry   *Registry
	verifier   interfaces.IdentityVerifier
	dispatcher MessageHandler
	cfg        *config.WebSocketConfig
}

func NewHandler(registry *Registry, verifier interfaces.IdentityVerifier, dispatcher MessageHandler, cfg *config.WebSocketConfig) *Handler {
	return &Handler{
		registry:   registry,
		verifier:   verifier,
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// HandleWebSocket serves one client connection. Authentication happens once
// here; a missing or invalid token gets exactly one ERROR frame and an
// immediate close, with no event processing.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	conn := NewConnection(raw, h.cfg.BufferSize)

	token := r.URL.Query().Get("token")
	if token == "" {
		h.rejectConnection(conn)
		return
	}
	identity, err := h.verifier.Verify(token)
	if err != nil {
		h.rejectConnection(conn)
		return
	}

	conn.SetIdentity(identity)
	if err := h.registry.Register(conn); err != nil {
		log.Printf("Failed to register connection: %v", err)
		_ = conn.Close()
		return
	}
	log.Printf("Connection established: user=%s role=%s", identity.UserID, identity.Role)

	go h.readLoop(conn)
}

func (h *Handler) rejectConnection(conn *Connection) {
	if err := conn.WriteJSON(types.ErrorEnvelope(MsgUnauthorizedToken)); err != nil {
		log.Printf("Failed to send auth error: %v", err)
	}
	_ = conn.CloseAfterDrain()
}

// readLoop owns the connection lifetime: heartbeat, inbound frames, and
// cleanup. A connection drop only removes the registry entry; session state
// is untouched.
func (h *Handler) readLoop(conn *Connection) {
	defer func() {
		h.registry.Unregister(conn)
		_ = conn.Close()
	}()

	if err := conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout)); err != nil {
		return
	}
	conn.conn.SetPongHandler(func(string) error {
		return conn.conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(h.cfg.WriteTimeout)); err != nil {
					return
				}
			case <-conn.ctx.Done():
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		if h.dispatcher.HandleMessage(conn.ctx, conn, data) {
			// The dispatcher queued a final ERROR for this connection; let
			// the writer flush it before the deferred Close tears down.
			_ = conn.CloseAfterDrain()
			return
		}
	}
}
