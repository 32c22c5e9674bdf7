package websocket

import (
	"log"
	"sync"

	"rollcall/pkg/interfaces"
)

// Registry tracks every live connection. A user may hold several
// connections at once (multiple tabs); each is registered independently.
// Registry implements interfaces.Notifier: broadcast walks every live
// connection regardless of role, unicast writes to exactly one.
type Registry struct {
	mu          sync.RWMutex
	connections map[*Connection]struct{}
}

func NewRegistry() *Registry {
	return &Registry{connections: make(map[*Connection]struct{})}
}

// Register adds an authenticated connection.
func (r *Registry) Register(conn *Connection) error {
	if conn == nil {
		return ErrNilConnection
	}
	if _, ok := conn.Identity(); !ok {
		return ErrNotAuthenticated
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn] = struct{}{}
	return nil
}

// Unregister removes a connection. Idempotent; a connection that was never
// registered is ignored.
func (r *Registry) Unregister(conn *Connection) {
	if conn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.connections, conn)
}

// Broadcast delivers a message to every live connection, best-effort. A
// connection that fails to accept the write is skipped, not retried.
func (r *Registry) Broadcast(v interface{}) {
	for _, conn := range r.snapshot() {
		if err := conn.WriteJSON(v); err != nil {
			identity, _ := conn.Identity()
			log.Printf("Broadcast delivery skipped: user=%s err=%v", identity.UserID, err)
		}
	}
}

// Unicast delivers a message only to the given connection.
func (r *Registry) Unicast(conn interfaces.Connection, v interface{}) {
	if conn == nil {
		return
	}
	if err := conn.WriteJSON(v); err != nil {
		log.Printf("Unicast delivery skipped: %v", err)
	}
}

// CloseAll tears down every connection during shutdown.
func (r *Registry) CloseAll() {
	for _, conn := range r.snapshot() {
		_ = conn.Close()
	}
	r.mu.Lock()
	r.connections = make(map[*Connection]struct{})
	r.mu.Unlock()
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}

// snapshot copies the connection set so delivery happens outside the lock.
func (r *Registry) snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conns := make([]*Connection, 0, len(r.connections))
	for conn := range r.connections {
		conns = append(conns, conn)
	}
	return conns
}
