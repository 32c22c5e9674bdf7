package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"rollcall/pkg/types"
)

const writeTimeout = 5 * time.Second

// Connection wraps a websocket with a single writer goroutine so WriteJSON
// is safe from any handler. It implements interfaces.Connection.
type Connection struct {
	conn      *websocket.Conn
	writeCh   chan []byte
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	mu            sync.RWMutex
	identity      types.Identity
	authenticated bool
}

// NewConnection wraps an upgraded websocket. bufferSize bounds the pending
// outbound frames before writes start timing out.
func NewConnection(conn *websocket.Conn, bufferSize int) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		conn:    conn,
		writeCh: make(chan []byte, bufferSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	go c.writeLoop()
	return c
}

// writeLoop is the single writer; gorilla connections do not tolerate
// concurrent writers. A nil entry on writeCh is the close marker queued by
// CloseAfterDrain: every frame ahead of it has been written by the time it
// is consumed.
func (c *Connection) writeLoop() {
	for {
		select {
		case data := <-c.writeCh:
			if data == nil {
				_ = c.Close()
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// WriteJSON queues a JSON message for delivery. It fails rather than blocks
// when the client cannot drain its buffer in time.
func (c *Connection) WriteJSON(v interface{}) error {
	select {
	case <-c.ctx.Done():
		return ErrConnectionClosed
	default:
	}

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case c.writeCh <- data:
		return nil
	case <-time.After(writeTimeout):
		return ErrWriteTimeout
	case <-c.ctx.Done():
		return ErrConnectionClosed
	}
}

// CloseAfterDrain closes the connection once every already-queued frame has
// been written, so a final error notification reaches the client before the
// socket drops. A client that cannot drain within writeTimeout is closed
// anyway.
func (c *Connection) CloseAfterDrain() error {
	select {
	case c.writeCh <- nil:
	case <-c.ctx.Done():
		return nil
	case <-time.After(writeTimeout):
		return c.Close()
	}

	select {
	case <-c.ctx.Done():
		return nil
	case <-time.After(writeTimeout):
		return c.Close()
	}
}

// Close shuts the connection down. Idempotent.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.conn.Close()
	})
	return err
}

// SetIdentity attaches the verified principal after credential checks.
func (c *Connection) SetIdentity(identity types.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identity = identity
	c.authenticated = true
}

// Identity returns the attached principal, or false before authentication.
func (c *Connection) Identity() (types.Identity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity, c.authenticated
}
