package interfaces

import "rollcall/pkg/types"

// Connection is one live client socket. Implementations must serialize
// writes so WriteJSON is safe to call from any goroutine.
type Connection interface {
	// WriteJSON sends a JSON message to the client (thread-safe).
	WriteJSON(v interface{}) error

	// Close closes the connection and releases its resources. Idempotent.
	Close() error

	// Identity returns the authenticated principal, or false before
	// authentication has succeeded.
	Identity() (types.Identity, bool)

	// SetIdentity attaches the verified principal. Called exactly once,
	// at connection establishment.
	SetIdentity(identity types.Identity)
}
