package websocket

import "errors"

// MsgUnauthorizedToken is the single notification sent before closing a
// connection whose credential is missing or invalid.
const MsgUnauthorizedToken = "Unauthorized or invalid token"

var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrWriteTimeout     = errors.New("write timeout")
	ErrNilConnection    = errors.New("connection cannot be nil")
	ErrNotAuthenticated = errors.New("connection must be authenticated before registration")
)
