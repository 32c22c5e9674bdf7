package interfaces

// Notifier is the delivery collaborator for session events. Delivery is
// best-effort in-process fan-out: a connection that has gone away is
// silently skipped, with no retry or acknowledgment.
type Notifier interface {
	// Broadcast sends a message to every live connection regardless of role.
	Broadcast(v interface{})

	// Unicast sends a message only to the given connection.
	Unicast(conn Connection, v interface{})
}
