// Package dispatch routes inbound attendance events. Routing is a static
// lookup over (role, event) pairs: adding an event/role combination is a
// table edit, not a new conditional branch.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"rollcall/internal/session"
	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

type handlerFunc func(d *Dispatcher, ctx context.Context, conn interfaces.Connection, identity types.Identity, data json.RawMessage)

// eventTable maps role, then event name, to its handler. An event found
// under another role's table is a role violation; an event found nowhere is
// unknown.
var eventTable = map[string]map[string]handlerFunc{
	types.RoleTeacher: {
		types.EventAttendanceMarked: (*Dispatcher).handleAttendanceMarked,
		types.EventTodaySummary:     (*Dispatcher).handleTodaySummary,
		types.EventDone:             (*Dispatcher).handleDone,
	},
	types.RoleStudent: {
		types.EventMyAttendance: (*Dispatcher).handleMyAttendance,
	},
}

// Dispatcher decodes inbound frames and drives the session coordinator.
// Every code path resolves to either a handler invocation or a single ERROR
// notification to the offending connection; only a parse failure closes the
// connection.
type Dispatcher struct {
	coordinator *session.Coordinator
	notifier    interfaces.Notifier
}

func NewDispatcher(coordinator *session.Coordinator, notifier interfaces.Notifier) *Dispatcher {
	return &Dispatcher{coordinator: coordinator, notifier: notifier}
}

// HandleMessage processes one inbound frame. The returned flag tells the
// transport to close the connection.
func (d *Dispatcher) HandleMessage(ctx context.Context, conn interfaces.Connection, raw []byte) bool {
	var msg types.InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.notifier.Unicast(conn, types.ErrorEnvelope(MsgInvalidFormat))
		return true
	}

	identity, ok := conn.Identity()
	if !ok {
		// The transport only feeds authenticated connections; treat a gap
		// as a protocol violation and drop.
		return true
	}

	handler, ok := eventTable[identity.Role][msg.Event]
	if !ok {
		d.notifier.Unicast(conn, types.ErrorEnvelope(denyReason(identity.Role, msg.Event)))
		return false
	}

	handler(d, ctx, conn, identity, msg.Data)
	return false
}

// denyReason picks the gate's message for an event the sender's role may
// not perform.
func denyReason(role, event string) string {
	for otherRole, handlers := range eventTable {
		if otherRole == role {
			continue
		}
		if _, exists := handlers[event]; exists {
			if otherRole == types.RoleTeacher {
				return MsgTeacherEventOnly
			}
			return MsgStudentEventOnly
		}
	}
	return MsgUnknownEvent
}

// sendError notifies only the offending connection, never the room.
func (d *Dispatcher) sendError(conn interfaces.Connection, message string) {
	d.notifier.Unicast(conn, types.ErrorEnvelope(message))
}

// sessionErrorMessage maps coordinator errors onto wire messages.
func sessionErrorMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrNoActiveSession):
		return MsgNoActiveSession
	case errors.Is(err, session.ErrEmptyRoster):
		return MsgNoStudents
	case errors.Is(err, session.ErrClassUnavailable):
		return MsgClassNotFound
	default:
		log.Printf("Session operation failed: %v", err)
		return MsgGenericFailure
	}
}
