package dispatch

import (
	"context"
	"encoding/json"

	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// handleAttendanceMarked records a mark and echoes it to every connection,
// with the status in its canonical casing.
func (d *Dispatcher) handleAttendanceMarked(ctx context.Context, conn interfaces.Connection, identity types.Identity, data json.RawMessage) {
	var payload types.MarkPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.StudentID == "" {
		d.sendError(conn, MsgInvalidFormat)
		return
	}

	status, err := types.NormalizeStatus(payload.Status)
	if err != nil {
		d.sendError(conn, MsgInvalidStatus)
		return
	}

	if err := d.coordinator.Mark(identity.UserID, payload.StudentID, status); err != nil {
		d.sendError(conn, sessionErrorMessage(err))
		return
	}

	d.notifier.Broadcast(types.Envelope{
		Event: types.EventAttendanceMarked,
		Data:  types.MarkPayload{StudentID: payload.StudentID, Status: string(status)},
	})
}

// handleTodaySummary broadcasts the live counts to the whole room.
func (d *Dispatcher) handleTodaySummary(ctx context.Context, conn interfaces.Connection, identity types.Identity, _ json.RawMessage) {
	summary, err := d.coordinator.Summary(ctx, identity.UserID)
	if err != nil {
		d.sendError(conn, sessionErrorMessage(err))
		return
	}

	d.notifier.Broadcast(types.Envelope{Event: types.EventTodaySummary, Data: summary})
}

// handleDone completes the session and broadcasts the persisted summary.
func (d *Dispatcher) handleDone(ctx context.Context, conn interfaces.Connection, identity types.Identity, _ json.RawMessage) {
	completion, err := d.coordinator.Close(ctx, identity.UserID)
	if err != nil {
		d.sendError(conn, sessionErrorMessage(err))
		return
	}

	d.notifier.Broadcast(types.Envelope{
		Event: types.EventDone,
		Data: types.DonePayload{
			Message: "Attendance persisted",
			Present: completion.Summary.Present,
			Absent:  completion.Summary.Absent,
			Total:   completion.Summary.Total,
		},
	})
}

// handleMyAttendance answers only the requesting student; no other
// connection may observe the reply.
func (d *Dispatcher) handleMyAttendance(ctx context.Context, conn interfaces.Connection, identity types.Identity, _ json.RawMessage) {
	status, err := d.coordinator.StudentStatus(ctx, identity.UserID)
	if err != nil {
		d.sendError(conn, sessionErrorMessage(err))
		return
	}

	d.notifier.Unicast(conn, types.Envelope{
		Event: types.EventMyAttendance,
		Data:  types.MyAttendancePayload{Status: status},
	})
}
