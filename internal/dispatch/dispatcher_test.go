package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"rollcall/internal/session"
	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

type fakeConn struct {
	identity types.Identity
	messages []interface{}
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.messages = append(f.messages, v)
	return nil
}

func (f *fakeConn) Close() error                     { return nil }
func (f *fakeConn) SetIdentity(id types.Identity)    { f.identity = id }
func (f *fakeConn) Identity() (types.Identity, bool) { return f.identity, f.identity.UserID != "" }

// fakeNotifier records deliveries so tests can assert fan-out rules
// without socket I/O.
type fakeNotifier struct {
	broadcasts []types.Envelope
	unicasts   map[interfaces.Connection][]types.Envelope
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{unicasts: make(map[interfaces.Connection][]types.Envelope)}
}

func (f *fakeNotifier) Broadcast(v interface{}) {
	f.broadcasts = append(f.broadcasts, v.(types.Envelope))
}

func (f *fakeNotifier) Unicast(conn interfaces.Connection, v interface{}) {
	f.unicasts[conn] = append(f.unicasts[conn], v.(types.Envelope))
}

func (f *fakeNotifier) lastUnicast(t *testing.T, conn interfaces.Connection) types.Envelope {
	t.Helper()
	envelopes := f.unicasts[conn]
	if len(envelopes) == 0 {
		t.Fatal("expected a unicast delivery")
	}
	return envelopes[len(envelopes)-1]
}

// fakeClassStore serves a single fixed class.
type fakeClassStore struct {
	class *types.Class
}

func (f *fakeClassStore) GetClass(_ context.Context, classID string) (*types.Class, error) {
	if f.class == nil || f.class.ID != classID {
		return nil, interfaces.ErrClassNotFound
	}
	copied := *f.class
	return &copied, nil
}

type fakeAttendanceStore struct {
	batches [][]*types.AttendanceRecord
}

func (f *fakeAttendanceStore) SaveBatch(_ context.Context, records []*types.AttendanceRecord) error {
	f.batches = append(f.batches, records)
	return nil
}

func (f *fakeAttendanceStore) GetRecord(context.Context, string, string) (*types.AttendanceRecord, error) {
	return nil, interfaces.ErrRecordNotFound
}

type testRig struct {
	dispatcher  *Dispatcher
	coordinator *session.Coordinator
	notifier    *fakeNotifier
	attendance  *fakeAttendanceStore
}

func newTestRig(studentIDs ...string) *testRig {
	classes := &fakeClassStore{class: &types.Class{
		ID:         "class1",
		ClassName:  "Algorithms",
		TeacherID:  "teacher1",
		StudentIDs: studentIDs,
	}}
	attendance := &fakeAttendanceStore{}
	coordinator := session.NewCoordinator(classes, attendance)
	notifier := newFakeNotifier()
	return &testRig{
		dispatcher:  NewDispatcher(coordinator, notifier),
		coordinator: coordinator,
		notifier:    notifier,
		attendance:  attendance,
	}
}

func teacherConn() *fakeConn {
	return &fakeConn{identity: types.Identity{UserID: "teacher1", Role: types.RoleTeacher}}
}

func studentConn(id string) *fakeConn {
	return &fakeConn{identity: types.Identity{UserID: id, Role: types.RoleStudent}}
}

func frame(event string, data interface{}) []byte {
	raw, err := json.Marshal(types.Envelope{Event: event, Data: data})
	if err != nil {
		panic(err)
	}
	return raw
}

func assertErrorUnicast(t *testing.T, notifier *fakeNotifier, conn interfaces.Connection, want string) {
	t.Helper()
	envelope := notifier.lastUnicast(t, conn)
	if envelope.Event != types.EventError {
		t.Fatalf("expected ERROR event, got %s", envelope.Event)
	}
	payload, ok := envelope.Data.(types.ErrorPayload)
	if !ok {
		t.Fatalf("expected ErrorPayload, got %T", envelope.Data)
	}
	if payload.Message != want {
		t.Errorf("expected error %q, got %q", want, payload.Message)
	}
}

func TestHandleMessage_ParseFailureCloses(t *testing.T) {
	rig := newTestRig("a")
	conn := teacherConn()

	closed := rig.dispatcher.HandleMessage(context.Background(), conn, []byte("{not json"))

	if !closed {
		t.Error("parse failure must close the connection")
	}
	assertErrorUnicast(t, rig.notifier, conn, MsgInvalidFormat)
}

func TestHandleMessage_UnknownEvent(t *testing.T) {
	rig := newTestRig("a")
	conn := teacherConn()

	closed := rig.dispatcher.HandleMessage(context.Background(), conn, frame("NOT_A_THING", nil))

	if closed {
		t.Error("unknown event must not close the connection")
	}
	assertErrorUnicast(t, rig.notifier, conn, MsgUnknownEvent)
}

func TestHandleMessage_MissingEventStaysOpen(t *testing.T) {
	rig := newTestRig("a")
	conn := teacherConn()

	// Valid JSON without an event name is not a parse failure; it falls
	// through the table lookup like any other unrecognized event.
	closed := rig.dispatcher.HandleMessage(context.Background(), conn, []byte(`{"data":{}}`))

	if closed {
		t.Error("missing event must not close the connection")
	}
	assertErrorUnicast(t, rig.notifier, conn, MsgUnknownEvent)
}

func TestHandleMessage_RoleViolations(t *testing.T) {
	rig := newTestRig("a")

	student := studentConn("a")
	if rig.dispatcher.HandleMessage(context.Background(), student, frame(types.EventDone, nil)) {
		t.Error("role violation must not close the connection")
	}
	assertErrorUnicast(t, rig.notifier, student, MsgTeacherEventOnly)

	teacher := teacherConn()
	rig.dispatcher.HandleMessage(context.Background(), teacher, frame(types.EventMyAttendance, nil))
	assertErrorUnicast(t, rig.notifier, teacher, MsgStudentEventOnly)
}

func TestSummary_WithoutSession(t *testing.T) {
	rig := newTestRig("a")
	conn := teacherConn()

	rig.dispatcher.HandleMessage(context.Background(), conn, frame(types.EventTodaySummary, nil))

	assertErrorUnicast(t, rig.notifier, conn, MsgNoActiveSession)
	if len(rig.notifier.broadcasts) != 0 {
		t.Error("a denied summary must not broadcast")
	}
}

func TestAttendanceMarked_BroadcastsCanonicalStatus(t *testing.T) {
	rig := newTestRig("a")
	rig.coordinator.Open("class1", "teacher1")
	conn := teacherConn()

	rig.dispatcher.HandleMessage(context.Background(), conn,
		frame(types.EventAttendanceMarked, types.MarkPayload{StudentID: "a", Status: "present"}))

	if len(rig.notifier.broadcasts) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(rig.notifier.broadcasts))
	}
	envelope := rig.notifier.broadcasts[0]
	if envelope.Event != types.EventAttendanceMarked {
		t.Errorf("expected ATTENDANCE_MARKED broadcast, got %s", envelope.Event)
	}
	payload := envelope.Data.(types.MarkPayload)
	if payload.Status != string(types.StatusPresent) {
		t.Errorf("expected canonical Present, got %q", payload.Status)
	}
}

func TestAttendanceMarked_InvalidPayloads(t *testing.T) {
	rig := newTestRig("a")
	rig.coordinator.Open("class1", "teacher1")
	conn := teacherConn()

	rig.dispatcher.HandleMessage(context.Background(), conn,
		frame(types.EventAttendanceMarked, types.MarkPayload{StudentID: "", Status: "Present"}))
	assertErrorUnicast(t, rig.notifier, conn, MsgInvalidFormat)

	rig.dispatcher.HandleMessage(context.Background(), conn,
		frame(types.EventAttendanceMarked, types.MarkPayload{StudentID: "a", Status: "tardy"}))
	assertErrorUnicast(t, rig.notifier, conn, MsgInvalidStatus)

	if len(rig.notifier.broadcasts) != 0 {
		t.Error("rejected marks must not broadcast")
	}
}

func TestMyAttendance_UnicastIsolation(t *testing.T) {
	rig := newTestRig("a", "b")
	rig.coordinator.Open("class1", "teacher1")

	if err := rig.coordinator.Mark("teacher1", "a", types.StatusPresent); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	asker := studentConn("a")
	other := studentConn("b")
	rig.dispatcher.HandleMessage(context.Background(), asker, frame(types.EventMyAttendance, nil))

	envelope := rig.notifier.lastUnicast(t, asker)
	if envelope.Event != types.EventMyAttendance {
		t.Fatalf("expected MY_ATTENDANCE, got %s", envelope.Event)
	}
	if payload := envelope.Data.(types.MyAttendancePayload); payload.Status != string(types.StatusPresent) {
		t.Errorf("expected Present, got %q", payload.Status)
	}

	if len(rig.notifier.unicasts[other]) != 0 {
		t.Error("another connection must never observe a MY_ATTENDANCE reply")
	}
	if len(rig.notifier.broadcasts) != 0 {
		t.Error("MY_ATTENDANCE must never broadcast")
	}
}

func TestMyAttendance_UnmarkedAndUnenrolled(t *testing.T) {
	rig := newTestRig("a")
	rig.coordinator.Open("class1", "teacher1")

	unmarked := studentConn("a")
	rig.dispatcher.HandleMessage(context.Background(), unmarked, frame(types.EventMyAttendance, nil))
	if payload := rig.notifier.lastUnicast(t, unmarked).Data.(types.MyAttendancePayload); payload.Status != session.StatusNotYetUpdated {
		t.Errorf("expected %q, got %q", session.StatusNotYetUpdated, payload.Status)
	}

	outsider := studentConn("z")
	rig.dispatcher.HandleMessage(context.Background(), outsider, frame(types.EventMyAttendance, nil))
	assertErrorUnicast(t, rig.notifier, outsider, MsgNoActiveSession)
}

func TestDone_BroadcastsSummaryAndIdlesSession(t *testing.T) {
	rig := newTestRig("a", "b")
	rig.coordinator.Open("class1", "teacher1")
	conn := teacherConn()

	rig.dispatcher.HandleMessage(context.Background(), conn,
		frame(types.EventAttendanceMarked, types.MarkPayload{StudentID: "a", Status: "Present"}))
	rig.dispatcher.HandleMessage(context.Background(), conn, frame(types.EventDone, nil))

	if len(rig.notifier.broadcasts) != 2 {
		t.Fatalf("expected mark + done broadcasts, got %d", len(rig.notifier.broadcasts))
	}
	done := rig.notifier.broadcasts[1]
	if done.Event != types.EventDone {
		t.Fatalf("expected DONE broadcast, got %s", done.Event)
	}
	payload := done.Data.(types.DonePayload)
	if payload.Present != 1 || payload.Absent != 1 || payload.Total != 2 {
		t.Errorf("unexpected summary %+v", payload)
	}
	if payload.Message == "" {
		t.Error("DONE payload must carry a message")
	}

	if len(rig.attendance.batches) != 1 {
		t.Fatalf("expected one batch write, got %d", len(rig.attendance.batches))
	}

	// Session is idle now: the same teacher is denied.
	rig.dispatcher.HandleMessage(context.Background(), conn,
		frame(types.EventAttendanceMarked, types.MarkPayload{StudentID: "a", Status: "Present"}))
	assertErrorUnicast(t, rig.notifier, conn, MsgNoActiveSession)
}

func TestDone_ClassGoneTellsOnlySender(t *testing.T) {
	rig := newTestRig("a")
	rig.coordinator.Open("missing-class", "teacher1")
	conn := teacherConn()

	rig.dispatcher.HandleMessage(context.Background(), conn, frame(types.EventDone, nil))

	assertErrorUnicast(t, rig.notifier, conn, MsgClassNotFound)
	if len(rig.notifier.broadcasts) != 0 {
		t.Error("error paths must never broadcast")
	}
	if !rig.coordinator.IsActive() {
		t.Error("session must stay active when the class lookup fails")
	}
}

func TestDenyReasonTable(t *testing.T) {
	tests := []struct {
		role  string
		event string
		want  string
	}{
		{types.RoleStudent, types.EventAttendanceMarked, MsgTeacherEventOnly},
		{types.RoleStudent, types.EventTodaySummary, MsgTeacherEventOnly},
		{types.RoleTeacher, types.EventMyAttendance, MsgStudentEventOnly},
		{types.RoleTeacher, "BOGUS", MsgUnknownEvent},
		{types.RoleStudent, "BOGUS", MsgUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s/%s", tt.role, tt.event), func(t *testing.T) {
			if got := denyReason(tt.role, tt.event); got != tt.want {
				t.Errorf("denyReason(%s, %s) = %q, want %q", tt.role, tt.event, got, tt.want)
			}
		})
	}
}
