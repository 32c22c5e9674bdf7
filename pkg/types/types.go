package types

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Roles carried in bearer tokens and attached to live connections.
const (
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// Event names of the attendance wire protocol. Inbound and outbound frames
// share the same envelope shape.
const (
	EventAttendanceMarked = "ATTENDANCE_MARKED"
	EventTodaySummary     = "TODAY_SUMMARY"
	EventDone             = "DONE"
	EventMyAttendance     = "MY_ATTENDANCE"
	EventError            = "ERROR"
)

// Status is an attendance status in its canonical casing.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// NormalizeStatus maps a client-supplied status onto the canonical
// Present/Absent pair. Matching is case-insensitive; anything else is
// rejected so inconsistent casings never reach storage.
func NormalizeStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "present":
		return StatusPresent, nil
	case "absent":
		return StatusAbsent, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Envelope is the wire frame for every websocket message: {event, data}.
type Envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// InboundMessage is the envelope as decoded from a client frame. Data stays
// raw so each handler decodes its own payload shape.
type InboundMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Identity is the authenticated principal attached to a connection after
// credential verification. Facts only, no decisions.
type Identity struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

// MarkPayload is the data of an inbound ATTENDANCE_MARKED event.
type MarkPayload struct {
	StudentID string `json:"studentId"`
	Status    string `json:"status"`
}

// Summary aggregates a session's attendance counts.
type Summary struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Total   int `json:"total"`
}

// DonePayload is broadcast once a session's records have been persisted.
type DonePayload struct {
	Message string `json:"message"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Total   int    `json:"total"`
}

// MyAttendancePayload answers a student's own-status query. Status is the
// canonical mark, or "not yet updated" before the teacher marks them.
type MyAttendancePayload struct {
	Status string `json:"status"`
}

// ErrorPayload is the data of an outbound ERROR event.
type ErrorPayload struct {
	Message string `json:"message"`
}

// ErrorEnvelope builds the single notification every rejected request gets.
func ErrorEnvelope(message string) Envelope {
	return Envelope{Event: EventError, Data: ErrorPayload{Message: message}}
}

// User is an account in the identity store.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name" validate:"required,min=1,max=100"`
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email" validate:"required,email"`
	Password  string    `gorm:"not null" json:"-" validate:"required,min=6"`
	Role      string    `gorm:"size:20;not null" json:"role" validate:"required,oneof=teacher student"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// Class binds a teacher to an enrolled roster. StudentIDs is stored as a
// JSON array column, mirroring the document shape the class store exposes.
type Class struct {
	ID         string                      `gorm:"primaryKey;size:36" json:"id"`
	ClassName  string                      `gorm:"size:200;not null" json:"className" validate:"required,min=1,max=200"`
	TeacherID  string                      `gorm:"size:36;index;not null" json:"teacherId"`
	StudentIDs datatypes.JSONSlice[string] `gorm:"type:json" json:"studentIds"`
	CreatedAt  time.Time                   `gorm:"autoCreateTime" json:"created_at"`
}

// Enrolled reports whether a student is on the class roster.
func (c *Class) Enrolled(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// AttendanceRecord is one durable {classId, studentId, status} row, written
// only at session completion.
type AttendanceRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ClassID   string    `gorm:"size:36;index;not null" json:"classId"`
	StudentID string    `gorm:"size:36;index;not null" json:"studentId"`
	Status    Status    `gorm:"size:10;not null" json:"status"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
