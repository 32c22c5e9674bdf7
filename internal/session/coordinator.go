// Package session holds the live attendance session: the single mutable
// slot every connection's handler reaches. All reads and writes go through
// the Coordinator so transitions are serialized, including across the
// roster fetch and the batch write that complete a session.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"rollcall/pkg/interfaces"
	"rollcall/pkg/types"
)

// Coordinator owns the singleton session state. The mutex is deliberately
// held across store I/O in Close and Summary: a second DONE racing the
// first must observe the already-reset slot and be denied, never trigger a
// second batch write.
type Coordinator struct {
	mu        sync.Mutex
	classID   string
	teacherID string
	startedAt time.Time
	marks     map[string]types.Status

	classes    interfaces.ClassStore
	attendance interfaces.AttendanceStore
}

// OpenInfo describes a freshly opened session.
type OpenInfo struct {
	ClassID   string    `json:"classId"`
	TeacherID string    `json:"teacherId"`
	StartedAt time.Time `json:"startedAt"`
}

// Completion is the result of a successfully closed session.
type Completion struct {
	ClassID string
	Records []*types.AttendanceRecord
	Summary types.Summary
}

func NewCoordinator(classes interfaces.ClassStore, attendance interfaces.AttendanceStore) *Coordinator {
	return &Coordinator{
		marks:      make(map[string]types.Status),
		classes:    classes,
		attendance: attendance,
	}
}

// Open starts a session for the class, unconditionally replacing any prior
// session. Starting a new session abandons an unfinished one; nothing is
// merged and nothing from the old slot is persisted.
func (c *Coordinator) Open(classID, teacherID string) OpenInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.classID != "" {
		log.Printf("Replacing unfinished session: class=%s teacher=%s", c.classID, c.teacherID)
	}
	c.classID = classID
	c.teacherID = teacherID
	c.startedAt = time.Now()
	c.marks = make(map[string]types.Status)

	return OpenInfo{ClassID: classID, TeacherID: teacherID, StartedAt: c.startedAt}
}

// IsActive reports whether a session is currently running.
func (c *Coordinator) IsActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classID != ""
}

// Mark records a status for a student. Last mark wins. Only the teacher who
// opened the session may mark; see guardTeacher for the deny semantics.
func (c *Coordinator) Mark(teacherID, studentID string, status types.Status) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardTeacher(teacherID); err != nil {
		return err
	}
	c.marks[studentID] = status
	return nil
}

// Summary computes the live counts for the owning teacher: present from the
// marks so far, total from the roster as it stands right now.
func (c *Coordinator) Summary(ctx context.Context, teacherID string) (types.Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardTeacher(teacherID); err != nil {
		return types.Summary{}, err
	}

	class, err := c.classes.GetClass(ctx, c.classID)
	if err != nil {
		return types.Summary{}, fmt.Errorf("%w: %v", ErrClassUnavailable, err)
	}

	present := 0
	for _, status := range c.marks {
		if status == types.StatusPresent {
			present++
		}
	}
	total := len(class.StudentIDs)
	return types.Summary{Present: present, Absent: total - present, Total: total}, nil
}

// StudentStatus answers a student's own-status query. A student who is not
// enrolled in the active session's class gets the same deny as when no
// session exists, so enrollment in someone else's session is not leaked.
func (c *Coordinator) StudentStatus(ctx context.Context, studentID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.classID == "" {
		return "", ErrNoActiveSession
	}

	class, err := c.classes.GetClass(ctx, c.classID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrClassUnavailable, err)
	}
	if !class.Enrolled(studentID) {
		return "", ErrNoActiveSession
	}

	if status, marked := c.marks[studentID]; marked {
		return string(status), nil
	}
	return StatusNotYetUpdated, nil
}

// Close completes the session: re-fetches the roster, defaults every
// unmarked enrolled student to Absent, persists the full roster as one
// batch, and resets the slot to idle. On any failure before the reset the
// session is left active so the teacher can retry DONE.
func (c *Coordinator) Close(ctx context.Context, teacherID string) (*Completion, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.guardTeacher(teacherID); err != nil {
		return nil, err
	}

	class, err := c.classes.GetClass(ctx, c.classID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassUnavailable, err)
	}
	if len(class.StudentIDs) == 0 {
		return nil, ErrEmptyRoster
	}

	// The roster at completion time is authoritative; late enrollments get
	// a defaulted Absent, and marks for students since removed are dropped.
	records := make([]*types.AttendanceRecord, 0, len(class.StudentIDs))
	summary := types.Summary{Total: len(class.StudentIDs)}
	for _, studentID := range class.StudentIDs {
		status, marked := c.marks[studentID]
		if !marked {
			status = types.StatusAbsent
		}
		if status == types.StatusPresent {
			summary.Present++
		} else {
			summary.Absent++
		}
		records = append(records, &types.AttendanceRecord{
			ClassID:   c.classID,
			StudentID: studentID,
			Status:    status,
		})
	}

	if err := c.attendance.SaveBatch(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to persist attendance: %w", err)
	}

	classID := c.classID
	c.reset()
	log.Printf("Session completed: class=%s present=%d absent=%d total=%d",
		classID, summary.Present, summary.Absent, summary.Total)

	return &Completion{ClassID: classID, Records: records, Summary: summary}, nil
}

// guardTeacher admits only the teacher who opened the session. A mismatch
// is treated as evidence the slot is stale: the session is reset and the
// caller gets the same generic deny as when no session exists, so whether a
// session is running for a different teacher is not observable. Call with
// c.mu held.
func (c *Coordinator) guardTeacher(teacherID string) error {
	if c.classID == "" {
		return ErrNoActiveSession
	}
	if c.teacherID != teacherID {
		log.Printf("Teacher mismatch on active session, resetting: class=%s", c.classID)
		c.reset()
		return ErrNoActiveSession
	}
	return nil
}

// reset returns the slot to idle. Call with c.mu held.
func (c *Coordinator) reset() {
	c.classID = ""
	c.teacherID = ""
	c.startedAt = time.Time{}
	c.marks = make(map[string]types.Status)
}
