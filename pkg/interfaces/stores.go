package interfaces

import (
	"context"

	"rollcall/pkg/types"
)

// ClassStore resolves classes and their enrolled rosters. The session
// coordinator re-reads the roster at completion time rather than caching it
// from session start, so late enrollment changes are honored.
type ClassStore interface {
	GetClass(ctx context.Context, classID string) (*types.Class, error)
}

// AttendanceStore accepts the final records of a completed session as a
// single batch, and serves a student's post-session status lookup.
type AttendanceStore interface {
	SaveBatch(ctx context.Context, records []*types.AttendanceRecord) error
	GetRecord(ctx context.Context, classID, studentID string) (*types.AttendanceRecord, error)
}

// UserStore is the account collection behind signup/login and the student
// directory.
type UserStore interface {
	CreateUser(ctx context.Context, user *types.User) error
	GetUserByEmail(ctx context.Context, email string) (*types.User, error)
	GetUser(ctx context.Context, userID string) (*types.User, error)
	ListStudents(ctx context.Context) ([]*types.User, error)
}
