package types

import "errors"

// Shared validation errors surfaced across the wire and HTTP boundaries.
var (
	ErrInvalidStatus  = errors.New("status must be Present or Absent")
	ErrInvalidRole    = errors.New("role must be teacher or student")
	ErrEmptyStudentID = errors.New("student id is required")
)
