package interfaces

import "errors"

// Common errors shared across store implementations and their consumers.
var (
	ErrClassNotFound  = errors.New("class not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrRecordNotFound = errors.New("attendance record not found")
	ErrEmailTaken     = errors.New("email already exists")
)
