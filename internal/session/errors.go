package session

import "errors"

// StatusNotYetUpdated is returned for an enrolled student the teacher has
// not marked yet.
const StatusNotYetUpdated = "not yet updated"

var (
	ErrNoActiveSession  = errors.New("no active attendance session")
	ErrClassUnavailable = errors.New("class for active session not found")
	ErrEmptyRoster      = errors.New("class has no enrolled students")
)
