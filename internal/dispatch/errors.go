package dispatch

// Wire-level error messages. Each rejected or malformed request produces
// exactly one ERROR frame carrying one of these.
const (
	MsgInvalidFormat    = "Invalid message format"
	MsgNoActiveSession  = "No active attendance session"
	MsgTeacherEventOnly = "Forbidden, teacher event only"
	MsgStudentEventOnly = "Forbidden, student event only"
	MsgUnknownEvent     = "Unknown event"
	MsgInvalidStatus    = "Invalid status value"
	MsgClassNotFound    = "No class for active session found in database."
	MsgNoStudents       = "There are no students in this class."
	MsgGenericFailure   = "Something went wrong! Please try again."
)
