package handler

// User-facing messages. Internal causes are logged, never returned.
const (
	errInternalServer = "Internal server error"
	errInvalidEmail   = "Invalid email."
	errInvalidToken   = "Invalid token."
	errTaskNotFound   = "Task not found."
	errInvalidTaskID  = "Invalid Task Id."
)
