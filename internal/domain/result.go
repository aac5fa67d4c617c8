package domain

import "errors"

// Messages shown to the user after a mutation.
const (
	MsgCreated      = "Activity added successfully!"
	MsgUpdated      = "Activity updated successfully!"
	MsgCoverUpdated = "Cover updated successfully!"
	MsgDeleted      = "Activity deleted successfully!"
	MsgForbidden    = "You do not have access."
	MsgInvalid      = "The given data was invalid."
	MsgStorage      = "The file could not be stored."
	MsgInternal     = "Something went wrong."
)

// Result is the outcome of a mutation, rendered directly by the client.
type Result struct {
	OK      bool              `json:"ok"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Task    *Task             `json:"task,omitempty"`
}

func Success(message string, task *Task) Result {
	return Result{OK: true, Message: message, Task: task}
}

// Failure converts a service error into a user-facing result.
func Failure(err error) Result {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return Result{Message: MsgInvalid, Errors: verr.Fields}
	case errors.Is(err, ErrForbidden), errors.Is(err, ErrNotFound):
		return Result{Message: MsgForbidden}
	case errors.Is(err, ErrStorage):
		return Result{Message: MsgStorage}
	default:
		return Result{Message: MsgInternal}
	}
}
