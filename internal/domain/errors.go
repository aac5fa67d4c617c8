package domain

import (
	"errors"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned by repositories when no row matched.
	ErrNotFound = errors.New("task not found")
	// ErrForbidden is what every denied task operation unwraps to.
	ErrForbidden = errors.New("you do not have access to this task")
	// ErrStorage wraps file store failures that abort an operation.
	ErrStorage = errors.New("file storage failure")
)

// ValidationError carries one message per offending input field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

// OrNil returns e as an error only when at least one field failed.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AuthorizationError is returned when the caller does not own the task,
// and also when the task does not exist, so the two are indistinguishable.
type AuthorizationError struct {
	TaskID int64
}

func (e *AuthorizationError) Error() string {
	return ErrForbidden.Error() + " (id " + strconv.FormatInt(e.TaskID, 10) + ")"
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrForbidden
}
