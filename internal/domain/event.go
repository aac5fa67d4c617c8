package domain

// Event types pushed to an owner's open sockets.
const (
	EventReady        = "ready"
	EventTasksChanged = "tasks_changed"
)

// TaskEvent tells an owner's clients that their list is stale.
type TaskEvent struct {
	Type   string `json:"type"`
	Action string `json:"action,omitempty"`
	TaskID int64  `json:"task_id,omitempty"`
}

func TasksChanged(action string, taskID int64) TaskEvent {
	return TaskEvent{Type: EventTasksChanged, Action: action, TaskID: taskID}
}
