package domain

import (
	"strings"
	"time"
)

// Task is a single activity owned by one user.
type Task struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description"`
	Cover       *string   `db:"cover" json:"cover"`
	IsFinished  bool      `db:"is_finished" json:"is_finished"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// CoverURL is derived from Cover when the task leaves the service.
	CoverURL *string `db:"-" json:"cover_url"`
}

// Directory under the file store where task covers live.
const CoverDir = "todos/covers"

const (
	MaxTitleLength = 255
	// 2048 kilobytes
	DefaultMaxCoverBytes = 2048 * 1024
)

// StatusFilter restricts a listing by completion state.
type StatusFilter string

const (
	StatusAll      StatusFilter = "all"
	StatusFinished StatusFilter = "finished"
	StatusPending  StatusFilter = "pending"
)

// ParseStatusFilter maps request input onto a filter. Anything unknown
// means no restriction.
func ParseStatusFilter(s string) StatusFilter {
	switch StatusFilter(strings.ToLower(strings.TrimSpace(s))) {
	case StatusFinished:
		return StatusFinished
	case StatusPending:
		return StatusPending
	default:
		return StatusAll
	}
}

// TaskFilter is the search/status pair applied to an owner's tasks.
type TaskFilter struct {
	Search string       `json:"search"`
	Status StatusFilter `json:"status"`
}

// Matches reports whether t passes the filter. Search is case-insensitive,
// the same policy the SQL listing uses (ILIKE).
func (f TaskFilter) Matches(t *Task) bool {
	switch f.Status {
	case StatusFinished:
		if !t.IsFinished {
			return false
		}
	case StatusPending:
		if t.IsFinished {
			return false
		}
	}
	if f.Search == "" {
		return true
	}
	q := strings.ToLower(f.Search)
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q)
}

// TaskStats are completion counts over an owner's search result.
type TaskStats struct {
	Total    int64 `json:"total"`
	Finished int64 `json:"finished"`
	Pending  int64 `json:"pending"`
}

// Upload is an incoming file, already read into memory.
type Upload struct {
	Filename string
	Data     []byte
}

// Size returns the upload length in bytes.
func (u *Upload) Size() int64 {
	if u == nil {
		return 0
	}
	return int64(len(u.Data))
}
