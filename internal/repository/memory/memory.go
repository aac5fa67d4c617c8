// Package memory holds in-process repositories with the same semantics as
// the Postgres ones. They back the service and handler tests and the
// STORE=memory dev mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/repository"
)

type TaskRepository struct {
	mu     sync.RWMutex
	tasks  map[int64]*domain.Task
	nextID int64
	now    func() time.Time
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{tasks: make(map[int64]*domain.Task), now: time.Now}
}

// SetClock replaces the timestamp source, for tests that depend on ordering.
func (r *TaskRepository) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	c.CoverURL = nil
	return &c
}

// matching returns the owner's tasks matching f, newest first.
func (r *TaskRepository) matching(ownerID int64, f domain.TaskFilter) []*domain.Task {
	out := []*domain.Task{}
	for _, t := range r.tasks {
		if t.UserID == ownerID && f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *TaskRepository) List(_ context.Context, ownerID int64, f domain.TaskFilter, limit, offset int) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := r.matching(ownerID, f)
	if offset >= len(all) {
		return []*domain.Task{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]*domain.Task, 0, end-offset)
	for _, t := range all[offset:end] {
		out = append(out, copyTask(t))
	}
	return out, nil
}

func (r *TaskRepository) Count(_ context.Context, ownerID int64, f domain.TaskFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.matching(ownerID, f))), nil
}

func (r *TaskRepository) Stats(_ context.Context, ownerID int64, search string) (domain.TaskStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var st domain.TaskStats
	for _, t := range r.matching(ownerID, domain.TaskFilter{Search: search, Status: domain.StatusAll}) {
		st.Total++
		if t.IsFinished {
			st.Finished++
		} else {
			st.Pending++
		}
	}
	return st, nil
}

func (r *TaskRepository) GetByID(_ context.Context, id int64) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyTask(t), nil
}

func (r *TaskRepository) Create(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	t.ID = r.nextID
	t.CreatedAt = now
	t.UpdatedAt = now
	r.tasks[t.ID] = copyTask(t)
	return nil
}

func (r *TaskRepository) Update(_ context.Context, t *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.tasks[t.ID]
	if !ok || cur.UserID != t.UserID {
		return domain.ErrNotFound
	}
	cur.Title = t.Title
	cur.Description = t.Description
	cur.IsFinished = t.IsFinished
	cur.UpdatedAt = r.now()
	t.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *TaskRepository) SetCover(_ context.Context, ownerID, id int64, cover *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.tasks[id]
	if !ok || cur.UserID != ownerID {
		return domain.ErrNotFound
	}
	cur.Cover = cover
	cur.UpdatedAt = r.now()
	return nil
}

func (r *TaskRepository) Delete(_ context.Context, ownerID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.tasks[id]
	if !ok || cur.UserID != ownerID {
		return domain.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

// Len reports the number of stored tasks across all owners.
func (r *TaskRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

type UserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*domain.User
	nextID int64
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[int64]*domain.User)}
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id int64) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *UserRepository) GetByTgID(_ context.Context, tgID int64) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.TgID != nil && *u.TgID == tgID })
}

func (r *UserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *UserRepository) Create(_ context.Context, u *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	c := *u
	r.users[u.ID] = &c
	return nil
}

type AuditRepository struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func NewAuditRepository() *AuditRepository {
	return &AuditRepository{}
}

func (r *AuditRepository) Create(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.entries) + 1)
	entry.CreatedAt = time.Now()
	c := *entry
	r.entries = append(r.entries, &c)
	return nil
}

func (r *AuditRepository) GetByUserID(_ context.Context, userID int64, limit int) ([]*domain.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.AuditLog{}
	for i := len(r.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if r.entries[i].UserID == userID {
			c := *r.entries[i]
			out = append(out, &c)
		}
	}
	return out, nil
}
