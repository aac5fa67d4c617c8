package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/storage"
)

// TaskRepository is the persistence the task service needs. Update,
// SetCover and Delete match on owner as well as id.
type TaskRepository interface {
	List(ctx context.Context, ownerID int64, f domain.TaskFilter, limit, offset int) ([]*domain.Task, error)
	Count(ctx context.Context, ownerID int64, f domain.TaskFilter) (int64, error)
	Stats(ctx context.Context, ownerID int64, search string) (domain.TaskStats, error)
	GetByID(ctx context.Context, id int64) (*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	SetCover(ctx context.Context, ownerID, id int64, cover *string) error
	Delete(ctx context.Context, ownerID, id int64) error
}

type ListCache interface {
	// Get also returns the cache generation, passed back to Set.
	Get(ctx context.Context, ownerID int64, f domain.TaskFilter, page int) (*domain.TaskList, int64, bool)
	Set(ctx context.Context, ownerID, gen int64, f domain.TaskFilter, page int, list *domain.TaskList)
	Invalidate(ctx context.Context, ownerID int64)
}

// Notifier pushes change events to the owner's connected clients.
type Notifier interface {
	Notify(ownerID int64, ev domain.TaskEvent)
}

type Auditor interface {
	LogTask(ctx context.Context, userID int64, action string, taskID int64, details map[string]any)
}

type TaskServiceConfig struct {
	PageSize      int
	MaxCoverBytes int64
	Cache         ListCache
	Notifier      Notifier
	Audit         Auditor
}

// TaskService implements owner-scoped task operations. Every method takes
// the caller's user id explicitly.
type TaskService struct {
	repo     TaskRepository
	files    storage.FileStore
	cache    ListCache
	notifier Notifier
	audit    Auditor
	pageSize int
	maxCover int64
}

type CreateTaskInput struct {
	Title       string
	Description *string
	Cover       *domain.Upload
}

// UpdateTaskInput replaces title and description; IsFinished is left
// untouched when nil.
type UpdateTaskInput struct {
	Title       string
	Description *string
	IsFinished  *bool
}

func NewTaskService(repo TaskRepository, files storage.FileStore, cfg TaskServiceConfig) *TaskService {
	s := &TaskService{
		repo:     repo,
		files:    files,
		cache:    cfg.Cache,
		notifier: cfg.Notifier,
		audit:    cfg.Audit,
		pageSize: cfg.PageSize,
		maxCover: cfg.MaxCoverBytes,
	}
	if s.pageSize <= 0 {
		s.pageSize = 15
	}
	if s.maxCover <= 0 {
		s.maxCover = domain.DefaultMaxCoverBytes
	}
	if s.cache == nil {
		s.cache = noopCache{}
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.audit == nil {
		s.audit = noopAuditor{}
	}
	return s
}

// List returns one page of the caller's tasks matching filter, newest first,
// with completion stats over the caller's whole search result.
func (s *TaskService) List(ctx context.Context, caller int64, filter domain.TaskFilter, page int) (list *domain.TaskList, err error) {
	defer func() { observe("list", err) }()

	if page < 1 {
		page = 1
	}
	if filter.Status == "" {
		filter.Status = domain.StatusAll
	}

	cached, gen, ok := s.cache.Get(ctx, caller, filter, page)
	if ok {
		return cached, nil
	}

	total, err := s.repo.Count(ctx, caller, filter)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	tasks, err := s.repo.List(ctx, caller, filter, s.pageSize, (page-1)*s.pageSize)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	stats, err := s.repo.Stats(ctx, caller, filter.Search)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}

	for _, t := range tasks {
		s.decorate(t)
	}
	p := domain.NewTaskPage(tasks, total, s.pageSize, page)
	p.Filters = filter

	list = &domain.TaskList{Todos: p, Stats: stats}
	s.cache.Set(ctx, caller, gen, filter, page, list)
	return list, nil
}

func (s *TaskService) Create(ctx context.Context, caller int64, in CreateTaskInput) (task *domain.Task, err error) {
	defer func() { observe("create", err) }()

	verr := &domain.ValidationError{}
	title := validateTitle(in.Title, verr)
	ext := s.validateCover(in.Cover, false, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)

	task = &domain.Task{
		UserID:      caller,
		Title:       title,
		Description: normalizeDescription(in.Description),
	}
	if in.Cover != nil && len(in.Cover.Data) > 0 {
		path, err := s.files.Put(ctx, domain.CoverDir, ext, in.Cover.Data)
		if err != nil {
			log.Error("failed to store cover", "error", err)
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		task.Cover = &path
	}

	if err := s.repo.Create(ctx, task); err != nil {
		if task.Cover != nil {
			s.removeFile(ctx, *task.Cover)
		}
		return nil, fmt.Errorf("create task: %w", err)
	}

	log.Info("task created", "task_id", task.ID, "has_cover", task.Cover != nil)
	s.changed(ctx, caller, domain.AuditActionTaskCreate, task.ID, map[string]any{"title": task.Title})
	return s.decorate(task), nil
}

func (s *TaskService) Update(ctx context.Context, caller, taskID int64, in UpdateTaskInput) (task *domain.Task, err error) {
	defer func() { observe("update", err) }()

	task, err = s.authorize(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	title := validateTitle(in.Title, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	task.Title = title
	task.Description = normalizeDescription(in.Description)
	if in.IsFinished != nil {
		task.IsFinished = *in.IsFinished
	}

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.AuthorizationError{TaskID: taskID}
		}
		return nil, fmt.Errorf("update task: %w", err)
	}

	logger.FromContext(ctx).Info("task updated", "task_id", task.ID, "is_finished", task.IsFinished)
	s.changed(ctx, caller, domain.AuditActionTaskUpdate, task.ID, map[string]any{"is_finished": task.IsFinished})
	return s.decorate(task), nil
}

// ReplaceCover swaps the task's cover. The previous file is removed first;
// failing to remove it is only logged.
func (s *TaskService) ReplaceCover(ctx context.Context, caller, taskID int64, cover *domain.Upload) (task *domain.Task, err error) {
	defer func() { observe("replace_cover", err) }()

	task, err = s.authorize(ctx, caller, taskID)
	if err != nil {
		return nil, err
	}

	verr := &domain.ValidationError{}
	ext := s.validateCover(cover, true, verr)
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)

	if task.Cover != nil {
		s.removeFile(ctx, *task.Cover)
		task.Cover = nil
	}

	path, err := s.files.Put(ctx, domain.CoverDir, ext, cover.Data)
	if err != nil {
		log.Error("failed to store cover", "task_id", taskID, "error", err)
		// the old file is gone, keep the row consistent with that
		if clearErr := s.repo.SetCover(ctx, caller, taskID, nil); clearErr != nil {
			log.Error("failed to clear cover reference", "task_id", taskID, "error", clearErr)
		}
		s.cache.Invalidate(ctx, caller)
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	if err := s.repo.SetCover(ctx, caller, taskID, &path); err != nil {
		s.removeFile(ctx, path)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.AuthorizationError{TaskID: taskID}
		}
		return nil, fmt.Errorf("set cover: %w", err)
	}
	task.Cover = &path

	log.Info("task cover replaced", "task_id", taskID)
	s.changed(ctx, caller, domain.AuditActionTaskCover, taskID, map[string]any{"cover": path})
	return s.decorate(task), nil
}

// Delete removes the task and, best effort, its cover file.
func (s *TaskService) Delete(ctx context.Context, caller, taskID int64) (err error) {
	defer func() { observe("delete", err) }()

	task, err := s.authorize(ctx, caller, taskID)
	if err != nil {
		return err
	}

	if task.Cover != nil {
		s.removeFile(ctx, *task.Cover)
	}

	if err := s.repo.Delete(ctx, caller, taskID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return &domain.AuthorizationError{TaskID: taskID}
		}
		return fmt.Errorf("delete task: %w", err)
	}

	logger.FromContext(ctx).Info("task deleted", "task_id", taskID)
	s.changed(ctx, caller, domain.AuditActionTaskDelete, taskID, map[string]any{"title": task.Title})
	return nil
}

// authorize loads the task and checks the caller owns it. A missing task and
// a task owned by someone else produce the same AuthorizationError.
func (s *TaskService) authorize(ctx context.Context, caller, taskID int64) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, taskID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.FromContext(ctx).Warn("task access denied", "task_id", taskID, "reason", "not_found")
		return nil, &domain.AuthorizationError{TaskID: taskID}
	}
	if err != nil {
		return nil, fmt.Errorf("load task %d: %w", taskID, err)
	}
	if task.UserID != caller {
		logger.FromContext(ctx).Warn("task access denied", "task_id", taskID, "reason", "not_owner")
		return nil, &domain.AuthorizationError{TaskID: taskID}
	}
	return task, nil
}

func (s *TaskService) decorate(t *domain.Task) *domain.Task {
	t.CoverURL = nil
	if t.Cover != nil && *t.Cover != "" {
		u := s.files.URL(*t.Cover)
		t.CoverURL = &u
	}
	return t
}

func (s *TaskService) removeFile(ctx context.Context, path string) {
	if err := s.files.Delete(ctx, path); err != nil {
		logger.FromContext(ctx).Warn("failed to delete cover file", "path", path, "error", err)
	}
}

func (s *TaskService) changed(ctx context.Context, caller int64, action string, taskID int64, details map[string]any) {
	s.cache.Invalidate(ctx, caller)
	s.notifier.Notify(caller, domain.TasksChanged(action, taskID))
	s.audit.LogTask(ctx, caller, action, taskID, details)
}

func validateTitle(title string, verr *domain.ValidationError) string {
	title = strings.TrimSpace(title)
	switch {
	case title == "":
		verr.Add("title", "The title field is required.")
	case utf8.RuneCountInString(title) > domain.MaxTitleLength:
		verr.Add("title", "The title field must not be greater than "+strconv.Itoa(domain.MaxTitleLength)+" characters.")
	}
	return title
}

func normalizeDescription(d *string) *string {
	if d == nil {
		return nil
	}
	v := strings.TrimSpace(*d)
	if v == "" {
		return nil
	}
	return &v
}

// validateCover returns the stored file extension for an acceptable upload.
func (s *TaskService) validateCover(u *domain.Upload, required bool, verr *domain.ValidationError) string {
	if u == nil || len(u.Data) == 0 {
		if required {
			verr.Add("cover", "The cover field is required.")
		}
		return ""
	}
	ext, ok := storage.DetectImage(u.Data)
	if !ok {
		verr.Add("cover", "The cover field must be an image.")
		return ""
	}
	if u.Size() > s.maxCover {
		verr.Add("cover", "The cover field must not be greater than "+strconv.FormatInt(s.maxCover/1024, 10)+" kilobytes.")
		return ""
	}
	return ext
}

type noopCache struct{}

func (noopCache) Get(context.Context, int64, domain.TaskFilter, int) (*domain.TaskList, int64, bool) {
	return nil, 0, false
}
func (noopCache) Set(context.Context, int64, int64, domain.TaskFilter, int, *domain.TaskList) {}
func (noopCache) Invalidate(context.Context, int64)                                         {}

type noopNotifier struct{}

func (noopNotifier) Notify(int64, domain.TaskEvent) {}

type noopAuditor struct{}

func (noopAuditor) LogTask(context.Context, int64, string, int64, map[string]any) {}
